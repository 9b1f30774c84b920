package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrConfiguration is wrapped by every error caused by how a request was
// configured, as opposed to what happened on the wire.
var ErrConfiguration = errors.New("invalid request configuration")

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

const (
	DefaultStartToken = "{"
	DefaultEndToken   = "}"
)

// Field is a single named form value. A non-empty File makes it a file
// reference whose contents are read when the body is written.
type Field struct {
	Name      string
	Value     string
	File      string
	MediaType string
}

func (f Field) IsFile() bool {
	return f.File != ""
}

type rawPayload struct {
	data      []byte
	file      string
	mediaType string
}

// Request is a mutable, single-use request builder. Configuration errors are
// recorded on the builder and reported when the request is planned or
// executed, before any connection is opened.
type Request struct {
	client *Client

	baseURI    string
	path       string
	query      string
	startToken string
	endToken   string
	params     []any

	headers     map[string]string
	credentials *Credentials

	mode   BodyMode
	raw    *rawPayload
	fields []Field

	ignoreCodes    []int
	ignoreFamilies []Family

	timeout    *time.Duration
	logDetails bool

	err error
}

// NewRequest returns a builder bound to the default client.
func NewRequest() *Request {
	return &Request{
		startToken: DefaultStartToken,
		endToken:   DefaultEndToken,
		headers:    make(map[string]string),
	}
}

func (r *Request) fail(err error) *Request {
	if r.err == nil {
		r.err = err
	}
	return r
}

// Err returns the first configuration error recorded by the builder.
func (r *Request) Err() error {
	return r.err
}

// BaseURI sets the scheme, host and port. Any of BaseURI, Path and Query may
// carry a full URL instead.
func (r *Request) BaseURI(uri string) *Request {
	r.baseURI = uri
	return r
}

func (r *Request) Path(path string) *Request {
	r.path = path
	return r
}

func (r *Request) Query(query string) *Request {
	r.query = query
	return r
}

// URLParameters sets the values substituted, in order of appearance, into the
// parameter tokens of the composed URL.
func (r *Request) URLParameters(params ...any) *Request {
	r.params = params
	return r
}

// ParameterTokens overrides the default "{" and "}" parameter delimiters.
func (r *Request) ParameterTokens(start, end string) *Request {
	if start == "" || end == "" {
		return r.fail(configError("parameter tokens cannot be empty"))
	}
	r.startToken = start
	r.endToken = end
	return r
}

// Header sets a request header. Names are case-insensitive and the last value
// set wins.
func (r *Request) Header(name, value string) *Request {
	r.headers[http.CanonicalHeaderKey(name)] = value
	return r
}

// Authorization sets the credentials sent as a Basic Authorization header.
// Credentials embedded in the URL take precedence.
func (r *Request) Authorization(username, password string) *Request {
	r.credentials = &Credentials{Username: username, Password: password}
	return r
}

// Timeout bounds both connecting and waiting for the response headers. A zero
// timeout disables both limits.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = &d
	return r
}

// LogRequestDetails logs the outbound request and the response headers.
func (r *Request) LogRequestDetails() *Request {
	r.logDetails = true
	return r
}

func (r *Request) setMode(mode BodyMode) *Request {
	if r.mode != BodyAuto {
		return r.fail(configError("content type cannot be changed once set"))
	}
	r.mode = mode
	return r
}

// URLEncodedForm forces an application/x-www-form-urlencoded body.
func (r *Request) URLEncodedForm() *Request {
	return r.setMode(BodyURLEncoded)
}

// MultipartForm forces a multipart/form-data body.
func (r *Request) MultipartForm() *Request {
	return r.setMode(BodyMultipart)
}

// AddField appends a form field. Fields cannot be combined with raw data.
func (r *Request) AddField(f Field) *Request {
	if r.raw != nil {
		return r.fail(configError("data cannot be used at the same time as fields"))
	}
	if f.Name == "" {
		return r.fail(configError("field name cannot be empty"))
	}
	r.fields = append(r.fields, f)
	return r
}

// Field adds a text field. The value must not be URL encoded.
func (r *Request) Field(name, value string) *Request {
	return r.AddField(Field{Name: name, Value: value})
}

func (r *Request) FieldWithType(name, value, mediaType string) *Request {
	return r.AddField(Field{Name: name, Value: value, MediaType: mediaType})
}

// FileField attaches the file at path. Unless an encoding was chosen
// explicitly, any file field makes the body multipart.
func (r *Request) FileField(name, path string) *Request {
	return r.AddField(Field{Name: name, File: path})
}

func (r *Request) FileFieldWithType(name, path, mediaType string) *Request {
	return r.AddField(Field{Name: name, File: path, MediaType: mediaType})
}

// Data sets a raw body sent verbatim with the given media type. Only one raw
// body may be set and it cannot be combined with fields.
func (r *Request) Data(data []byte, mediaType string) *Request {
	return r.setRaw(&rawPayload{data: data, mediaType: mediaType})
}

// DataFile sets the contents of the file at path as the raw body.
func (r *Request) DataFile(path, mediaType string) *Request {
	return r.setRaw(&rawPayload{file: path, mediaType: mediaType})
}

func (r *Request) setRaw(p *rawPayload) *Request {
	if r.raw != nil {
		return r.fail(configError("only a single data value can be added"))
	}
	if len(r.fields) > 0 {
		return r.fail(configError("data cannot be used at the same time as fields"))
	}
	if r.mode != BodyAuto {
		return r.fail(configError("content type cannot be changed once set"))
	}
	r.mode = BodyRaw
	r.raw = p
	return r
}

// DoNotFailOn accepts the given status codes in addition to the 2xx family.
func (r *Request) DoNotFailOn(codes ...int) *Request {
	r.ignoreCodes = append(r.ignoreCodes, codes...)
	return r
}

// DoNotFailOnFamily accepts every status code in the given families.
func (r *Request) DoNotFailOnFamily(families ...Family) *Request {
	r.ignoreFamilies = append(r.ignoreFamilies, families...)
	return r
}

func (r *Request) execute(ctx context.Context, method string) (*Response, error) {
	c := r.client
	if c == nil {
		c = DefaultClient()
	}
	return c.Execute(ctx, method, r)
}

func (r *Request) Get(ctx context.Context) (*Response, error) {
	return r.execute(ctx, http.MethodGet)
}

func (r *Request) Head(ctx context.Context) (*Response, error) {
	return r.execute(ctx, http.MethodHead)
}

func (r *Request) Post(ctx context.Context) (*Response, error) {
	return r.execute(ctx, http.MethodPost)
}

func (r *Request) Put(ctx context.Context) (*Response, error) {
	return r.execute(ctx, http.MethodPut)
}

func (r *Request) Delete(ctx context.Context) (*Response, error) {
	return r.execute(ctx, http.MethodDelete)
}

// IsBodyMethod reports whether requests with the given method carry a body.
func IsBodyMethod(method string) bool {
	return method == http.MethodPost || method == http.MethodPut
}

func isSupportedMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// Plan is the immutable outcome of resolving a Request for one execution.
type Plan struct {
	Method         string
	URL            string
	Scheme         string
	Host           string
	Credentials    *Credentials
	Headers        http.Header
	Mode           BodyMode
	Body           BodyWriter
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Expect         Expectations
	LogDetails     bool
}

// Plan resolves the builder against the process defaults without modifying
// it. All configuration errors surface here.
func (r *Request) Plan(method string, defaults Defaults) (*Plan, error) {
	if r.err != nil {
		return nil, r.err
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	if !isSupportedMethod(method) {
		return nil, configError("unsupported method %q", method)
	}

	target, err := r.resolveTarget(defaults)
	if err != nil {
		return nil, err
	}

	creds := r.credentials
	if target.credentials != nil {
		creds = target.credentials
	}

	p := &Plan{
		Method:         method,
		URL:            target.url.String(),
		Host:           target.url.Hostname(),
		Credentials:    creds,
		Scheme:         target.url.Scheme,
		Headers:        AuthHeaders(creds),
		Mode:           BodyNone,
		ConnectTimeout: DefaultConnectTimeout,
		Expect: Expectations{
			Codes:    append([]int(nil), r.ignoreCodes...),
			Families: append([]Family(nil), r.ignoreFamilies...),
		},
		LogDetails: r.logDetails,
	}

	for name, value := range r.headers {
		p.Headers.Set(name, value)
	}

	if r.timeout != nil {
		p.ConnectTimeout = *r.timeout
		p.ReadTimeout = *r.timeout
	}

	if IsBodyMethod(method) {
		p.Mode = ResolveBodyMode(r.mode, r.raw != nil, r.fields)
		p.Body, err = r.bodyWriter(p.Mode, target.url.RawQuery)
		if err != nil {
			return nil, err
		}
	} else if len(r.fields) > 0 {
		return nil, configError("fields have been specified but the method %s will not use them, try POST or PUT instead", method)
	} else if r.raw != nil {
		return nil, configError("data has been specified but the method %s will not send it, try POST or PUT instead", method)
	}

	return p, nil
}

func (r *Request) bodyWriter(mode BodyMode, query string) (BodyWriter, error) {
	fields := append([]Field(nil), r.fields...)

	switch mode {
	case BodyNone:
		return nil, nil
	case BodyRaw:
		return &RawWriter{Data: r.raw.data, File: r.raw.file, MediaType: r.raw.mediaType}, nil
	case BodyURLEncoded:
		for _, f := range fields {
			if f.IsFile() {
				return nil, configError("field %q holds a file and cannot be URL encoded, use a multipart form", f.Name)
			}
		}
		return &URLEncodedWriter{Query: query, Fields: fields}, nil
	case BodyMultipart:
		return NewMultipartWriter(fields), nil
	default:
		return nil, configError("body mode %s is unknown", mode)
	}
}
