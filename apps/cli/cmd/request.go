package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/core/config"
	"github.com/abdul-hamid-achik/easyhttp/packages/history"
	"github.com/abdul-hamid-achik/easyhttp/packages/http"
	"github.com/abdul-hamid-achik/easyhttp/packages/output"
	"github.com/abdul-hamid-achik/easyhttp/packages/reader"
	"github.com/spf13/cobra"
)

type requestOptions struct {
	base        string
	query       string
	params      []string
	tokens      string
	headers     []string
	user        string
	fields      []string
	files       []string
	data        string
	dataFile    string
	contentType string
	form        bool
	multipart   bool
	timeout     time.Duration
	ok          []string
	proxy       string
	proxyUser   string
	bypassLocal bool
	insecure    bool
	verbose     bool
	jsonPaths   []string
	xmlPaths    []string
	jsonSchema  string
}

func newRequestCmd(method string, global *globalOptions) *cobra.Command {
	opts := &requestOptions{}

	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " [url]",
		Short: fmt.Sprintf("Send a %s request", method),
		Long: fmt.Sprintf(`Send a single %s request.

The URL may be absolute or a path that is appended to --base. Tokens such
as {id} are replaced, left to right, by the values given with --param.`, method),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) > 0 {
				target = args[0]
			}
			return runRequest(cmd, global, opts, method, target)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.base, "base", "", "Base URI the URL argument is appended to")
	flags.StringVar(&opts.query, "query", "", "Query string appended after the path")
	flags.StringArrayVarP(&opts.params, "param", "p", nil, "Positional URL parameter (repeatable)")
	flags.StringVar(&opts.tokens, "tokens", http.DefaultStartToken+http.DefaultEndToken, "Parameter start and end tokens, e.g. '[]' or '<<,>>'")
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "Request header 'Name: value' (repeatable)")
	flags.StringVarP(&opts.user, "user", "u", "", "Basic credentials 'user:password'")
	flags.StringArrayVarP(&opts.fields, "field", "f", nil, "Form field 'name=value' (repeatable)")
	flags.StringArrayVarP(&opts.files, "file", "F", nil, "File field 'name=@path[;type=media/type]' (repeatable)")
	flags.StringVar(&opts.data, "data", "", "Raw request body")
	flags.StringVar(&opts.dataFile, "data-file", "", "File sent as the raw request body")
	flags.StringVar(&opts.contentType, "content-type", "", "Media type of the raw body")
	flags.BoolVar(&opts.form, "form", false, "Send fields URL-encoded")
	flags.BoolVar(&opts.multipart, "multipart", false, "Send fields as multipart/form-data")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Connect and read timeout (env: EASYHTTP_TIMEOUT, in ms)")
	flags.StringSliceVar(&opts.ok, "ok", nil, "Status codes or families that are not failures, e.g. 404,redirection,5xx")
	flags.StringVar(&opts.proxy, "proxy", getEnvString("EASYHTTP_PROXY", ""), "Proxy 'host:port' (env: EASYHTTP_PROXY)")
	flags.StringVar(&opts.proxyUser, "proxy-user", getEnvString("EASYHTTP_PROXY_USER", ""), "Proxy credentials 'user:password' (env: EASYHTTP_PROXY_USER)")
	flags.BoolVar(&opts.bypassLocal, "bypass-local", getEnvBool("EASYHTTP_BYPASS_LOCAL", false), "Do not use the proxy for localhost and 127.0.0.1")
	flags.BoolVarP(&opts.insecure, "insecure", "k", getEnvBool("EASYHTTP_INSECURE", false), "Trust all TLS certificates")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log request details and show response headers")
	flags.StringArrayVar(&opts.jsonPaths, "json-path", nil, "Print the value at a JSON path instead of the body (repeatable)")
	flags.StringArrayVar(&opts.xmlPaths, "xml-path", nil, "Print the value at an XML path instead of the body (repeatable)")
	flags.StringVar(&opts.jsonSchema, "json-schema", "", "Fail unless the JSON body matches the schema file")

	return cmd
}

func runRequest(cmd *cobra.Command, global *globalOptions, opts *requestOptions, method, target string) error {
	cfg, err := global.loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg = cfg.Merge(opts.configOverride(cmd))

	formatter, err := global.formatter(cmd, cfg, opts.verbose)
	if err != nil {
		return err
	}

	defaults, err := cfg.ToDefaults()
	if err != nil {
		return &exitError{code: ExitConfigError, err: err}
	}

	clientOpts := []http.ClientOption{http.WithDefaults(defaults)}
	if opts.verbose {
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelInfo}))
		clientOpts = append(clientOpts, http.WithLogger(logger))
	}
	client := http.NewClient(clientOpts...)

	req, err := opts.build(client, cfg, target)
	if err != nil {
		return usageError(err)
	}

	plan, err := req.Plan(method, client.Defaults())
	if err != nil {
		formatter.FormatError(err)
		return reportedError(err)
	}

	resp, err := client.Do(cmd.Context(), plan)

	var statusErr *http.StatusError
	if errors.As(err, &statusErr) {
		resp = statusErr.Response
	}

	entry := history.Entry{
		ExecutedAt: time.Now(),
		Method:     plan.Method,
		URL:        plan.URL,
	}

	if resp == nil {
		entry.Error = err.Error()
		record(cmd, cfg, entry)
		formatter.FormatError(err)
		return reportedError(err)
	}

	entry.Status = resp.StatusCode
	entry.Family = resp.Family()
	entry.Duration = resp.Duration
	if err != nil {
		entry.Error = err.Error()
	}
	record(cmd, cfg, entry)

	r, readErr := reader.New(resp)
	if readErr != nil {
		formatter.FormatError(readErr)
		return &exitError{code: ExitNetworkError, err: readErr, reported: true}
	}

	result, readErr := opts.result(plan, resp, r)
	if readErr != nil {
		formatter.FormatError(readErr)
		return &exitError{code: ExitStatusFailure, err: readErr, reported: true}
	}
	formatter.FormatResult(result)

	if err != nil {
		return reportedError(err)
	}
	if len(result.SchemaViolations) > 0 {
		return &exitError{code: ExitStatusFailure, err: reader.ErrSchemaMismatch, reported: true}
	}
	return nil
}

// configOverride turns the connection flags into a config layer
func (o *requestOptions) configOverride(cmd *cobra.Command) *config.Config {
	override := &config.Config{
		BaseURI: o.base,
		Proxy:   o.proxy,
	}
	if o.proxyUser != "" {
		creds := http.ParseCredentials(o.proxyUser)
		override.ProxyUser = creds.Username
		override.ProxyPassword = creds.Password
	}
	if cmd.Flags().Changed("bypass-local") || o.bypassLocal {
		override.BypassProxyForLocalAddresses = config.BoolPtr(o.bypassLocal)
	}
	if cmd.Flags().Changed("insecure") || o.insecure {
		override.TrustAllCertificates = config.BoolPtr(o.insecure)
	}
	if cmd.Flags().Changed("timeout") {
		override.Timeout = int(o.timeout.Milliseconds())
	} else if ms := getEnvInt("EASYHTTP_TIMEOUT", 0); ms > 0 {
		override.Timeout = ms
	}
	return override
}

// build assembles the request from the flags. Errors here are CLI usage
// errors; configuration problems surface later from Plan.
func (o *requestOptions) build(client *http.Client, cfg *config.Config, target string) (*http.Request, error) {
	req := client.NewRequest()

	if target != "" {
		if strings.Contains(target, "://") {
			req.BaseURI(target)
		} else {
			req.Path(target)
		}
	}
	if o.query != "" {
		req.Query(o.query)
	}

	if len(o.params) > 0 {
		params := make([]any, len(o.params))
		for i, p := range o.params {
			params[i] = p
		}
		req.URLParameters(params...)
	}

	if o.tokens != http.DefaultStartToken+http.DefaultEndToken {
		start, end, err := splitTokens(o.tokens)
		if err != nil {
			return nil, err
		}
		req.ParameterTokens(start, end)
	}

	for name, value := range cfg.Headers {
		req.Header(name, value)
	}
	for _, h := range o.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q: expected 'Name: value'", h)
		}
		req.Header(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if o.user != "" {
		creds := http.ParseCredentials(o.user)
		req.Authorization(creds.Username, creds.Password)
	}

	if timeout := cfg.GetTimeout(); timeout > 0 {
		req.Timeout(timeout)
	}
	if o.verbose {
		req.LogRequestDetails()
	}

	if o.form && o.multipart {
		return nil, errors.New("--form and --multipart cannot be combined")
	}
	if o.form {
		req.URLEncodedForm()
	}
	if o.multipart {
		req.MultipartForm()
	}

	for _, f := range o.fields {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid field %q: expected 'name=value'", f)
		}
		req.Field(name, value)
	}
	for _, f := range o.files {
		name, path, mediaType, err := parseFileField(f)
		if err != nil {
			return nil, err
		}
		req.FileFieldWithType(name, path, mediaType)
	}

	if o.data != "" && o.dataFile != "" {
		return nil, errors.New("--data and --data-file cannot be combined")
	}
	if o.data != "" {
		req.Data([]byte(o.data), o.contentType)
	}
	if o.dataFile != "" {
		req.DataFile(o.dataFile, o.contentType)
	}

	for _, ok := range o.ok {
		if code, err := strconv.Atoi(ok); err == nil {
			req.DoNotFailOn(code)
			continue
		}
		family, err := http.ParseFamily(ok)
		if err != nil {
			return nil, fmt.Errorf("invalid --ok value: %w", err)
		}
		req.DoNotFailOnFamily(family)
	}

	return req, nil
}

func (o *requestOptions) result(plan *http.Plan, resp *http.Response, r *reader.Reader) (*output.Result, error) {
	result := &output.Result{
		Method:   plan.Method,
		URL:      plan.URL,
		Status:   resp.Status,
		Code:     resp.StatusCode,
		Family:   resp.Family(),
		Header:   resp.Header,
		Body:     r.Bytes(),
		Duration: resp.Duration,
	}

	for _, path := range o.jsonPaths {
		value, err := r.JSONPath(path)
		if err != nil {
			return nil, err
		}
		result.Extracts = append(result.Extracts, output.Extract{
			Kind:  "json",
			Path:  path,
			Value: value.String(),
			Found: value.Exists(),
		})
	}
	for _, path := range o.xmlPaths {
		value, found, err := r.XMLPath(path)
		if err != nil {
			return nil, err
		}
		result.Extracts = append(result.Extracts, output.Extract{
			Kind:  "xml",
			Path:  path,
			Value: value,
			Found: found,
		})
	}

	if o.jsonSchema != "" {
		violations, err := r.ValidateJSONSchema(o.jsonSchema)
		if err != nil && !errors.Is(err, reader.ErrSchemaMismatch) {
			return nil, err
		}
		result.Schema = o.jsonSchema
		result.SchemaViolations = violations
	}

	return result, nil
}

func record(cmd *cobra.Command, cfg *config.Config, entry history.Entry) {
	if cfg.History == "" {
		return
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to open history: %v\n", err)
		return
	}
	defer store.Close()

	if _, err := store.Record(cmd.Context(), entry); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to record history: %v\n", err)
	}
}

// splitTokens accepts "start,end" or a two-character pair such as "[]"
func splitTokens(s string) (string, string, error) {
	if start, end, ok := strings.Cut(s, ","); ok {
		return start, end, nil
	}
	if len(s) == 2 {
		return s[:1], s[1:], nil
	}
	return "", "", fmt.Errorf("invalid --tokens %q: use a pair like '[]' or 'start,end'", s)
}

// parseFileField parses "name=@path" with an optional ";type=media/type"
func parseFileField(s string) (name, path, mediaType string, err error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || !strings.HasPrefix(rest, "@") {
		return "", "", "", fmt.Errorf("invalid file field %q: expected 'name=@path'", s)
	}
	path = strings.TrimPrefix(rest, "@")
	if p, t, ok := strings.Cut(path, ";type="); ok {
		path, mediaType = p, t
	}
	if path == "" {
		return "", "", "", fmt.Errorf("invalid file field %q: missing path", s)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return "", "", "", fmt.Errorf("invalid file field %q: %w", s, statErr)
	}
	return name, path, mediaType, nil
}
