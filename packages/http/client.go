package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	neturl "net/url"
	"sort"
	"strings"
	"time"
)

// DefaultConnectTimeout applies when a request sets no timeout. There is no
// default read timeout.
const DefaultConnectTimeout = 15 * time.Second

// TransportConfig is what a transport needs to reach one target.
type TransportConfig struct {
	// Proxy is nil for a direct connection.
	Proxy              *neturl.URL
	ProxyAuthorization string
	ConnectTimeout     time.Duration
	ReadTimeout        time.Duration
	InsecureSkipVerify bool
}

// TransportFactory builds the round tripper for a single request.
type TransportFactory func(cfg TransportConfig) http.RoundTripper

// NewTransport returns a non-pooling transport that honours cfg and never
// falls back to proxy settings from the environment.
func NewTransport(cfg TransportConfig) http.RoundTripper {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		DisableKeepAlives:     true,
	}

	if cfg.Proxy != nil {
		transport.Proxy = http.ProxyURL(cfg.Proxy)
		if cfg.ProxyAuthorization != "" {
			transport.ProxyConnectHeader = http.Header{"Proxy-Authorization": {cfg.ProxyAuthorization}}
		}
	}

	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return transport
}

// Client executes requests against the process defaults it was built with.
type Client struct {
	defaults     Defaults
	logger       *slog.Logger
	newTransport TransportFactory
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		newTransport: NewTransport,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func WithDefaults(d Defaults) ClientOption {
	return func(c *Client) {
		c.defaults = d
	}
}

// WithLogger sets the logger used for request details. Without one,
// slog.Default is used for requests that opt in.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithTransportFactory(f TransportFactory) ClientOption {
	return func(c *Client) {
		c.newTransport = f
	}
}

var defaultClient = NewClient()

// SetDefaults replaces the default client. Call it once at startup, before
// any request executes.
func SetDefaults(d Defaults, opts ...ClientOption) {
	defaultClient = NewClient(append([]ClientOption{WithDefaults(d)}, opts...)...)
}

func DefaultClient() *Client {
	return defaultClient
}

func (c *Client) Defaults() Defaults {
	return c.defaults
}

// NewRequest returns a builder bound to c.
func (c *Client) NewRequest() *Request {
	r := NewRequest()
	r.client = c
	return r
}

// Execute plans req for method and performs exactly one attempt. Redirects
// are never followed. A response outside the 2xx family that the request does
// not accept is returned as a *StatusError.
func (c *Client) Execute(ctx context.Context, method string, req *Request) (*Response, error) {
	plan, err := req.Plan(method, c.defaults)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, plan)
}

// Do executes a resolved plan.
func (c *Client) Do(ctx context.Context, plan *Plan) (*Response, error) {
	var body io.Reader
	contentType := ""
	if plan.Body != nil {
		buf := &bytes.Buffer{}
		if err := plan.Body.Write(buf); err != nil {
			return nil, fmt.Errorf("failed to write %s request body: %w", plan.Mode, err)
		}
		body = buf
		contentType = plan.Body.ContentType()
	}

	httpReq, err := http.NewRequestWithContext(ctx, plan.Method, plan.URL, body)
	if err != nil {
		return nil, configError("%v", err)
	}

	proxy := c.defaults.ProxyFor(plan.Host)
	proxyAuth := ""
	if proxy != nil {
		proxyAuth = c.defaults.ProxyAuthorization()
	}

	// A plain http request goes to the proxy as is. For https the proxy only
	// sees the CONNECT handshake, which carries the header instead.
	if proxyAuth != "" && plan.Scheme == "http" {
		httpReq.Header.Set("Proxy-Authorization", proxyAuth)
	}
	for name, values := range plan.Headers {
		httpReq.Header[name] = append([]string(nil), values...)
	}
	if host := plan.Headers.Get("Host"); host != "" {
		httpReq.Host = host
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	httpClient := &http.Client{
		Transport: c.newTransport(TransportConfig{
			Proxy:              proxy,
			ProxyAuthorization: proxyAuth,
			ConnectTimeout:     plan.ConnectTimeout,
			ReadTimeout:        plan.ReadTimeout,
			InsecureSkipVerify: c.defaults.TrustAllCertificates,
		}),
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	logger := c.requestLogger(plan)
	if logger != nil {
		logRequest(logger, plan, httpReq.Header)
	}

	start := time.Now()
	httpResp, err := httpClient.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	resp := newResponse(httpResp, plan.URL, duration)

	if logger != nil {
		logResponse(logger, resp)
	}

	if !plan.Expect.Accepts(resp.StatusCode) {
		if err := resp.buffer(); err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		return nil, &StatusError{
			Method:     plan.Method,
			URL:        plan.URL,
			StatusCode: resp.StatusCode,
			Family:     resp.Family(),
			Response:   resp,
		}
	}

	return resp, nil
}

func (c *Client) requestLogger(plan *Plan) *slog.Logger {
	if !plan.LogDetails {
		return nil
	}
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

func logRequest(logger *slog.Logger, plan *Plan, header http.Header) {
	attrs := []any{
		slog.String("method", plan.Method),
		slog.String("url", plan.URL),
	}
	if plan.Credentials != nil {
		attrs = append(attrs, slog.String("user", plan.Credentials.Username))
	}
	if plan.Body != nil {
		attrs = append(attrs, slog.String("body", plan.Mode.String()))
	}
	logger.Info("sending request", attrs...)
	logger.Info("request headers", headerAttrs(header)...)
}

func logResponse(logger *slog.Logger, resp *Response) {
	logger.Info("received response",
		slog.Int("status", resp.StatusCode),
		slog.String("family", resp.Family().String()),
		slog.Duration("duration", resp.Duration),
	)
	logger.Info("response headers", headerAttrs(resp.Header)...)
}

func headerAttrs(h http.Header) []any {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	attrs := make([]any, 0, len(names))
	for _, name := range names {
		for _, v := range h[name] {
			if _, secret := redactedHeaders[name]; secret {
				v = redact(v)
			}
			attrs = append(attrs, slog.String(name, v))
		}
	}
	return attrs
}

var redactedHeaders = map[string]struct{}{
	"Authorization":       {},
	"Proxy-Authorization": {},
}

// redact keeps the auth scheme and hides the credentials.
func redact(v string) string {
	scheme, _, found := strings.Cut(v, " ")
	if !found {
		return "****"
	}
	return scheme + " ****"
}
