package request

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptrace"
	"sort"
	"strings"
	"time"
)

// DefaultClient dispatches requests created by New, FromOptions and the
// method shortcuts.
var DefaultClient = NewClient()

// RequestHook is called with the outgoing request and the options it was
// built from, just before the request is handed to the transport.
type RequestHook func(req *http.Request, opts *Options) error

// Client holds the plaintext and TLS transports used to dispatch requests.
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	plain  *http.Client
	secure *http.Client
	logger *slog.Logger
	hook   RequestHook
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// NewClient creates a new Client with the given options. Without options
// both transports are http.DefaultTransport, no timeout is applied and
// redirects are not followed: a 3xx response is returned as received.
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		plain:  newHTTPClient(),
		secure: newHTTPClient(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	// Apply options
	for _, option := range options {
		option(client)
	}

	return client
}

// newHTTPClient returns a client that makes exactly one exchange per request.
func newHTTPClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// WithTimeout sets the timeout of both transports.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.plain.Timeout = timeout
		c.secure.Timeout = timeout
	}
}

// WithPlainClient sets the *http.Client used for http: requests. The
// client keeps its own redirect policy.
func WithPlainClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.plain = httpClient
		}
	}
}

// WithSecureClient sets the *http.Client used for https: requests. The
// client keeps its own redirect policy.
func WithSecureClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.secure = httpClient
		}
	}
}

// WithLogger sets the logger that receives debug records for each exchange.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestHook registers a hook that sees every outgoing request.
func WithRequestHook(hook RequestHook) ClientOption {
	return func(c *Client) {
		c.hook = hook
	}
}

// New returns a Builder for rawURL that dispatches through c.
func (c *Client) New(rawURL string) *Builder {
	return New(rawURL).WithClient(c)
}

// FromOptions returns a Builder for opts that dispatches through c.
func (c *Client) FromOptions(opts *Options) *Builder {
	return FromOptions(opts).WithClient(c)
}

func (c *Client) transport(opts *Options) *http.Client {
	if opts.Secure() {
		return c.secure
	}
	return c.plain
}

// dispatch performs the single network exchange for opts.
func (c *Client) dispatch(ctx context.Context, opts *Options) (*Response, error) {
	httpReq, err := buildRequest(ctx, opts)
	if err != nil {
		return nil, err
	}

	if c.hook != nil {
		if err := c.hook(httpReq, opts); err != nil {
			return nil, err
		}
	}

	// Initialize timing info
	timing := Timing{
		StartTime: time.Now(),
	}
	httpReq = httpReq.WithContext(httptrace.WithClientTrace(httpReq.Context(), newTrace(&timing)))

	c.logger.DebugContext(ctx, "sending request",
		slog.String("method", httpReq.Method),
		slog.String("url", httpReq.URL.Scheme+"://"+httpReq.URL.Host+httpReq.URL.RequestURI()),
		slog.Bool("content", opts.Content != nil),
	)

	// Execute the request
	httpResp, err := c.transport(opts).Do(httpReq)
	if err != nil {
		c.logger.DebugContext(ctx, "request failed", slog.String("error", err.Error()))
		return nil, err
	}
	defer httpResp.Body.Close()

	// Read the whole body
	contentTransferStart := time.Now()
	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.logger.DebugContext(ctx, "reading response failed", slog.String("error", err.Error()))
		return nil, err
	}
	timing.ContentTransferTime = time.Since(contentTransferStart)
	timing.TotalTime = time.Since(timing.StartTime)

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    httpResp.Header,
		RawBody:    strings.ToValidUTF8(string(bodyBytes), "\uFFFD"),
		Timing:     timing,
	}

	if err := resp.decode(); err != nil {
		c.logger.DebugContext(ctx, "decoding response failed",
			slog.Int("status", resp.StatusCode),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.DebugContext(ctx, "received response",
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(bodyBytes)),
		slog.Duration("elapsed", timing.TotalTime),
	)

	return resp, nil
}

// buildRequest turns opts into an *http.Request. Header keys are written
// as supplied, not canonicalized.
func buildRequest(ctx context.Context, opts *Options) (*http.Request, error) {
	target, err := opts.URL()
	if err != nil {
		return nil, err
	}

	method := opts.Method
	if method == "" {
		method = MethodGet
	}

	var body io.Reader
	if opts.Content != nil {
		body = strings.NewReader(*opts.Content)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}
	// A leading "//" in Opaque would be sent as an absolute URL.
	if wire := opts.RequestPath(); !strings.HasPrefix(wire, "//") {
		httpReq.URL.Opaque = wire
	}

	keys := make([]string, 0, len(opts.Headers))
	for key := range opts.Headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := opts.Headers[key]
		switch http.CanonicalHeaderKey(key) {
		case "Host":
			httpReq.Host = value
		case "User-Agent":
			// net/http only consults the canonical key
			httpReq.Header.Set(key, value)
		default:
			httpReq.Header[key] = []string{value}
		}
	}

	return httpReq, nil
}
