package request

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Builder configures one request and dispatches it exactly once.
// Every With* method mutates the shared Options and returns the same Builder.
type Builder struct {
	opts   *Options
	client *Client

	// err holds the first configuration error. It is reported at dispatch.
	err error

	mu   sync.Mutex
	sent bool
}

// New returns a Builder for rawURL. A URL that cannot be parsed is reported
// when the request is sent.
func New(rawURL string) *Builder {
	opts, err := Parse(rawURL)
	if err != nil {
		return &Builder{opts: &Options{}, client: DefaultClient, err: err}
	}
	return &Builder{opts: opts, client: DefaultClient}
}

// FromOptions returns a Builder that mutates opts directly. Fields left
// empty are derived where possible, so {Hostname, Path} is enough.
func FromOptions(opts *Options) *Builder {
	if opts == nil {
		opts = &Options{}
	}
	opts.normalize()
	return &Builder{opts: opts, client: DefaultClient}
}

// Get returns a Builder for a GET request to rawURL.
func Get(rawURL string) *Builder {
	return New(rawURL).WithMethod(MethodGet)
}

// Head returns a Builder for a HEAD request to rawURL.
func Head(rawURL string) *Builder {
	return New(rawURL).WithMethod(MethodHead)
}

// Del returns a Builder for a DELETE request to rawURL.
func Del(rawURL string) *Builder {
	return New(rawURL).WithMethod(MethodDelete)
}

// Post returns a Builder for a POST request to rawURL.
func Post(rawURL string) *Builder {
	return New(rawURL).WithMethod(MethodPost)
}

// Put returns a Builder for a PUT request to rawURL.
func Put(rawURL string) *Builder {
	return New(rawURL).WithMethod(MethodPut)
}

// Patch returns a Builder for a PATCH request to rawURL.
func Patch(rawURL string) *Builder {
	return New(rawURL).WithMethod(MethodPatch)
}

// Merge returns a Builder for a MERGE request to rawURL.
func Merge(rawURL string) *Builder {
	return New(rawURL).WithMethod(MethodMerge)
}

// Options returns the record being configured.
func (b *Builder) Options() *Options {
	return b.opts
}

// Err returns the first configuration error, if any.
func (b *Builder) Err() error {
	return b.err
}

// WithClient sets the client used to dispatch the request.
func (b *Builder) WithClient(client *Client) *Builder {
	if client != nil {
		b.client = client
	}
	return b
}

// WithMethod sets the request verb. The verb is not validated.
func (b *Builder) WithMethod(method string) *Builder {
	b.opts.SetMethod(method)
	return b
}

// WithPath replaces the path, keeping any query string already set.
func (b *Builder) WithPath(path string) *Builder {
	b.opts.SetPath(path)
	return b
}

// WithPathSection replaces the path segment at index. Index 0 is the first
// segment after the leading slash.
func (b *Builder) WithPathSection(index int, value string) *Builder {
	if err := b.opts.SetPathSection(index, value); err != nil {
		b.fail(err)
	}
	return b
}

// WithQuery appends a percent-encoded key=value pair to the query string.
// The value is formatted with fmt.Sprint.
func (b *Builder) WithQuery(key string, value any) *Builder {
	b.opts.AddQuery(key, value)
	return b
}

// WithQueries appends every field of form to the query string in order.
func (b *Builder) WithQueries(form Form) *Builder {
	for _, field := range form {
		b.opts.AddQuery(field.Key, field.Value)
	}
	return b
}

// WithHeader sets a header. The key is kept exactly as given.
func (b *Builder) WithHeader(key string, value any) *Builder {
	b.opts.SetHeader(key, value)
	return b
}

// WithHeaders sets several headers at once.
func (b *Builder) WithHeaders(headers map[string]string) *Builder {
	for key, value := range headers {
		b.opts.SetHeader(key, value)
	}
	return b
}

// WithContentType sets the Content-Type header.
func (b *Builder) WithContentType(value any) *Builder {
	return b.WithHeader("Content-Type", value)
}

// WithUserAgent sets the User-Agent header.
func (b *Builder) WithUserAgent(value any) *Builder {
	return b.WithHeader("User-Agent", value)
}

// WithContent sets the raw request body. Any method may carry a body.
func (b *Builder) WithContent(content string) *Builder {
	b.opts.SetContent(content)
	return b
}

// WithForm sends form as an application/x-www-form-urlencoded body.
func (b *Builder) WithForm(form Form) *Builder {
	return b.
		WithContentType("application/x-www-form-urlencoded").
		WithContent(form.Encode())
}

// WithJSON sends v serialized as JSON. A value that cannot be serialized
// is reported when the request is sent.
func (b *Builder) WithJSON(v any) *Builder {
	data, err := json.Marshal(v)
	if err != nil {
		b.fail(fmt.Errorf("encoding json content: %w", err))
		return b
	}

	return b.
		WithContentType("application/json").
		WithContent(string(data))
}

// Send dispatches the request and waits for the complete response.
// Any status code is a success; only transport failures, malformed JSON
// bodies and configuration errors are returned as errors.
func (b *Builder) Send(ctx context.Context) (*Response, error) {
	if err := b.claim(); err != nil {
		return nil, err
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.client.dispatch(ctx, b.opts)
}

// Go dispatches the request in the background and returns its deferred
// result.
func (b *Builder) Go(ctx context.Context) *Future {
	future := newFuture()
	go func() {
		future.settle(b.Send(ctx))
	}()
	return future
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// claim marks the builder as sent. The options record is single use.
func (b *Builder) claim() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sent {
		return ErrAlreadySent
	}
	b.sent = true
	return nil
}
