package request

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Common HTTP methods. Any other verb may be passed to WithMethod.
const (
	MethodGet    = "GET"
	MethodHead   = "HEAD"
	MethodDelete = "DELETE"
	MethodPatch  = "PATCH"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodMerge  = "MERGE"
)

// Options describes one HTTP request. The With* methods on Builder mutate
// an Options in place and keep Path equal to Pathname + Search.
type Options struct {
	// Protocol is "http:" or "https:". Anything other than "https:" is sent
	// in plaintext.
	Protocol string

	// Hostname and Port identify the target. Port may be empty.
	Hostname string
	Port     string

	// Auth holds "user" or "user:password" for basic authentication.
	Auth string

	// Method is the request verb. An empty Method is sent as GET.
	Method string

	// Pathname is the path without the query string.
	Pathname string

	// Search is the query string with a leading '?', Query the same text
	// without it. Both are empty when no query is set.
	Search string
	Query  string

	// Path is Pathname followed by Search. It is what goes on the wire.
	Path string

	// Headers maps header names, as supplied, to their values.
	Headers map[string]string

	// Content is the raw request body. nil means no body.
	Content *string

	// Extra carries fields the builder does not interpret. They are handed
	// to the client's request hook untouched.
	Extra map[string]any
}

// Parse converts a URL string into an Options record.
func Parse(rawURL string) (*Options, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	opts := &Options{
		Hostname: u.Hostname(),
		Port:     u.Port(),
		Pathname: u.EscapedPath(),
		Query:    u.RawQuery,
	}

	if u.Scheme != "" {
		opts.Protocol = strings.ToLower(u.Scheme) + ":"
	}

	if u.User != nil {
		opts.Auth = u.User.Username()
		if password, ok := u.User.Password(); ok {
			opts.Auth += ":" + password
		}
	}

	// An authority with no path means the root
	if opts.Pathname == "" && u.Host != "" {
		opts.Pathname = "/"
	}

	if opts.Query != "" {
		opts.Search = "?" + opts.Query
	}
	opts.Path = opts.Pathname + opts.Search

	return opts, nil
}

// normalize fills the derived fields of a partially populated record.
func (o *Options) normalize() {
	if o.Pathname == "" && o.Path != "" {
		pathname, query, found := strings.Cut(o.Path, "?")
		o.Pathname = pathname
		if found && o.Search == "" {
			o.Query = query
			o.Search = "?" + query
		}
	}

	if o.Search == "" && o.Query != "" {
		o.Search = "?" + o.Query
	}
	if o.Query == "" && o.Search != "" {
		o.Query = strings.TrimPrefix(o.Search, "?")
	}

	o.Path = o.Pathname + o.Search
}

// SetMethod sets the request verb without validating it.
func (o *Options) SetMethod(method string) {
	o.Method = method
}

// SetPath replaces the path. An existing query string is kept.
func (o *Options) SetPath(path string) {
	o.Pathname = path
	o.Path = path + o.Search
}

// SetPathSection replaces the slash-delimited segment at index, where index
// 0 is the first segment after the leading slash. Indices past the end pad
// the path with empty segments.
func (o *Options) SetPathSection(index int, value string) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrPathSection, index)
	}

	sections := strings.Split(o.Pathname, "/")
	position := index + 1
	for len(sections) <= position {
		sections = append(sections, "")
	}
	sections[position] = value

	o.SetPath(strings.Join(sections, "/"))
	return nil
}

// AddQuery appends one percent-encoded key=value pair to the query string.
func (o *Options) AddQuery(key string, value any) {
	pair := EncodeComponent(key) + "=" + EncodeComponent(stringify(value))

	if o.Search != "" {
		o.Search += "&" + pair
		o.Query += "&" + pair
	} else {
		o.Search = "?" + pair
		o.Query = pair
	}

	o.Path = o.Pathname + o.Search
}

// SetHeader stores value under key, replacing any previous value.
func (o *Options) SetHeader(key string, value any) {
	if o.Headers == nil {
		o.Headers = make(map[string]string)
	}
	o.Headers[key] = stringify(value)
}

// SetContent sets the raw request body.
func (o *Options) SetContent(content string) {
	o.Content = &content
}

// Secure reports whether the request goes over TLS.
func (o *Options) Secure() bool {
	return strings.EqualFold(o.Protocol, "https:")
}

// URL assembles the target URL. The query part of Path is used verbatim.
func (o *Options) URL() (*url.URL, error) {
	scheme := "http"
	if o.Protocol != "" {
		scheme = strings.TrimSuffix(strings.ToLower(o.Protocol), ":")
	}

	host := o.Hostname
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	if o.Port != "" {
		host = net.JoinHostPort(strings.Trim(o.Hostname, "[]"), o.Port)
	}

	path, query, _ := strings.Cut(o.Path, "?")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u, err := url.Parse(scheme + "://" + host)
	if err != nil {
		return nil, err
	}

	// The path is taken as written; '#' and '?' inside it are not
	// reinterpreted.
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	u.Path = unescaped
	u.RawPath = path
	u.RawQuery = query

	if o.Auth != "" {
		username, password, found := strings.Cut(o.Auth, ":")
		if found {
			u.User = url.UserPassword(username, password)
		} else {
			u.User = url.User(username)
		}
	}

	return u, nil
}

// RequestPath returns the path part of Path as it appears on the request
// line. Only bytes that cannot appear on a request line (controls, space
// and non-ASCII) are percent-encoded.
func (o *Options) RequestPath() string {
	path, _, _ := strings.Cut(o.Path, "?")
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var sb strings.Builder
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c <= ' ' || c >= 0x7f {
			fmt.Fprintf(&sb, "%%%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// String returns the method and target of the request.
func (o *Options) String() string {
	method := o.Method
	if method == "" {
		method = MethodGet
	}

	u, err := o.URL()
	if err != nil {
		return method + " " + o.Path
	}
	return method + " " + u.String()
}
