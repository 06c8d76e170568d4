package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Response is a fully received HTTP response.
type Response struct {
	// StatusCode is the HTTP status code (e.g., 200, 404, 500)
	StatusCode int

	// Status is the HTTP status line text (e.g., "200 OK")
	Status string

	// Headers contains the response headers as received
	Headers http.Header

	// RawBody is the body decoded as UTF-8 text
	RawBody string

	// Body is RawBody, or the parsed JSON value when the Content-Type
	// mentions json
	Body any

	// Timing contains per-phase durations of the exchange
	Timing Timing
}

// IsJSON reports whether the Content-Type header mentions json.
func (r *Response) IsJSON() bool {
	return strings.Contains(strings.ToLower(r.Headers.Get("Content-Type")), "json")
}

// decode sets Body from RawBody according to the content type.
func (r *Response) decode() error {
	r.Body = r.RawBody

	if !r.IsJSON() || r.RawBody == "" {
		return nil
	}

	if !gjson.Valid(r.RawBody) {
		return fmt.Errorf("%w (status %d, content-type %q)", ErrParse, r.StatusCode, r.Headers.Get("Content-Type"))
	}
	r.Body = gjson.Parse(r.RawBody).Value()

	return nil
}

// GetHeader returns the first value of the named header.
func (r *Response) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// Get looks up a gjson path in the raw body. It works whatever the
// Content-Type was.
//
// Example:
//
//	name := resp.Get("users.0.name").String()
func (r *Response) Get(path string) gjson.Result {
	return gjson.Get(r.RawBody, path)
}

// DecodeJSON unmarshals the raw body into v.
func (r *Response) DecodeJSON(v any) error {
	return json.Unmarshal([]byte(r.RawBody), v)
}

// IsSuccess returns true if the response status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect returns true if the response status code is in the 3xx range.
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// IsClientError returns true if the response status code is in the 4xx range.
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// IsServerError returns true if the response status code is in the 5xx range.
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}
