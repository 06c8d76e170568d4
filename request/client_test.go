package request

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorded captures what the stub server saw.
type recorded struct {
	method  string
	uri     string
	headers http.Header
	body    string
}

// newStub starts a server that records the request and answers with the
// given status, content type and body.
func newStub(t *testing.T, status int, contentType, body string) (*httptest.Server, *recorded) {
	t.Helper()

	rec := &recorded{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		rec.method = r.Method
		rec.uri = r.RequestURI
		rec.headers = r.Header.Clone()
		rec.body = string(data)

		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, rec
}

func TestSend_Query(t *testing.T) {
	server, rec := newStub(t, http.StatusOK, "", "success")

	resp, err := Get(server.URL).
		WithQuery("a", "1").
		WithQuery("b", "2").
		Send(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/?a=1&b=2", rec.uri)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", resp.Body)
}

func TestSend_PathSection(t *testing.T) {
	server, rec := newStub(t, http.StatusOK, "", "success")

	_, err := Del(server.URL).
		WithPath("/x/y/z").
		WithPathSection(1, "value").
		Send(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/x/value/z", rec.uri)
}

func TestSend_PathAfterQuery(t *testing.T) {
	server, rec := newStub(t, http.StatusOK, "", "success")

	_, err := Put(server.URL + "/path/to/nowhere").
		WithQuery("foo", "bar").
		WithPath("/path").
		Send(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/path?foo=bar", rec.uri)
}

func TestSend_Methods(t *testing.T) {
	methods := []string{MethodGet, MethodHead, MethodDelete, MethodPatch, MethodPost, MethodPut, MethodMerge, "PURGE"}

	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			server, rec := newStub(t, http.StatusOK, "", "")

			_, err := New(server.URL).WithMethod(method).Send(context.Background())
			require.NoError(t, err)
			assert.Equal(t, method, rec.method)
		})
	}
}

func TestSend_Headers(t *testing.T) {
	server, rec := newStub(t, http.StatusOK, "", "success")

	_, err := Post(server.URL).
		WithHeader("foo", "1").
		WithHeader("bar", 2).
		WithUserAgent("volley-test").
		Send(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1", rec.headers.Get("foo"))
	assert.Equal(t, "2", rec.headers.Get("bar"))
	assert.Equal(t, "volley-test", rec.headers.Get("User-Agent"))
}

func TestSend_HostHeader(t *testing.T) {
	var host string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host = r.Host
	}))
	defer server.Close()

	_, err := Get(server.URL).WithHeader("host", "virtual.example").Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "virtual.example", host)
}

func TestSend_Content(t *testing.T) {
	tests := []struct {
		name        string
		configure   func(*Builder) *Builder
		body        string
		contentType string
	}{
		{
			name:      "Plain content",
			configure: func(b *Builder) *Builder { return b.WithContent("content") },
			body:      "content",
		},
		{
			name:        "JSON content",
			configure:   func(b *Builder) *Builder { return b.WithJSON(map[string]string{"content": "value"}) },
			body:        `{"content":"value"}`,
			contentType: "application/json",
		},
		{
			name:        "Form content",
			configure:   func(b *Builder) *Builder { return b.WithForm(Form{{"foo", 1}, {"bar", 2}}) },
			body:        "foo=1&bar=2",
			contentType: "application/x-www-form-urlencoded",
		},
		{
			name:      "Body on DELETE",
			configure: func(b *Builder) *Builder { return b.WithMethod(MethodDelete).WithContent("gone") },
			body:      "gone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, rec := newStub(t, http.StatusOK, "", "success")

			_, err := tt.configure(Post(server.URL)).Send(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.body, rec.body)
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, rec.headers.Get("Content-Type"))
			}
		})
	}
}

func TestSend_NoContent(t *testing.T) {
	server, rec := newStub(t, http.StatusOK, "", "")

	_, err := Post(server.URL).Send(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rec.body)
}

func TestSend_ResponseBody(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		expected    any
	}{
		{
			name:        "JSON body is parsed",
			status:      http.StatusOK,
			contentType: "application/json",
			body:        `{"message":"success"}`,
			expected:    map[string]any{"message": "success"},
		},
		{
			name:        "Vendor JSON type is parsed",
			status:      http.StatusOK,
			contentType: "application/vnd.api+json; charset=utf-8",
			body:        `[1,"two",null]`,
			expected:    []any{float64(1), "two", nil},
		},
		{
			name:        "Match is case-insensitive",
			status:      http.StatusOK,
			contentType: "Application/JSON",
			body:        `true`,
			expected:    true,
		},
		{
			name:        "Text body is kept raw",
			status:      http.StatusOK,
			contentType: "text/plain",
			body:        `{"message":"not parsed"}`,
			expected:    `{"message":"not parsed"}`,
		},
		{
			name:        "Failure status still resolves",
			status:      http.StatusBadRequest,
			contentType: "application/json",
			body:        `{"message":"failure"}`,
			expected:    map[string]any{"message": "failure"},
		},
		{
			name:     "Server error still resolves",
			status:   http.StatusInternalServerError,
			body:     "boom",
			expected: "boom",
		},
		{
			name:        "Empty JSON body",
			status:      http.StatusNoContent,
			contentType: "application/json",
			body:        "",
			expected:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newStub(t, tt.status, tt.contentType, tt.body)

			resp, err := Get(server.URL).Send(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.expected, resp.Body)
			assert.Equal(t, tt.body, resp.RawBody)
		})
	}
}

func TestSend_MalformedJSON(t *testing.T) {
	server, _ := newStub(t, http.StatusOK, "application/json", `{"message":`)

	resp, err := Get(server.URL).Send(context.Background())
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrParse)
}

func TestSend_HeadWithJSONType(t *testing.T) {
	server, rec := newStub(t, http.StatusOK, "application/json", `{"ignored":true}`)

	resp, err := Head(server.URL).Send(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodHead, rec.method)
	assert.Equal(t, "", resp.Body)
	assert.Equal(t, "application/json", resp.GetHeader("Content-Type"))
}

func TestSend_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := server.URL
	server.Close()

	resp, err := Get(target).Send(context.Background())
	assert.Nil(t, resp)
	require.Error(t, err)

	var urlErr *url.Error
	assert.True(t, errors.As(err, &urlErr), "expected *url.Error, got %T", err)
}

func TestSend_HTTPS(t *testing.T) {
	var uri string
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uri = r.RequestURI
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"success"}`))
	}))
	defer server.Close()

	require.True(t, strings.HasPrefix(server.URL, "https://"))
	client := NewClient(WithSecureClient(server.Client()))

	resp, err := client.New(server.URL).
		WithPath("/path/to/value").
		Send(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/path/to/value", uri)
	assert.Equal(t, map[string]any{"message": "success"}, resp.Body)
}

func TestSend_HTTPSUsesSecureTransport(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	// Only the plain transport trusts the test certificate, so the request
	// fails if the secure one is used.
	client := NewClient(WithPlainClient(server.Client()))

	_, err := client.New(server.URL).Send(context.Background())
	assert.Error(t, err)
}

func TestSend_FromOptions(t *testing.T) {
	server, rec := newStub(t, http.StatusOK, "", "success")
	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	resp, err := FromOptions(&Options{Hostname: u.Hostname(), Port: u.Port(), Path: "/path"}).
		WithMethod(MethodPatch).
		Send(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/path", rec.uri)
	assert.Equal(t, "success", resp.Body)
}

func TestSend_Twice(t *testing.T) {
	server, _ := newStub(t, http.StatusOK, "", "success")
	b := Get(server.URL)

	_, err := b.Send(context.Background())
	require.NoError(t, err)

	_, err = b.Send(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySent)
}

func TestSend_RequestHook(t *testing.T) {
	server, rec := newStub(t, http.StatusOK, "", "success")

	client := NewClient(WithRequestHook(func(req *http.Request, opts *Options) error {
		if token, ok := opts.Extra["token"].(string); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}))

	opts, err := Parse(server.URL)
	require.NoError(t, err)
	opts.Extra = map[string]any{"token": "abc"}

	_, err = client.FromOptions(opts).Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", rec.headers.Get("Authorization"))
}

func TestSend_RequestHookError(t *testing.T) {
	hookErr := errors.New("rejected")
	client := NewClient(WithRequestHook(func(*http.Request, *Options) error { return hookErr }))

	_, err := client.New("http://127.0.0.1:1").Send(context.Background())
	assert.ErrorIs(t, err, hookErr)
}

func TestSend_Logger(t *testing.T) {
	server, _ := newStub(t, http.StatusCreated, "", "")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := NewClient(WithLogger(logger)).New(server.URL).Send(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "sending request")
	assert.Contains(t, buf.String(), "status=201")
}

func TestClient_WithTimeout(t *testing.T) {
	client := NewClient(WithTimeout(5 * time.Second))

	assert.Equal(t, 5*time.Second, client.plain.Timeout)
	assert.Equal(t, 5*time.Second, client.secure.Timeout)
}

func TestSend_Timing(t *testing.T) {
	server, _ := newStub(t, http.StatusOK, "", "success")

	resp, err := Get(server.URL).Send(context.Background())
	require.NoError(t, err)

	assert.False(t, resp.Timing.StartTime.IsZero())
	assert.Greater(t, resp.Timing.TotalTime, time.Duration(0))
	assert.GreaterOrEqual(t, resp.Timing.TotalTime, resp.Timing.ContentTransferTime)
}

func TestSend_RedirectIsNotFollowed(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("landed"))
	}))
	defer server.Close()

	resp, err := Post(server.URL + "/old").
		WithContent("payload").
		Send(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/new", resp.GetHeader("Location"))
	assert.True(t, resp.IsRedirect())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSend_CustomClientKeepsRedirectPolicy(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("landed"))
	}))
	defer server.Close()

	client := NewClient(WithPlainClient(&http.Client{}))
	resp, err := client.New(server.URL + "/old").Send(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "landed", resp.Body)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestSend_PathIsSentAsWritten(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "Hash", path: "/a#b", expected: "/a#b?q=1"},
		{name: "Escapes kept", path: "/a%2Fb/c%20d", expected: "/a%2Fb/c%20d?q=1"},
		{name: "Space", path: "/a b", expected: "/a%20b?q=1"},
		{name: "Non-ASCII", path: "/café", expected: "/caf%C3%A9?q=1"},
		{name: "Reserved", path: "/a;b=c/@x:y", expected: "/a;b=c/@x:y?q=1"},
		{name: "Double slash", path: "//double", expected: "//double?q=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, rec := newStub(t, http.StatusOK, "", "")

			b := Get(server.URL).WithQuery("q", "1").WithPath(tt.path)
			_, err := b.Send(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.expected, rec.uri)
		})
	}
}

func TestSend_ContentLengthComesFromBody(t *testing.T) {
	server, rec := newStub(t, http.StatusOK, "", "")

	_, err := Put(server.URL).
		WithHeader("Content-Length", 999).
		WithContent("four").
		Send(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "four", rec.body)
	assert.Equal(t, "4", rec.headers.Get("Content-Length"))
}
