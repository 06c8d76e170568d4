package output

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/volley/internal/stats"
	"github.com/wesleyorama2/volley/request"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(name); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", name)
	}
}

// FormatProvider renders requests, responses and latency summaries
type FormatProvider interface {
	FormatRequest(opts *request.Options) string
	FormatResponse(resp *request.Response) string
	FormatSummary(title string, summary stats.Summary) string
}

// RequestData is the structured form of an outgoing request
type RequestData struct {
	Method  string            `json:"method" yaml:"method"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Content string            `json:"content,omitempty" yaml:"content,omitempty"`
}

// TimingData is the per-phase timing of an exchange in milliseconds
type TimingData struct {
	DNSLookup       int64 `json:"dnsLookupMs,omitempty" yaml:"dnsLookupMs,omitempty"`
	TCPConnection   int64 `json:"tcpConnectionMs,omitempty" yaml:"tcpConnectionMs,omitempty"`
	TLSHandshake    int64 `json:"tlsHandshakeMs,omitempty" yaml:"tlsHandshakeMs,omitempty"`
	TimeToFirstByte int64 `json:"timeToFirstByteMs,omitempty" yaml:"timeToFirstByteMs,omitempty"`
	ContentTransfer int64 `json:"contentTransferMs,omitempty" yaml:"contentTransferMs,omitempty"`
	Total           int64 `json:"totalMs" yaml:"totalMs"`
}

// ResponseData is the structured form of a received response
type ResponseData struct {
	StatusCode int               `json:"statusCode" yaml:"statusCode"`
	Status     string            `json:"status" yaml:"status"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       any               `json:"body,omitempty" yaml:"body,omitempty"`
	Timing     TimingData        `json:"timing" yaml:"timing"`
}

// SummaryData is the structured form of a latency summary in milliseconds
type SummaryData struct {
	Title  string  `json:"title" yaml:"title"`
	Count  int64   `json:"count" yaml:"count"`
	Failed int64   `json:"failed" yaml:"failed"`
	Min    float64 `json:"minMs" yaml:"minMs"`
	Mean   float64 `json:"meanMs" yaml:"meanMs"`
	P50    float64 `json:"p50Ms" yaml:"p50Ms"`
	P90    float64 `json:"p90Ms" yaml:"p90Ms"`
	P99    float64 `json:"p99Ms" yaml:"p99Ms"`
	Max    float64 `json:"maxMs" yaml:"maxMs"`
}

// NewRequestData converts options into a RequestData
func NewRequestData(opts *request.Options) RequestData {
	method := opts.Method
	if method == "" {
		method = request.MethodGet
	}

	target := opts.Path
	if u, err := opts.URL(); err == nil {
		target = u.Redacted()
	}

	data := RequestData{
		Method:  method,
		URL:     target,
		Headers: opts.Headers,
	}
	if opts.Content != nil {
		data.Content = *opts.Content
	}
	return data
}

// NewResponseData converts a response into a ResponseData
func NewResponseData(resp *request.Response) ResponseData {
	return ResponseData{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    flattenHeaders(resp),
		Body:       resp.Body,
		Timing: TimingData{
			DNSLookup:       resp.Timing.DNSLookupTime.Milliseconds(),
			TCPConnection:   resp.Timing.TCPConnectTime.Milliseconds(),
			TLSHandshake:    resp.Timing.TLSHandshakeTime.Milliseconds(),
			TimeToFirstByte: resp.Timing.TimeToFirstByte.Milliseconds(),
			ContentTransfer: resp.Timing.ContentTransferTime.Milliseconds(),
			Total:           resp.Timing.TotalTime.Milliseconds(),
		},
	}
}

// NewSummaryData converts a latency summary into a SummaryData
func NewSummaryData(title string, s stats.Summary) SummaryData {
	ms := func(d time.Duration) float64 {
		return float64(d) / float64(time.Millisecond)
	}

	return SummaryData{
		Title:  title,
		Count:  s.Count,
		Failed: s.Failed,
		Min:    ms(s.Min),
		Mean:   ms(s.Mean),
		P50:    ms(s.P50),
		P90:    ms(s.P90),
		P99:    ms(s.P99),
		Max:    ms(s.Max),
	}
}

// flattenHeaders keeps the first value of every header
func flattenHeaders(resp *request.Response) map[string]string {
	if len(resp.Headers) == 0 {
		return nil
	}

	headers := make(map[string]string, len(resp.Headers))
	for key, values := range resp.Headers {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}
	return headers
}

// sortedKeys returns the keys of m in lexical order
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

func (f *JSONFormatter) marshal(kind string, v any) string {
	var out []byte
	var err error
	if f.Pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}

	if err != nil {
		return fmt.Sprintf(`{"error":"Failed to marshal %s: %s"}`, kind, err)
	}
	return string(out) + "\n"
}

// FormatRequest formats a request as JSON
func (f *JSONFormatter) FormatRequest(opts *request.Options) string {
	return f.marshal("request", NewRequestData(opts))
}

// FormatResponse formats a response as JSON
func (f *JSONFormatter) FormatResponse(resp *request.Response) string {
	return f.marshal("response", NewResponseData(resp))
}

// FormatSummary formats a latency summary as JSON
func (f *JSONFormatter) FormatSummary(title string, summary stats.Summary) string {
	return f.marshal("summary", NewSummaryData(title, summary))
}

// YAMLFormatter formats output as YAML documents
type YAMLFormatter struct{}

func (f *YAMLFormatter) marshal(kind string, v any) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: Failed to marshal %s: %s\n", kind, err)
	}
	return "---\n" + string(out)
}

// FormatRequest formats a request as YAML
func (f *YAMLFormatter) FormatRequest(opts *request.Options) string {
	return f.marshal("request", NewRequestData(opts))
}

// FormatResponse formats a response as YAML
func (f *YAMLFormatter) FormatResponse(resp *request.Response) string {
	return f.marshal("response", NewResponseData(resp))
}

// FormatSummary formats a latency summary as YAML
func (f *YAMLFormatter) FormatSummary(title string, summary stats.Summary) string {
	return f.marshal("summary", NewSummaryData(title, summary))
}

// GetFormatter returns a formatter for the given format
func GetFormatter(format OutputFormat, verbose bool, noColor bool) FormatProvider {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return NewFormatter(verbose, noColor)
	}
}
