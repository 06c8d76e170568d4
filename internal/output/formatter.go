package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wesleyorama2/volley/internal/stats"
	"github.com/wesleyorama2/volley/request"
)

// Formatter renders exchanges as human-readable text
type Formatter struct {
	Verbose bool
	NoColor bool
	scheme  *ColorScheme
}

// NewFormatter creates a new text formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	scheme := DefaultColorScheme()
	if noColor {
		scheme = NoColorScheme()
	}

	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		scheme:  scheme,
	}
}

// FormatRequest formats an outgoing request for display
func (f *Formatter) FormatRequest(opts *request.Options) string {
	var buf strings.Builder
	data := NewRequestData(opts)

	buf.WriteString(fmt.Sprintf("▶ REQUEST: %s %s\n",
		f.scheme.Method.Sprint(data.Method),
		f.scheme.URL.Sprint(data.URL)))

	if len(data.Headers) > 0 {
		buf.WriteString("  Headers:\n")
		for _, key := range sortedKeys(data.Headers) {
			buf.WriteString(fmt.Sprintf("    %s: %s\n", f.scheme.HeaderKey.Sprint(key), data.Headers[key]))
		}
	}

	if opts.Content != nil {
		buf.WriteString("  Body: ")
		buf.WriteString(indentJSON(data.Content))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatResponse formats a response for display
func (f *Formatter) FormatResponse(resp *request.Response) string {
	var buf strings.Builder

	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d", resp.StatusCode)
	}

	buf.WriteString(fmt.Sprintf("◀ RESPONSE: %s (%dms)\n",
		f.scheme.Status(resp.StatusCode).Sprint(status),
		resp.Timing.TotalTime.Milliseconds()))

	if f.Verbose {
		t := resp.Timing
		buf.WriteString("  Timing:\n")
		buf.WriteString(fmt.Sprintf("    DNS Lookup:         %dms\n", t.DNSLookupTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    TCP Connection:     %dms\n", t.TCPConnectTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    TLS Handshake:      %dms\n", t.TLSHandshakeTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Time to First Byte: %dms\n", t.TimeToFirstByte.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Content Transfer:   %dms\n", t.ContentTransferTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Total:              %dms\n", t.TotalTime.Milliseconds()))

		buf.WriteString("  Headers:\n")
		for _, key := range sortedKeys(resp.Headers) {
			for _, value := range resp.Headers[key] {
				buf.WriteString(fmt.Sprintf("    %s: %s\n", f.scheme.HeaderKey.Sprint(key), value))
			}
		}
	}

	if resp.RawBody != "" {
		buf.WriteString("  Body:\n")
		if resp.IsJSON() {
			buf.WriteString(indentJSON(resp.RawBody))
		} else {
			buf.WriteString(resp.RawBody)
		}
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatSummary formats a latency summary for display
func (f *Formatter) FormatSummary(title string, summary stats.Summary) string {
	var buf strings.Builder
	data := NewSummaryData(title, summary)

	buf.WriteString(fmt.Sprintf("%s %s\n", f.scheme.Label.Sprint("≡ SUMMARY:"), title))
	buf.WriteString(fmt.Sprintf("  Requests: %d", data.Count))
	if data.Failed > 0 {
		buf.WriteString(f.scheme.Error.Sprintf(" (%d failed)", data.Failed))
	}
	buf.WriteString("\n")

	if data.Count > 0 {
		buf.WriteString(fmt.Sprintf("  Latency:  min %.1fms  mean %.1fms  p50 %.1fms  p90 %.1fms  p99 %.1fms  max %.1fms\n",
			data.Min, data.Mean, data.P50, data.P90, data.P99, data.Max))
	}

	return buf.String()
}

// indentJSON attempts to pretty-print a JSON string
func indentJSON(s string) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(s), "  ", "  "); err != nil {
		return s
	}
	return pretty.String()
}
