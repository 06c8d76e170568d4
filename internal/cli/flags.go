package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/volley/request"
)

// requestFlags holds the per-request flags shared by every verb command
type requestFlags struct {
	headers   []string
	queries   []string
	sections  []string
	forms     []string
	extract   []string
	path      string
	data      string
	jsonData  string
	userAgent string
}

func addRequestFlags(cmd *cobra.Command, f *requestFlags) {
	flags := cmd.Flags()
	flags.StringArrayVarP(&f.headers, "header", "H", nil, "HTTP header as key:value (can be used multiple times)")
	flags.StringArrayVarP(&f.queries, "query", "q", nil, "Query parameter as key=value, appended in order (can be used multiple times)")
	flags.StringArrayVar(&f.sections, "section", nil, "Replace a path segment as index=value (can be used multiple times)")
	flags.StringArrayVarP(&f.forms, "form", "f", nil, "Form field as key=value, sent url-encoded (can be used multiple times)")
	flags.StringArrayVar(&f.extract, "extract", nil, "Print a value from a JSON response as name=$.path (can be used multiple times)")
	flags.StringVar(&f.path, "path", "", "Replace the URL path, keeping the query string")
	flags.StringVarP(&f.data, "data", "d", "", "Raw request body")
	flags.StringVarP(&f.jsonData, "json", "j", "", "JSON request body; sets Content-Type to application/json")
	flags.StringVarP(&f.userAgent, "user-agent", "A", "", "User-Agent header")
	cmd.MarkFlagsMutuallyExclusive("data", "json", "form")
}

// globalFlags holds the persistent flags of the root command
type globalFlags struct {
	verbose bool
	noColor bool
	debug   bool
	output  string
	timeout time.Duration
}

func addGlobalFlags(cmd *cobra.Command, g *globalFlags) {
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "Enable verbose output")
	flags.BoolVar(&g.noColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&g.debug, "debug", false, "Log request dispatch to stderr")
	flags.StringVarP(&g.output, "output", "o", "text", "Output format: text, json or yaml")
	flags.DurationVarP(&g.timeout, "timeout", "t", 0, "Request timeout (default none)")
}

// apply copies the flag values onto a builder in a fixed order: path,
// sections, queries, body, then headers.
func (f *requestFlags) apply(b *request.Builder) error {
	if f.path != "" {
		b.WithPath(f.path)
	}

	for _, raw := range f.sections {
		index, value, err := parseSection(raw)
		if err != nil {
			return err
		}
		b.WithPathSection(index, value)
	}

	for _, raw := range f.queries {
		key, value, err := splitPair(raw, "=", "query")
		if err != nil {
			return err
		}
		b.WithQuery(key, value)
	}

	switch {
	case f.data != "":
		b.WithContent(f.data)
	case f.jsonData != "":
		b.WithContentType("application/json").WithContent(f.jsonData)
	case len(f.forms) > 0:
		var form request.Form
		for _, raw := range f.forms {
			key, value, err := splitPair(raw, "=", "form field")
			if err != nil {
				return err
			}
			form = form.Add(key, value)
		}
		b.WithForm(form)
	}

	for _, raw := range f.headers {
		key, value, err := splitPair(raw, ":", "header")
		if err != nil {
			return err
		}
		b.WithHeader(key, value)
	}

	if f.userAgent != "" {
		b.WithUserAgent(f.userAgent)
	}

	return b.Err()
}

// extractions parses the --extract flags into name -> path
func (f *requestFlags) extractions() (map[string]string, error) {
	if len(f.extract) == 0 {
		return nil, nil
	}

	paths := make(map[string]string, len(f.extract))
	for _, raw := range f.extract {
		name, path, err := splitPair(raw, "=", "extract")
		if err != nil {
			return nil, err
		}
		paths[name] = path
	}
	return paths, nil
}

// splitPair splits "key<sep>value" and trims both halves
func splitPair(raw, sep, what string) (string, string, error) {
	key, value, ok := strings.Cut(raw, sep)
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid %s %q, expected key%svalue", what, raw, sep)
	}
	return key, strings.TrimSpace(value), nil
}

func parseSection(raw string) (int, string, error) {
	key, value, err := splitPair(raw, "=", "section")
	if err != nil {
		return 0, "", err
	}

	index, err := strconv.Atoi(key)
	if err != nil {
		return 0, "", fmt.Errorf("invalid section index %q: %w", key, err)
	}
	return index, value, nil
}

// normalizeURL adds an http scheme to URLs typed without one
func normalizeURL(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	return "http://" + raw
}
