package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/wesleyorama2/volley/pkg/jsonpath"
	"github.com/wesleyorama2/volley/pkg/jsonschema"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Is lets errors.Is match ErrInvalidConfig against any validation error
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Validate checks the whole configuration and reports every problem found,
// joined into one error. It returns nil for a valid configuration.
func Validate(cfg *Config) error {
	problems := Check(cfg)
	if len(problems) == 0 {
		return nil
	}

	errs := make([]error, len(problems))
	for i, p := range problems {
		errs[i] = p
	}
	return errors.Join(errs...)
}

// Check returns the individual validation problems sorted by path
func Check(cfg *Config) []ValidationError {
	var problems []ValidationError
	add := func(path, format string, args ...any) {
		problems = append(problems, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	for name, env := range cfg.Environments {
		if env.BaseURL == "" {
			add(fmt.Sprintf("environments.%s.baseUrl", name), "baseUrl is required")
		}
	}

	if len(cfg.Requests) == 0 {
		add("requests", "at least one request is required")
	}

	for name, req := range cfg.Requests {
		prefix := "requests." + name
		checkRequest(prefix, req, add)
	}

	for name, suite := range cfg.Suites {
		prefix := "suites." + name
		if len(suite.Requests) == 0 {
			add(prefix+".requests", "at least one request is required")
		}
		for i, reqName := range suite.Requests {
			if _, ok := cfg.Requests[reqName]; !ok {
				add(fmt.Sprintf("%s.requests[%d]", prefix, i), "request not found: %s", reqName)
			}
		}
	}

	sort.Slice(problems, func(i, j int) bool {
		if problems[i].Path != problems[j].Path {
			return problems[i].Path < problems[j].Path
		}
		return problems[i].Message < problems[j].Message
	})
	return problems
}

func checkRequest(prefix string, req Request, add func(path, format string, args ...any)) {
	if req.URL == "" {
		add(prefix+".url", "url is required")
	}

	if req.Method != "" && !isToken(req.Method) {
		add(prefix+".method", "invalid method: %s", req.Method)
	}

	for index := range req.PathSections {
		if index < 0 {
			add(fmt.Sprintf("%s.pathSections.%d", prefix, index), "index must not be negative")
		}
	}

	for i, q := range req.Query {
		if q.Key == "" {
			add(fmt.Sprintf("%s.query[%d].key", prefix, i), "key is required")
		}
	}

	bodies := 0
	if req.Content != nil {
		bodies++
	}
	if req.JSON != nil {
		bodies++
	}
	if len(req.Form) > 0 {
		bodies++
	}
	if bodies > 1 {
		add(prefix, "only one of content, json and form may be set")
	}

	for varName, path := range req.Extract {
		field := fmt.Sprintf("%s.extract.%s", prefix, varName)
		if path == "" {
			add(field, "extract path cannot be empty")
			continue
		}
		if _, err := jsonpath.Convert(path); err != nil {
			add(field, "%v", err)
		}
	}

	if req.Validate != nil {
		if _, err := jsonschema.Compile(req.Validate); err != nil {
			add(prefix+".validate", "%v", err)
		}
	}

	if req.Expect != nil {
		if s := req.Expect.Status; s != 0 && (s < 100 || s > 599) {
			add(prefix+".expect.status", "invalid status code: %d", s)
		}
		for path := range req.Expect.Body {
			if _, err := jsonpath.Convert(path); err != nil {
				add(fmt.Sprintf("%s.expect.body.%s", prefix, path), "%v", err)
			}
		}
	}
}

// isToken reports whether s is a valid HTTP method token
func isToken(s string) bool {
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.' || c == '!' || c == '~' || c == '*' || c == '\'' || c == '+' || c == '#' || c == '$' || c == '%' || c == '&' || c == '^' || c == '`' || c == '|':
		default:
			return false
		}
	}
	return s != ""
}
