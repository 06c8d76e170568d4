package config

import (
	"regexp"
	"sort"
	"strings"

	"github.com/wesleyorama2/volley/request"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// Substitute replaces {{name}} placeholders with values from vars.
// Unknown names are left in place.
func Substitute(input string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(input, "{{") {
		return input
	}

	return placeholder.ReplaceAllStringFunc(input, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}

// SubstituteMap applies Substitute to every value of input
func SubstituteMap(input map[string]string, vars map[string]string) map[string]string {
	if input == nil {
		return nil
	}

	result := make(map[string]string, len(input))
	for key, value := range input {
		result[key] = Substitute(value, vars)
	}
	return result
}

// substituteValue walks a decoded JSON or YAML value and substitutes
// placeholders in every string it contains.
func substituteValue(v any, vars map[string]string) any {
	switch t := v.(type) {
	case string:
		return Substitute(t, vars)
	case map[string]any:
		out := make(map[string]any, len(t))
		for key, val := range t {
			out[key] = substituteValue(val, vars)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = substituteValue(val, vars)
		}
		return out
	default:
		return v
	}
}

// MergeVars merges variable sets. Later sets override earlier ones.
func MergeVars(sets ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, set := range sets {
		for key, value := range set {
			result[key] = value
		}
	}
	return result
}

// ResolveURL prefixes a relative target with base. Absolute targets are
// returned unchanged.
func ResolveURL(base, target string) string {
	if base == "" || strings.Contains(target, "://") {
		return target
	}
	if target == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(target, "/")
}

// Build turns a request entry into a builder bound to client. A nil
// client means request.DefaultClient. Environment headers are applied
// before the request's own, so the request wins on conflicts.
func Build(client *request.Client, env Environment, req Request, vars map[string]string) *request.Builder {
	if client == nil {
		client = request.DefaultClient
	}

	target := ResolveURL(Substitute(env.BaseURL, vars), Substitute(req.URL, vars))
	b := client.New(target)

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = request.MethodGet
	}
	b.WithMethod(method)

	if req.Path != "" {
		b.WithPath(Substitute(req.Path, vars))
	}

	indices := make([]int, 0, len(req.PathSections))
	for index := range req.PathSections {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	for _, index := range indices {
		b.WithPathSection(index, Substitute(req.PathSections[index], vars))
	}

	for _, q := range req.Query {
		b.WithQuery(Substitute(q.Key, vars), Substitute(q.Value, vars))
	}

	switch {
	case req.Content != nil:
		b.WithContent(Substitute(*req.Content, vars))
	case req.JSON != nil:
		b.WithJSON(substituteValue(req.JSON, vars))
	case len(req.Form) > 0:
		form := make(map[string]any, len(req.Form))
		for key, value := range req.Form {
			form[key] = Substitute(value, vars)
		}
		b.WithForm(request.FormFromMap(form))
	}

	b.WithHeaders(SubstituteMap(env.Headers, vars))
	b.WithHeaders(SubstituteMap(req.Headers, vars))

	return b
}
