// Package jsonpath resolves simple JSONPath expressions against JSON text.
//
// Supported forms are the root ($), dotted members ($.a.b), bracketed
// members ($['a b'] or $["a"]), array indices ($.items[0]) and the array
// length suffix ($.items.length). Expressions without a leading $ are
// passed to gjson unchanged, so native gjson syntax (items.#.id) also works.
package jsonpath

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNotFound is returned when an expression matches nothing.
var ErrNotFound = errors.New("path not found")

// Lookup resolves expr against doc.
func Lookup(doc, expr string) (gjson.Result, error) {
	if strings.TrimSpace(doc) == "" {
		return gjson.Result{}, fmt.Errorf("empty JSON document")
	}
	if expr == "" {
		return gjson.Result{}, fmt.Errorf("empty JSONPath expression")
	}
	if !gjson.Valid(doc) {
		return gjson.Result{}, fmt.Errorf("invalid JSON document")
	}

	path, err := Convert(expr)
	if err != nil {
		return gjson.Result{}, err
	}

	result := gjson.Get(doc, path)
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrNotFound, expr)
	}
	return result, nil
}

// Extract resolves expr and renders the match as a string. Strings are
// returned unquoted, null as "null" and objects or arrays as raw JSON.
func Extract(doc, expr string) (string, error) {
	result, err := Lookup(doc, expr)
	if err != nil {
		return "", err
	}

	switch result.Type {
	case gjson.Null:
		return "null", nil
	case gjson.String:
		return result.Str, nil
	default:
		return result.Raw, nil
	}
}

// ExtractAll resolves every named expression. Successful extractions are
// returned even when others fail; the failures are joined into the error.
func ExtractAll(doc string, exprs map[string]string) (map[string]string, error) {
	names := make([]string, 0, len(exprs))
	for name := range exprs {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make(map[string]string, len(exprs))
	var errs []error
	for _, name := range names {
		value, err := Extract(doc, exprs[name])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		values[name] = value
	}

	return values, errors.Join(errs...)
}

// Convert translates a JSONPath expression into a gjson path.
func Convert(expr string) (string, error) {
	if !strings.HasPrefix(expr, "$") {
		return expr, nil
	}

	rest := expr[1:]
	var parts []string

	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			name := rest[:end]
			if name == "" {
				return "", fmt.Errorf("empty member name in %q", expr)
			}
			if name == "length" && end == len(rest) && len(parts) > 0 {
				parts = append(parts, "#")
			} else {
				parts = append(parts, escape(name))
			}
			rest = rest[end:]

		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return "", fmt.Errorf("unclosed bracket in %q", expr)
			}
			inner := rest[1:end]
			if len(inner) >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[len(inner)-1] == inner[0] {
				inner = inner[1 : len(inner)-1]
			}
			if inner == "" {
				return "", fmt.Errorf("empty bracket in %q", expr)
			}
			parts = append(parts, escape(inner))
			rest = rest[end+1:]

		default:
			return "", fmt.Errorf("unexpected %q in %q", rest[0], expr)
		}
	}

	if len(parts) == 0 {
		return "@this", nil
	}
	return strings.Join(parts, "."), nil
}

// escape protects gjson's special characters inside a member name.
func escape(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
