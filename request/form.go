package request

import (
	"net/url"
	"sort"
	"strings"
)

// Field is one key/value pair of a Form.
type Field struct {
	Key   string
	Value any
}

// Form is an ordered list of fields. Encoding preserves the order.
type Form []Field

// FormFromMap builds a Form from m with keys in sorted order.
func FormFromMap(m map[string]any) Form {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	form := make(Form, 0, len(keys))
	for _, key := range keys {
		form = append(form, Field{Key: key, Value: m[key]})
	}
	return form
}

// FormFromValues builds a Form from url.Values. Keys are sorted, and every
// value of a repeated key becomes its own field.
func FormFromValues(values url.Values) Form {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var form Form
	for _, key := range keys {
		for _, value := range values[key] {
			form = append(form, Field{Key: key, Value: value})
		}
	}
	return form
}

// Add appends a field and returns the extended form.
func (f Form) Add(key string, value any) Form {
	return append(f, Field{Key: key, Value: value})
}

// Encode renders the form as application/x-www-form-urlencoded text.
func (f Form) Encode() string {
	pairs := make([]string, 0, len(f))
	for _, field := range f {
		pairs = append(pairs, EncodeComponent(field.Key)+"="+EncodeComponent(stringify(field.Value)))
	}
	return strings.Join(pairs, "&")
}
