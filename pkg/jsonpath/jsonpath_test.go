package jsonpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const document = `{
	"name": "John Doe",
	"age": 30,
	"address": {"city": "Anytown", "zip.code": "12345"},
	"phones": [
		{"type": "home", "number": "555-1234"},
		{"type": "work", "number": "555-5678"}
	],
	"active": true,
	"scores": [10, 20, 30, 40],
	"metadata": null,
	"full name": "J. Doe"
}`

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "Simple property", path: "$.name", expected: "John Doe"},
		{name: "Numeric property", path: "$.age", expected: "30"},
		{name: "Boolean property", path: "$.active", expected: "true"},
		{name: "Null property", path: "$.metadata", expected: "null"},
		{name: "Nested property", path: "$.address.city", expected: "Anytown"},
		{name: "Array element", path: "$.scores[2]", expected: "30"},
		{name: "Object in array", path: "$.phones[1].number", expected: "555-5678"},
		{name: "Whole array", path: "$.scores", expected: "[10, 20, 30, 40]"},
		{name: "Array length", path: "$.phones.length", expected: "2"},
		{name: "Quoted member", path: "$['full name']", expected: "J. Doe"},
		{name: "Double quoted member", path: `$["name"]`, expected: "John Doe"},
		{name: "Member with dot", path: "$.address['zip.code']", expected: "12345"},
		{name: "Native gjson path", path: "phones.#.type", expected: `["home","work"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := Extract(document, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestExtract_Root(t *testing.T) {
	value, err := Extract(`[1,2]`, "$")
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", value)

	value, err = Extract(`[1,2]`, "$[0]")
	require.NoError(t, err)
	assert.Equal(t, "1", value)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{name: "Empty document", doc: "", path: "$.a"},
		{name: "Invalid document", doc: "{", path: "$.a"},
		{name: "Empty path", doc: document, path: ""},
		{name: "Missing member", doc: document, path: "$.missing"},
		{name: "Index out of range", doc: document, path: "$.scores[10]"},
		{name: "Unclosed bracket", doc: document, path: "$.scores[1"},
		{name: "Empty member", doc: document, path: "$..name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.doc, tt.path)
			assert.Error(t, err)
		})
	}
}

func TestExtract_NotFound(t *testing.T) {
	_, err := Extract(document, "$.nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExtractAll(t *testing.T) {
	values, err := ExtractAll(document, map[string]string{
		"userName": "$.name",
		"city":     "$.address.city",
		"missing":  "$.nope",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "missing")
	assert.Equal(t, map[string]string{"userName": "John Doe", "city": "Anytown"}, values)
}

func TestConvert(t *testing.T) {
	tests := map[string]string{
		"$":              "@this",
		"$.a.b":          "a.b",
		"$.a[0].b":       "a.0.b",
		"$[3]":           "3",
		"$['a.b']":       `a\.b`,
		"$.items.length": "items.#",
		"items.#(id==1)": "items.#(id==1)",
		"$.weird*name":   `weird\*name`,
	}

	for input, expected := range tests {
		got, err := Convert(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, got, input)
	}
}
