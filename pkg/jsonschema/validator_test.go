package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userSchema = `{
	"type": "object",
	"properties": {
		"name": { "type": "string" },
		"age": { "type": "integer", "minimum": 0 },
		"tags": { "type": "array", "items": { "type": "string" } }
	},
	"required": ["name"]
}`

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{name: "Valid simple object", json: `{"name": "John Doe", "age": 30}`},
		{name: "Valid with array", json: `{"name": "John", "tags": ["a", "b"]}`},
		{name: "Missing required property", json: `{"age": 30}`, wantErr: true},
		{name: "Wrong type", json: `{"name": "John", "age": "thirty"}`, wantErr: true},
		{name: "Below minimum", json: `{"name": "John", "age": -1}`, wantErr: true},
		{name: "Wrong item type", json: `{"name": "John", "tags": [1]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.json, userSchema)
			if tt.wantErr {
				var verrs ValidationErrors
				require.ErrorAs(t, err, &verrs)
				assert.NotEmpty(t, verrs)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate_InvalidInput(t *testing.T) {
	err := Validate(`{"name": "x"}`, `{"type": "object"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schema")

	err = Validate(`{"name":`, userSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestCheck_CollectsEveryFailure(t *testing.T) {
	schema, err := Compile(userSchema)
	require.NoError(t, err)

	err = schema.Check(map[string]any{"age": "old", "tags": []any{float64(1)}})

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.GreaterOrEqual(t, len(verrs), 3)
	assert.Contains(t, err.Error(), "/age")
	assert.Contains(t, err.Error(), "/tags/0")
}

func TestCompile_DecodedSchema(t *testing.T) {
	schema, err := Compile(map[string]any{
		"type":     "object",
		"required": []any{"id"},
		"properties": map[any]any{
			"id": map[string]any{"type": "number"},
		},
	})
	require.NoError(t, err)

	assert.NoError(t, schema.Check(map[string]any{"id": float64(7)}))
	assert.Error(t, schema.Check(map[string]any{"id": "7"}))
	assert.Error(t, schema.Check([]any{}))
}

func TestCompile_Bytes(t *testing.T) {
	schema, err := Compile([]byte(`{"type": "array", "minItems": 1}`))
	require.NoError(t, err)

	assert.NoError(t, schema.Check([]any{"x"}))
	assert.Error(t, schema.Check([]any{}))
}

func TestCompile_Nil(t *testing.T) {
	_, err := Compile(nil)
	assert.Error(t, err)
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "", ValidationErrors{}.Error())
}
