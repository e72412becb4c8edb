package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rfqSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"id", "materials"},
	"properties": map[string]interface{}{
		"id": map[string]interface{}{"type": "string", "minLength": 1},
		"materials": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	},
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		document  interface{}
		valid     bool
		errFields []string
	}{
		{
			name:     "valid",
			document: map[string]interface{}{"id": "rfq-1", "materials": []interface{}{"steel"}},
			valid:    true,
		},
		{
			name:      "missing materials",
			document:  map[string]interface{}{"id": "rfq-1"},
			errFields: []string{"(root)"},
		},
		{
			name:      "wrong item type",
			document:  map[string]interface{}{"id": "rfq-1", "materials": []interface{}{42}},
			errFields: []string{"materials.0"},
		},
		{
			name: "struct document",
			document: struct {
				ID        string   `json:"id"`
				Materials []string `json:"materials"`
			}{ID: "rfq-1", Materials: []string{"timber"}},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate(rfqSchema, tt.document)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)

			var fields []string
			for _, e := range result.Errors {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.errFields, fields)
		})
	}
}

func TestValidateJSON(t *testing.T) {
	result, err := ValidateJSON(rfqSchema, []byte(`{"id": "", "materials": []}`))
	require.NoError(t, err)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "id", result.Errors[0].Field)
	assert.Contains(t, result.Summary(), "id: ")
}

func TestValidate_NilSchemaAcceptsAnything(t *testing.T) {
	result, err := Validate(nil, "anything")
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidateJSON_MalformedDocument(t *testing.T) {
	_, err := ValidateJSON(rfqSchema, []byte(`{not json`))
	assert.Error(t, err)
}
