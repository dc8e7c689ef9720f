package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"tenantId", "applicantId"},
		Properties: map[string]Property{
			"tenantId":    {Type: "string", MinLength: IntPtr(1)},
			"applicantId": {Type: "string", MinLength: IntPtr(1), Pattern: StringPtr(`^[A-Za-z0-9_-]+$`)},
			"applicant": {
				Type:       "object",
				Properties: map[string]Property{"answers": {Type: "object"}},
			},
		},
		AdditionalProperties: true,
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		valid     bool
		errFields []string
	}{
		{
			name:  "valid input",
			input: map[string]interface{}{"tenantId": "t1", "applicantId": "a1"},
			valid: true,
		},
		{
			name:      "missing required",
			input:     map[string]interface{}{"tenantId": "t1"},
			errFields: []string{"applicantId"},
		},
		{
			name:      "null required",
			input:     map[string]interface{}{"tenantId": "t1", "applicantId": nil},
			errFields: []string{"applicantId"},
		},
		{
			name:      "wrong type",
			input:     map[string]interface{}{"tenantId": float64(3), "applicantId": "a1"},
			errFields: []string{"tenantId"},
		},
		{
			name:      "blank string",
			input:     map[string]interface{}{"tenantId": "  ", "applicantId": "a1"},
			errFields: []string{"tenantId"},
		},
		{
			name:      "pattern mismatch",
			input:     map[string]interface{}{"tenantId": "t1", "applicantId": "a 1"},
			errFields: []string{"applicantId"},
		},
		{
			name: "nested type mismatch",
			input: map[string]interface{}{
				"tenantId":    "t1",
				"applicantId": "a1",
				"applicant":   map[string]interface{}{"answers": "nope"},
			},
			errFields: []string{"applicant.answers"},
		},
		{
			name:  "additional properties allowed",
			input: map[string]interface{}{"tenantId": "t1", "applicantId": "a1", "extra": true},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(tt.input, testSchema())

			assert.Equal(t, tt.valid, result.Valid)
			var fields []string
			for _, e := range result.Errors {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.errFields, fields)
		})
	}
}

func TestValidateInput_RejectsExtraFields(t *testing.T) {
	schema := testSchema()
	schema.AdditionalProperties = false

	result := ValidateInput(map[string]interface{}{"tenantId": "t1", "applicantId": "a1", "extra": 1}, schema)

	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors("extra"))
	assert.Equal(t, []string{"extra: field not allowed in schema"}, result.GetErrorMessages())
}
