package processnewapplicant

import "applicant-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"tenantId", "applicantId"},
		Properties: map[string]validation.Property{
			"tenantId": {
				Type:        "string",
				Description: "Tenant that owns the questionnaire",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(128),
			},
			"applicantId": {
				Type:        "string",
				Description: "Applicant document id",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(128),
			},
			"applicant": {
				Type:        "object",
				Description: "Initial applicant document",
				Properties: map[string]validation.Property{
					"answers": {Type: "object"},
				},
			},
		},
		AdditionalProperties: true,
	}
}
