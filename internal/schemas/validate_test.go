package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateScoreResult(t *testing.T) {
	valid := `{
		"score": 72,
		"strengths": ["Go", "distributed systems"],
		"gaps": ["Kubernetes"],
		"keywords_missing": ["terraform"],
		"recommendation": "apply"
	}`
	assert.NoError(t, ValidateScoreResult(valid))

	// score alone satisfies the schema
	assert.NoError(t, ValidateScoreResult(`{"score": 0}`))
}

func TestValidateScoreResultErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"missing score", `{"strengths": []}`},
		{"score out of range", `{"score": 150}`},
		{"score wrong type", `{"score": "high"}`},
		{"strengths wrong type", `{"score": 50, "strengths": "Go"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScoreResult(tt.json)
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.NotEmpty(t, ve.Errors)
		})
	}
}

func TestValidateProfile(t *testing.T) {
	valid := `{
		"full_name": "Ada Lovelace",
		"email": "ada@example.com",
		"years_of_experience": 7.5,
		"skills": ["Go", "Python"],
		"education": [{"degree": "BS", "field": "Math", "institution": "University", "year": "2018"}]
	}`
	assert.NoError(t, ValidateProfile(valid))

	assert.Error(t, ValidateProfile(`{"email": "no-name@example.com"}`), "full_name is required")
	assert.Error(t, ValidateProfile(`{"full_name": "Ada", "years_of_experience": "seven"}`))
}

func TestValidateFormActions(t *testing.T) {
	valid := `{
		"actions": [
			{"type": "fill", "selector": "#email", "value": "ada@example.com"},
			{"type": "upload", "selector": "input[type=file]"},
			{"type": "click", "selector": "#next"}
		],
		"submit_selector": "button[type=submit]",
		"needs_human": false
	}`
	assert.NoError(t, ValidateFormActions(valid))

	assert.Error(t, ValidateFormActions(`{}`), "actions is required")
	assert.Error(t, ValidateFormActions(`{"actions": [{"type": "teleport", "selector": "#x"}]}`), "unknown action type")
	assert.Error(t, ValidateFormActions(`{"actions": [{"type": "fill"}]}`), "selector is required")
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidateScoreResult(`{"score": -3}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
