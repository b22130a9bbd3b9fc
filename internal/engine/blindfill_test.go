package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekbote/job-applier/internal/types"
)

func testProfile() *types.Profile {
	return &types.Profile{
		FullName:          "Ada Lovelace",
		Email:             "ada@example.com",
		Phone:             "555-0100",
		LinkedInURL:       "https://linkedin.com/in/ada",
		GitHubURL:         "https://github.com/ada",
		Location:          "London",
		WorkAuthorization: "UK citizen",
		YearsOfExperience: 7,
	}
}

func TestParseFormFields(t *testing.T) {
	html := `<form>
		<label for="fn">First Name</label><input id="fn" type="text" required>
		<label for="em">Email Address</label><input id="em" type="email" required>
		<input type="text" placeholder="Phone number">
		<input type="text" aria-label="LinkedIn profile" aria-required="true">
		<input type="file" name="resume">
		<input type="hidden" name="csrf" value="x">
		<input type="submit" value="Apply">
	</form>`

	fields, err := parseFormFields(html)
	require.NoError(t, err)
	require.Len(t, fields, 5, "hidden and submit inputs are not fields")

	assert.Equal(t, "First Name", fields[0].label)
	assert.True(t, fields[0].required)
	assert.Equal(t, "Email Address", fields[1].label)
	assert.Equal(t, "Phone number", fields[2].label)
	assert.False(t, fields[2].required)
	assert.Equal(t, "LinkedIn profile", fields[3].label)
	assert.True(t, fields[3].required, "aria-required counts as required")
	assert.True(t, fields[4].fileInput)
}

func TestParseFormFieldsUnlabeled(t *testing.T) {
	fields, err := parseFormFields(`<form><input type="text"></form>`)
	require.NoError(t, err)
	assert.Empty(t, fields, "inputs with no label source are skipped")
}

func TestMatchField(t *testing.T) {
	p := testProfile()

	tests := []struct {
		label string
		want  string
	}{
		{"First Name", "Ada"},
		{"Last name *", "Lovelace"},
		{"Email Address", "ada@example.com"},
		{"Phone number", "555-0100"},
		{"LinkedIn profile URL", "https://linkedin.com/in/ada"},
		{"GitHub", "https://github.com/ada"},
		{"City of residence", "London"},
		{"Are you authorized to work here?", "UK citizen"},
		{"How many years of experience do you have?", "7"},
		{"Favorite color", ""},
		{"Cover letter", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, matchField(tt.label, p), tt.label)
	}
}

func TestMatchFieldTokenFuzzy(t *testing.T) {
	p := testProfile()

	// No contiguous substring, but all keyword tokens appear.
	assert.Equal(t, "UK citizen", matchField("Authorization to work", p))
}

func TestMatchFieldNilProfile(t *testing.T) {
	assert.Empty(t, matchField("Email", nil))
}

func TestFormatYears(t *testing.T) {
	assert.Equal(t, "7", formatYears(7))
	assert.Equal(t, "7.5", formatYears(7.5))
	assert.Empty(t, formatYears(0))
	assert.Empty(t, formatYears(-1))
}
