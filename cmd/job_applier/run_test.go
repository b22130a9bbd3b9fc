package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekbote/job-applier/internal/tailoring"
)

func TestValidateTemplate(t *testing.T) {
	for _, name := range tailoring.TemplateNames() {
		assert.NoError(t, validateTemplate(name))
	}
}

func TestValidateTemplateRejectsUnknown(t *testing.T) {
	err := validateTemplate("handwritten")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handwritten")
	assert.Contains(t, err.Error(), "professional")
}
