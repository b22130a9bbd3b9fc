package profile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	response string
	err      error
	calls    int
}

func (s *stubClient) GenerateJSON(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *stubClient) GenerateVisionJSON(_ context.Context, _ string, _ []byte) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubClient) Name() string { return "stub" }
func (s *stubClient) Close() error { return nil }

const validProfileJSON = `{
	"full_name": "Ada Lovelace",
	"email": "ada@example.com",
	"phone": "+44 20 7946 0958",
	"years_of_experience": 7,
	"skills": ["Go", "PostgreSQL"]
}`

func writeResume(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractParsesProfile(t *testing.T) {
	dir := t.TempDir()
	client := &stubClient{response: validProfileJSON}
	ex := NewExtractor(client, dir, nil)

	p, err := ex.Extract(context.Background(), writeResume(t, dir, "Ada Lovelace\nada@example.com"))
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", p.FullName)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, float64(7), p.YearsOfExperience)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, p.Skills)
}

func TestExtractCachesByModTime(t *testing.T) {
	dir := t.TempDir()
	client := &stubClient{response: validProfileJSON}
	ex := NewExtractor(client, dir, nil)
	resume := writeResume(t, dir, "Ada Lovelace")

	_, err := ex.Extract(context.Background(), resume)
	require.NoError(t, err)
	require.Equal(t, 1, client.calls)

	p, err := ex.Extract(context.Background(), resume)
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls, "unchanged resume reuses the cache")
	assert.Equal(t, "Ada Lovelace", p.FullName)
}

func TestExtractInvalidatesCacheOnResumeChange(t *testing.T) {
	dir := t.TempDir()
	client := &stubClient{response: validProfileJSON}
	ex := NewExtractor(client, dir, nil)
	resume := writeResume(t, dir, "Ada Lovelace")

	_, err := ex.Extract(context.Background(), resume)
	require.NoError(t, err)

	// Push the mtime forward so the stored stamp no longer matches.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(resume, future, future))

	_, err = ex.Extract(context.Background(), resume)
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
}

func TestExtractRejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	client := &stubClient{response: `{"email": "no name here"}`}
	ex := NewExtractor(client, dir, nil)

	_, err := ex.Extract(context.Background(), writeResume(t, dir, "text"))
	require.Error(t, err)

	var extractErr *ExtractError
	require.ErrorAs(t, err, &extractErr)
	assert.Contains(t, extractErr.Message, "invalid profile JSON")
	assert.Equal(t, 1, client.calls)
}

func TestExtractMissingResume(t *testing.T) {
	ex := NewExtractor(&stubClient{}, t.TempDir(), nil)
	_, err := ex.Extract(context.Background(), "/nonexistent/resume.txt")

	var extractErr *ExtractError
	require.ErrorAs(t, err, &extractErr)
}

func TestReadResumeTextPlainFormats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.md")
	require.NoError(t, os.WriteFile(path, []byte("# Ada\n\nGo engineer"), 0o644))

	text, err := ReadResumeText(path)
	require.NoError(t, err)
	assert.Equal(t, "# Ada\n\nGo engineer", text)
}

func TestReadResumeTextStripsBinaryNoise(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("Ada\x00\x01 Lovelace\nada@example.com\x7f"), 0o644))

	text, err := ReadResumeText(path)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace\nada@example.com", text)
}
