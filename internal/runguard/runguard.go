// Package runguard prevents more than one successful pipeline run per calendar day.
package runguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DateFormat is the canonical form of a completed-run marker.
const DateFormat = "2006-01-02"

// Guard gates a full pipeline run to once per calendar day.
type Guard interface {
	// HasRunToday reports whether a completed run is recorded for today.
	HasRunToday() (bool, error)
	// MarkComplete records a completed run for the given date.
	MarkComplete(date time.Time) error
	// Clear removes all recorded run dates. Idempotent; safe when no record exists.
	Clear() error
}

// FileGuard stores completed-run dates in an append-only text file,
// one YYYY-MM-DD line per completed run.
type FileGuard struct {
	path string
	now  func() time.Time
}

// NewFileGuard returns a guard backed by ran_dates.txt inside dir.
func NewFileGuard(dir string) *FileGuard {
	return &FileGuard{
		path: filepath.Join(dir, "ran_dates.txt"),
		now:  time.Now,
	}
}

// HasRunToday reports whether today's date appears in the record.
// A missing record file means no run has happened yet.
func (g *FileGuard) HasRunToday() (bool, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read run guard file: %w", err)
	}

	today := g.now().Format(DateFormat)
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == today {
			return true, nil
		}
	}
	return false, nil
}

// MarkComplete appends the date to the record, creating the file and its
// directory as needed.
func (g *FileGuard) MarkComplete(date time.Time) error {
	if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
		return fmt.Errorf("failed to create run guard dir: %w", err)
	}

	f, err := os.OpenFile(g.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open run guard file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(date.Format(DateFormat) + "\n"); err != nil {
		return fmt.Errorf("failed to append run date: %w", err)
	}
	return nil
}

// Clear removes the record file. Removing an already-missing file is not an error.
func (g *FileGuard) Clear() error {
	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear run guard file: %w", err)
	}
	return nil
}

// Dates returns every recorded run date, oldest first. Used by the guard
// status command.
func (g *FileGuard) Dates() ([]string, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read run guard file: %w", err)
	}

	var dates []string
	for _, line := range strings.Split(string(data), "\n") {
		if d := strings.TrimSpace(line); d != "" {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

// MemGuard is an in-memory Guard for tests.
type MemGuard struct {
	dates map[string]bool
	now   func() time.Time
}

// NewMemGuard returns an empty in-memory guard.
func NewMemGuard() *MemGuard {
	return &MemGuard{dates: make(map[string]bool), now: time.Now}
}

// HasRunToday reports whether today was marked complete.
func (g *MemGuard) HasRunToday() (bool, error) {
	return g.dates[g.now().Format(DateFormat)], nil
}

// MarkComplete records the date.
func (g *MemGuard) MarkComplete(date time.Time) error {
	g.dates[date.Format(DateFormat)] = true
	return nil
}

// Clear empties the record.
func (g *MemGuard) Clear() error {
	g.dates = make(map[string]bool)
	return nil
}
