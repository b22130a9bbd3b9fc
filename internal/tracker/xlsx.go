package tracker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/sekbote/job-applier/internal/types"
)

const (
	sheetName  = "Jobs"
	timeLayout = "2006-01-02 15:04:05"
)

// Column order is fixed; existing trackers keep working across versions.
var columns = []string{
	"job_id", "title", "company", "location", "apply_url",
	"match_score", "strengths", "gaps", "keywords_missing",
	"tailored_resume_path", "status", "strategy",
	"scraped_at", "applied_at", "notes",
}

var columnWidths = map[string]float64{
	"job_id": 18, "title": 35, "company": 25, "location": 20,
	"apply_url": 45, "match_score": 12, "strengths": 40,
	"gaps": 40, "keywords_missing": 40, "tailored_resume_path": 45,
	"status": 16, "strategy": 14, "scraped_at": 22, "applied_at": 22, "notes": 40,
}

// Row fill colors per status, matching the spreadsheet the operator reviews.
var statusColors = map[types.Status]string{
	types.StatusPending:        "FFF9C4", // yellow
	types.StatusApplied:        "C8E6C9", // green
	types.StatusFailed:         "FFCDD2", // red
	types.StatusSkipped:        "E0E0E0", // grey
	types.StatusManualRequired: "FFE0B2", // orange
}

// XLSXStore is a Store backed by a spreadsheet file. Writes that hit lock
// contention on the primary file (for example, the tracker open in a viewer)
// land in a timestamped sibling instead of being lost; reads consult the
// primary and any fallback siblings.
type XLSXStore struct {
	path string
	log  *zap.Logger
	now  func() time.Time
}

// NewXLSXStore opens (or lazily creates) the tracker at path.
func NewXLSXStore(path string, log *zap.Logger) *XLSXStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &XLSXStore{path: path, log: log, now: time.Now}
}

// Init creates the tracker file with a styled header row if it does not exist.
func (s *XLSXStore) Init() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create tracker dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name tracker sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1565C0"}, Pattern: 1},
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to resolve header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, headerTitle(col)); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to style header cell: %w", err)
		}
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to resolve column name: %w", err)
		}
		if w, ok := columnWidths[col]; ok {
			if err := f.SetColWidth(sheetName, colName, colName, w); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	if _, err := s.safeSave(f, s.path); err != nil {
		return err
	}
	s.log.Info("created tracker", zap.String("path", s.path))
	return nil
}

// Exists reports whether the job appears in the primary tracker or any
// fallback sibling.
func (s *XLSXStore) Exists(jobID string) (bool, error) {
	rec, err := s.Get(jobID)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Get returns the record for jobID, searching the primary file first and then
// fallback siblings newest-first. Missing files are treated as empty.
func (s *XLSXStore) Get(jobID string) (*types.TrackerRecord, error) {
	for _, path := range s.candidatePaths() {
		recs, err := readRecords(path)
		if err != nil {
			continue // unreadable candidate; the primary may still be fine
		}
		for i := range recs {
			if recs[i].JobID == jobID {
				return &recs[i], nil
			}
		}
	}
	return nil, nil
}

// List returns records from the primary tracker and any fallback siblings,
// primary records first, filtered by the given filter.
func (s *XLSXStore) List(filter Filter) ([]types.TrackerRecord, error) {
	seen := make(map[string]bool)
	var out []types.TrackerRecord
	for _, path := range s.candidatePaths() {
		recs, err := readRecords(path)
		if err != nil {
			continue
		}
		for _, rec := range recs {
			if seen[rec.JobID] {
				continue
			}
			seen[rec.JobID] = true
			if filter.Status != "" && rec.Status != filter.Status {
				continue
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

// Upsert inserts or replaces the record in whichever file currently holds the
// job (primary if it is new). On lock contention the write lands in a
// timestamped sibling and a warning is logged; the caller sees no error.
func (s *XLSXStore) Upsert(rec types.TrackerRecord) error {
	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = s.now().UTC()
	}

	path := s.pathContaining(rec.JobID)

	f, err := excelize.OpenFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return &WriteError{Path: path, Cause: err}
		}
		if err := s.Init(); err != nil {
			return err
		}
		if f, err = excelize.OpenFile(s.path); err != nil {
			return &WriteError{Path: s.path, Cause: err}
		}
		path = s.path
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return &WriteError{Path: path, Cause: err}
	}

	rowIdx := len(rows) + 1 // append position, 1-based
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) > 0 && row[0] == rec.JobID {
			rowIdx = i + 1
			break
		}
	}

	if err := writeRecord(f, rowIdx, rec); err != nil {
		return &WriteError{Path: path, Cause: err}
	}

	savedTo, err := s.safeSave(f, path)
	if err != nil {
		return err
	}
	if savedTo != path {
		s.log.Warn("tracker file locked; wrote to fallback",
			zap.String("primary", path), zap.String("fallback", savedTo))
	}
	return nil
}

// Reset returns a record to pending so a later run reprocesses it.
func (s *XLSXStore) Reset(jobID string) error {
	rec, err := s.Get(jobID)
	if err != nil {
		return err
	}
	if rec == nil {
		return &NotFoundError{JobID: jobID}
	}
	rec.Status = types.StatusPending
	rec.Strategy = ""
	rec.Notes = "reset for reprocessing"
	rec.AppliedAt = time.Time{}
	rec.LastUpdated = s.now().UTC()
	return s.Upsert(*rec)
}

// pathContaining returns the file that holds jobID, defaulting to the primary.
func (s *XLSXStore) pathContaining(jobID string) string {
	for _, path := range s.candidatePaths() {
		recs, err := readRecords(path)
		if err != nil {
			continue
		}
		for i := range recs {
			if recs[i].JobID == jobID {
				return path
			}
		}
	}
	return s.path
}

// candidatePaths returns the primary path followed by fallback siblings,
// newest modification first.
func (s *XLSXStore) candidatePaths() []string {
	paths := []string{s.path}

	dir := filepath.Dir(s.path)
	stem := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	matches, err := filepath.Glob(filepath.Join(dir, stem+"_*"+filepath.Ext(s.path)))
	if err != nil || len(matches) == 0 {
		return paths
	}

	sort.Slice(matches, func(i, j int) bool {
		fi, errI := os.Stat(matches[i])
		fj, errJ := os.Stat(matches[j])
		if errI != nil || errJ != nil {
			return matches[i] > matches[j]
		}
		return fi.ModTime().After(fj.ModTime())
	})
	return append(paths, matches...)
}

// safeSave writes the workbook to path via a temp file and atomic rename.
// If the rename is refused (target locked by another process), the temp file
// is kept as a timestamped fallback sibling. Returns the path actually written.
func (s *XLSXStore) safeSave(f *excelize.File, path string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tracker-*.xlsx")
	if err != nil {
		return "", &WriteError{Path: path, Cause: err}
	}
	tmpPath := tmp.Name()

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", &WriteError{Path: path, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", &WriteError{Path: path, Cause: err}
	}

	if err := os.Rename(tmpPath, path); err == nil {
		return path, nil
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fallback := filepath.Join(filepath.Dir(path),
		fmt.Sprintf("%s_%s%s", stem, s.now().Format("150405"), filepath.Ext(path)))
	if err := os.Rename(tmpPath, fallback); err != nil {
		os.Remove(tmpPath)
		return "", &WriteError{Path: path, Cause: err}
	}
	return fallback, nil
}

// readRecords loads every data row from one tracker file.
func readRecords(path string) ([]types.TrackerRecord, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracker %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracker rows: %w", err)
	}

	var recs []types.TrackerRecord
	for i, row := range rows {
		if i == 0 || len(row) == 0 || row[0] == "" {
			continue
		}
		recs = append(recs, parseRow(row))
	}
	return recs, nil
}

func writeRecord(f *excelize.File, rowIdx int, rec types.TrackerRecord) error {
	values := []any{
		rec.JobID, rec.Title, rec.Company, rec.Location, rec.ApplyURL,
		rec.Score, joinList(rec.Strengths), joinList(rec.Gaps), joinList(rec.MissingKeywords),
		rec.ResumePath, string(rec.Status), rec.Strategy,
		formatTime(rec.ScrapedAt), formatTime(rec.AppliedAt), rec.Notes,
	}

	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowIdx)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return err
		}
	}

	color, ok := statusColors[rec.Status]
	if !ok {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, rowIdx)
	last, _ := excelize.CoordinatesToCellName(len(columns), rowIdx)
	return f.SetCellStyle(sheetName, first, last, style)
}

func parseRow(row []string) types.TrackerRecord {
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	score, _ := strconv.Atoi(get(5))
	return types.TrackerRecord{
		JobID:           get(0),
		Title:           get(1),
		Company:         get(2),
		Location:        get(3),
		ApplyURL:        get(4),
		Score:           score,
		Strengths:       splitList(get(6)),
		Gaps:            splitList(get(7)),
		MissingKeywords: splitList(get(8)),
		ResumePath:      get(9),
		Status:          types.Status(get(10)),
		Strategy:        get(11),
		ScrapedAt:       parseTime(get(12)),
		AppliedAt:       parseTime(get(13)),
		Notes:           get(14),
	}
}

// headerTitle turns a snake_case column key into a spreadsheet header,
// "job_id" becoming "Job Id".
func headerTitle(col string) string {
	words := strings.Split(col, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func joinList(items []string) string {
	return strings.Join(items, "; ")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
