package results

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"jordanella.com/rehearsal-bot/internal/logging"
	"jordanella.com/rehearsal-bot/internal/ocr"
)

var logger = logging.NewLogger("Results")

const (
	ResultsFile = "results.csv"
	RawFile     = "rehearsal_data.csv"

	// TimestampFormat is the capture time layout in results.csv
	TimestampFormat = "2006-01-02T15:04:05"
)

// Header is the first row of results.csv
var Header = []string{
	"iteration", "timestamp", "screenshot",
	"s1c1", "s1c2", "s1c3",
	"s2c1", "s2c2", "s2c3",
	"s3c1", "s3c2", "s3c3",
}

// Record is one extracted result screen
type Record struct {
	Iteration  int
	CapturedAt time.Time
	Screenshot string
	Scores     ocr.Grid
}

// Row renders the record as a results.csv row
func (r Record) Row() []string {
	row := []string{
		strconv.Itoa(r.Iteration),
		r.CapturedAt.Format(TimestampFormat),
		r.Screenshot,
	}
	return append(row, scoreFields(r.Scores)...)
}

func scoreFields(g ocr.Grid) []string {
	cells := g.Flatten()
	out := make([]string, len(cells))
	for i, v := range cells {
		out[i] = strconv.Itoa(v)
	}
	return out
}

// Store appends records to results.csv and the bare rehearsal_data.csv.
// Each append opens, writes, syncs and closes the file so a crash loses at
// most the row being written.
type Store struct {
	resultsPath string
	rawPath     string
	mu          sync.Mutex
	appended    int
}

// Open prepares both files in dir. A trailing partial row left by a crash is
// cut off. The header is written only when results.csv is missing or empty;
// existing complete rows are preserved.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	s := &Store{
		resultsPath: filepath.Join(dir, ResultsFile),
		rawPath:     filepath.Join(dir, RawFile),
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	for _, path := range []string{s.resultsPath, s.rawPath} {
		if err := trimPartialRow(path); err != nil {
			return err
		}
	}

	info, err := os.Stat(s.resultsPath)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", s.resultsPath, err)
	}
	return appendRows(s.resultsPath, [][]string{Header})
}

// ResultsPath returns the path of results.csv
func (s *Store) ResultsPath() string {
	return s.resultsPath
}

// RawPath returns the path of rehearsal_data.csv
func (s *Store) RawPath() string {
	return s.rawPath
}

// Appended returns the number of records written through this store
func (s *Store) Appended() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appended
}

// Append writes rec to both files
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := appendRows(s.resultsPath, [][]string{rec.Row()}); err != nil {
		return err
	}
	if err := appendRows(s.rawPath, [][]string{scoreFields(rec.Scores)}); err != nil {
		return err
	}
	s.appended++
	return nil
}

// trimPartialRow truncates path back to its last newline
func trimPartialRow(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 || data[len(data)-1] == '\n' {
		return nil
	}

	keep := int64(bytes.LastIndexByte(data, '\n') + 1)
	if err := os.Truncate(path, keep); err != nil {
		return fmt.Errorf("failed to truncate partial row in %s: %w", path, err)
	}
	logger.WarnWithContext("Dropped partial row", map[string]interface{}{
		"path":  path,
		"bytes": int64(len(data)) - keep,
	})
	return nil
}

func appendRows(path string, rows [][]string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s for append: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	return f.Close()
}

// ReadRecords loads every row of a results.csv file
func ReadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []Record
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == Header[0] {
			continue
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (Record, error) {
	if len(row) != len(Header) {
		return Record{}, fmt.Errorf("expected %d fields, got %d", len(Header), len(row))
	}

	iteration, err := strconv.Atoi(row[0])
	if err != nil {
		return Record{}, fmt.Errorf("bad iteration %q", row[0])
	}
	at, err := time.ParseInLocation(TimestampFormat, row[1], time.Local)
	if err != nil {
		return Record{}, fmt.Errorf("bad timestamp %q", row[1])
	}

	rec := Record{Iteration: iteration, CapturedAt: at, Screenshot: row[2]}
	for i, cell := range row[3:] {
		v, err := strconv.Atoi(cell)
		if err != nil {
			return Record{}, fmt.Errorf("bad score %q", cell)
		}
		rec.Scores[i/ocr.Criteria][i%ocr.Criteria] = v
	}
	return rec, nil
}
