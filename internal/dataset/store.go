package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/silexa/internal/features"
)

// Store is the CSV-backed dataset. Rows are 42 numeric fields followed by the
// label, without a header. A single Store must own the file within a process.
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore returns a store for the file at path. The file is created on first append.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the dataset file.
func (s *Store) Path() string {
	return s.path
}

// Append durably writes one example. The row is on disk (fsync'd) when Append returns nil.
func (s *Store) Append(ex Example) error {
	if err := ex.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	record := make([]string, 0, features.Size+1)
	for _, x := range ex.Vector {
		record = append(record, strconv.FormatFloat(x, 'g', -1, 64))
	}
	record = append(record, ex.Label)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dataset directory: %w", err)
		}
	}

	_, statErr := os.Stat(s.path)
	created := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	// Files edited by hand may lack the final newline.
	needsNewline, err := missingTrailingNewline(f)
	if err != nil {
		return fmt.Errorf("inspect dataset: %w", err)
	}
	row := buf.Bytes()
	if needsNewline {
		row = append([]byte{'\n'}, row...)
	}

	if _, err := f.Write(row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync dataset: %w", err)
	}
	// A new file is only durable once its directory entry is.
	if created {
		if err := syncDir(filepath.Dir(s.path)); err != nil {
			return fmt.Errorf("sync dataset directory: %w", err)
		}
	}
	return nil
}

func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

func missingTrailingNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

// LoadAll reads every row. It returns ErrStoreMissing if the file does not
// exist or holds no rows, and a *RowError for the first malformed row.
func (s *Store) LoadAll() (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreMissing, s.path)
		}
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := decode(f)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", ErrStoreMissing, s.path)
	}
	return ds, nil
}

// Labels returns the sorted distinct labels currently in the store.
func (s *Store) Labels() ([]string, error) {
	ds, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	return ds.Labels(), nil
}

func decode(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	ds := &Dataset{}
	for first := true; ; first = false {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var line int
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.StartLine
			}
			return nil, &RowError{Line: line, Err: err}
		}
		line, _ := cr.FieldPos(0)

		ex, err := parseRecord(record)
		if err != nil {
			if first && isHeader(record) {
				log.Warn().Strs("header", record[:min(3, len(record))]).Msg("Skipping dataset header row")
				continue
			}
			return nil, &RowError{Line: line, Err: err}
		}
		ds.Examples = append(ds.Examples, ex)
	}
	return ds, nil
}

func parseRecord(record []string) (Example, error) {
	if len(record) != features.Size+1 {
		return Example{}, &features.ShapeError{What: "field count", Expected: features.Size + 1, Actual: len(record)}
	}
	v := make(features.Vector, features.Size)
	for i := 0; i < features.Size; i++ {
		x, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return Example{}, fmt.Errorf("field %d: %w", i, err)
		}
		v[i] = x
	}
	ex := Example{Vector: v, Label: record[features.Size]}
	if err := ex.Validate(); err != nil {
		return Example{}, err
	}
	return ex, nil
}

// isHeader recognizes the "0_x,0_y,...,label" row written by older collectors.
func isHeader(record []string) bool {
	if len(record) != features.Size+1 {
		return false
	}
	for _, field := range record[:features.Size] {
		if _, err := strconv.ParseFloat(field, 64); err == nil {
			return false
		}
	}
	return true
}
