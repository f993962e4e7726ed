// Package dataset stores labeled gesture examples in the append-only CSV file
// shared by data collection and training.
package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ayusman/silexa/internal/features"
)

var (
	// ErrStoreMissing is returned when no row has ever been written.
	ErrStoreMissing = errors.New("dataset store missing")
	// ErrInvalidLabel is returned for empty labels or labels spanning lines.
	ErrInvalidLabel = errors.New("invalid label")
)

// Example is one labeled feature vector. It is never modified after being written.
type Example struct {
	Vector features.Vector `json:"landmarks"`
	Label  string          `json:"label"`
}

// Validate checks the example against the row contract.
func (e Example) Validate() error {
	if err := features.Validate(e.Vector); err != nil {
		return err
	}
	return ValidateLabel(e.Label)
}

// ValidateLabel rejects labels that cannot be stored as the trailing CSV column.
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("%w: label is empty", ErrInvalidLabel)
	}
	if strings.ContainsAny(label, "\r\n") {
		return fmt.Errorf("%w: label contains a line break", ErrInvalidLabel)
	}
	return nil
}

// Dataset is an ordered collection of examples with a fixed feature count.
type Dataset struct {
	Examples []Example
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Examples)
}

// Labels returns the sorted set of distinct labels.
func (d *Dataset) Labels() []string {
	counts := d.Counts()
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Counts returns the number of examples per label.
func (d *Dataset) Counts() map[string]int {
	counts := make(map[string]int)
	if d == nil {
		return counts
	}
	for _, ex := range d.Examples {
		counts[ex.Label]++
	}
	return counts
}

// RowError locates a malformed row in the dataset file.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("dataset line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
