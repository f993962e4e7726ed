// Package features turns hand landmarks into the fixed-length vectors the classifier consumes.
package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/silexa/internal/landmark"
)

// Dims is the number of coordinates kept per landmark (x and y).
const Dims = 2

// Size is the length of every feature vector: x0,y0,x1,y1,...,x20,y20.
const Size = landmark.Count * Dims

// Vector is a flattened landmark set.
type Vector []float64

var (
	// ErrShape matches any *ShapeError via errors.Is.
	ErrShape = errors.New("shape mismatch")
	// ErrNonFinite is returned for vectors containing NaN or Inf.
	ErrNonFinite = errors.New("feature vector contains a non-finite value")
)

// ShapeError reports an input whose length does not match the feature contract.
type ShapeError struct {
	What     string
	Expected int
	Actual   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", e.What, e.Expected, e.Actual)
}

// Is lets callers test with errors.Is(err, ErrShape).
func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}

// Vectorize flattens exactly landmark.Count points into a Vector.
// Any other count is rejected; the input is never padded or truncated.
func Vectorize(points []landmark.Point) (Vector, error) {
	if len(points) != landmark.Count {
		return nil, &ShapeError{What: "landmark count", Expected: landmark.Count, Actual: len(points)}
	}
	v := make(Vector, 0, Size)
	for _, p := range points {
		v = append(v, p.X, p.Y)
	}
	return v, nil
}

// FromHand vectorizes a detector hand. It cannot fail because Hand holds a fixed-size array.
func FromHand(h *landmark.Hand) Vector {
	v := make(Vector, 0, Size)
	for _, p := range h.Points {
		v = append(v, p.X, p.Y)
	}
	return v
}

// Validate checks a raw vector received from outside the process.
func Validate(v []float64) error {
	if len(v) != Size {
		return &ShapeError{What: "feature vector length", Expected: Size, Actual: len(v)}
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
	}
	return nil
}

// Clone returns an independent copy.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}
