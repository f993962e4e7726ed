// Package classifier trains, persists and serves gesture classification models.
//
// A Model is immutable once trained. The active model and its label set are
// published together through a Handle, which readers consult once per
// prediction and which is only ever replaced wholesale.
package classifier

import (
	"errors"

	"github.com/ayusman/silexa/internal/features"
)

var (
	// ErrArtifactMissing is returned by Load when no artifact exists at the path.
	ErrArtifactMissing = errors.New("model artifact missing")
	// ErrArtifactCorrupt is returned by Load when the artifact cannot be decoded.
	ErrArtifactCorrupt = errors.New("model artifact corrupt")
	// ErrInsufficientData is returned by Train for empty or single-label datasets.
	ErrInsufficientData = errors.New("insufficient training data")
	// ErrModelUnavailable is returned by Handle.Predict before any model is installed.
	ErrModelUnavailable = errors.New("model unavailable")
)

// FallbackConfidence is reported by models that cannot estimate class
// probabilities. Such predictions carry Probabilistic == false.
const FallbackConfidence = 1.0

// Model kinds.
const (
	KindForest   = "forest"
	KindCentroid = "centroid"
)

// Prediction is the outcome of classifying one feature vector.
type Prediction struct {
	Label         string  `json:"prediction"`
	Confidence    float64 `json:"confidence"`
	Probabilistic bool    `json:"probabilistic"`
}

// Model is a trained classifier. Implementations are safe for concurrent use.
type Model interface {
	// Kind names the model family, used as the artifact discriminator.
	Kind() string
	// Classes returns the sorted labels the model can emit.
	Classes() []string
	// Predict classifies v. It fails with a features.ShapeError for wrong-length input.
	Predict(v features.Vector) (Prediction, error)
}

// argmax returns the index of the largest value, preferring the lowest index on ties.
func argmax(xs []float64) int {
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

func checkInput(v features.Vector) error {
	if len(v) != features.Size {
		return &features.ShapeError{What: "feature vector length", Expected: features.Size, Actual: len(v)}
	}
	return nil
}
