package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/silexa/internal/features"
)

// Centroid classifies by the nearest per-class mean vector. It is a hard
// decision model: it reports FallbackConfidence instead of a probability.
type Centroid struct {
	classes []string
	means   []features.Vector // nil for classes absent from the training rows
}

var _ Model = (*Centroid)(nil)

// Kind implements Model.
func (c *Centroid) Kind() string { return KindCentroid }

// Classes implements Model.
func (c *Centroid) Classes() []string { return c.classes }

// Predict implements Model.
func (c *Centroid) Predict(v features.Vector) (Prediction, error) {
	if err := checkInput(v); err != nil {
		return Prediction{}, err
	}

	best, bestDist := -1, math.Inf(1)
	for i, mean := range c.means {
		if mean == nil {
			continue
		}
		if d := euclidean(v, mean); d < bestDist {
			best, bestDist = i, d
		}
	}
	return Prediction{Label: c.classes[best], Confidence: FallbackConfidence}, nil
}

// trainCentroid averages the training rows of every class.
func trainCentroid(x []features.Vector, y []int, classes []string) *Centroid {
	sums := make([]features.Vector, len(classes))
	counts := make([]int, len(classes))
	for i, v := range x {
		cls := y[i]
		if sums[cls] == nil {
			sums[cls] = make(features.Vector, features.Size)
		}
		for j, val := range v {
			sums[cls][j] += val
		}
		counts[cls]++
	}
	for cls, sum := range sums {
		for j := range sum {
			sum[j] /= float64(counts[cls])
		}
	}
	return &Centroid{classes: classes, means: sums}
}

func euclidean(a, b features.Vector) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

type centroidPayload struct {
	Means []features.Vector `json:"means"`
}

func (c *Centroid) payload() ([]byte, error) {
	return json.Marshal(centroidPayload{Means: c.means})
}

func decodeCentroid(classes []string, data []byte) (Model, error) {
	var p centroidPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if len(p.Means) != len(classes) {
		return nil, fmt.Errorf("centroid has %d means for %d classes", len(p.Means), len(classes))
	}
	present := 0
	for i, m := range p.Means {
		switch len(m) {
		case 0:
			p.Means[i] = nil
		case features.Size:
			present++
		default:
			return nil, fmt.Errorf("mean %d has %d features", i, len(m))
		}
	}
	if present == 0 {
		return nil, errors.New("centroid has no class means")
	}
	return &Centroid{classes: classes, means: p.Means}, nil
}
