// Package testdata generates deterministic synthetic gestures for tests.
package testdata

import (
	"math/rand/v2"
	"sort"

	"github.com/ayusman/silexa/internal/dataset"
	"github.com/ayusman/silexa/internal/features"
	"github.com/ayusman/silexa/internal/landmark"
)

// Gestures maps fixture labels to their preset hands.
var Gestures = map[string]func() landmark.Hand{
	"fist":      landmark.Fist,
	"open_palm": landmark.OpenPalm,
	"thumbs_up": landmark.ThumbsUp,
}

// Labels returns the fixture labels in sorted order.
func Labels() []string {
	labels := make([]string, 0, len(Gestures))
	for l := range Gestures {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Jitter returns n copies of h with uniform noise of at most +-noise on every
// coordinate and a small random translation, like a hand held in front of a camera.
func Jitter(h landmark.Hand, n int, noise float64, seed uint64) []landmark.Hand {
	rng := rand.New(rand.NewPCG(seed, 0x5eed))
	out := make([]landmark.Hand, n)
	for i := range out {
		shifted := h.Shift((rng.Float64()-0.5)*noise*4, (rng.Float64()-0.5)*noise*4)
		for j := range shifted.Points {
			shifted.Points[j].X += (rng.Float64()*2 - 1) * noise
			shifted.Points[j].Y += (rng.Float64()*2 - 1) * noise
		}
		out[i] = shifted
	}
	return out
}

// Vector returns the feature vector of the named preset without noise.
func Vector(label string) features.Vector {
	h := Gestures[label]()
	return features.FromHand(&h)
}

// Dataset builds perLabel jittered examples for each of the given labels
// (all fixture labels when none are given), interleaved label by label.
func Dataset(perLabel int, seed uint64, labels ...string) *dataset.Dataset {
	if len(labels) == 0 {
		labels = Labels()
	}
	samples := make([][]landmark.Hand, len(labels))
	for i, l := range labels {
		samples[i] = Jitter(Gestures[l](), perLabel, 0.01, seed+uint64(i))
	}

	ds := &dataset.Dataset{}
	for n := 0; n < perLabel; n++ {
		for i, l := range labels {
			ds.Examples = append(ds.Examples, dataset.Example{
				Vector: features.FromHand(&samples[i][n]),
				Label:  l,
			})
		}
	}
	return ds
}

// Fill appends every example of ds to s.
func Fill(s *dataset.Store, ds *dataset.Dataset) error {
	for _, ex := range ds.Examples {
		if err := s.Append(ex); err != nil {
			return err
		}
	}
	return nil
}
