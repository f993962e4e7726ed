package classifier

import (
	"fmt"
	"math"
	"runtime"

	"github.com/ayusman/silexa/internal/features"
)

// Params controls training. The zero value of each field selects its default.
type Params struct {
	Kind            string  // KindForest or KindCentroid
	Trees           int     // forest size
	MaxDepth        int     // 0 means unbounded
	MinSamplesSplit int     // minimum rows needed to split a node
	MinSamplesLeaf  int     // minimum rows on each side of a split
	MaxFeatures     int     // candidate features per split; 0 means sqrt(features)
	Seed            uint64  // drives the split and every tree
	TestFraction    float64 // share of rows held out for accuracy
	Workers         int     // concurrent tree builders; 0 means GOMAXPROCS
}

// DefaultParams returns a 100-tree forest trained on an 80/20 split with seed 42.
func DefaultParams() Params {
	return Params{
		Kind:            KindForest,
		Trees:           100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            42,
		TestFraction:    0.2,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Kind == "" {
		p.Kind = d.Kind
	}
	if p.Trees <= 0 {
		p.Trees = d.Trees
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = d.MinSamplesSplit
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = d.MinSamplesLeaf
	}
	if p.MaxFeatures <= 0 || p.MaxFeatures > features.Size {
		p.MaxFeatures = int(math.Sqrt(features.Size))
	}
	if p.TestFraction <= 0 || p.TestFraction >= 1 {
		p.TestFraction = d.TestFraction
	}
	if p.Workers <= 0 {
		p.Workers = runtime.GOMAXPROCS(0)
	}
	return p
}

// Validate reports parameter combinations that cannot train.
func (p Params) Validate() error {
	switch p.Kind {
	case "", KindForest, KindCentroid:
	default:
		return fmt.Errorf("unknown model kind %q", p.Kind)
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", p.MaxDepth)
	}
	if p.TestFraction < 0 || p.TestFraction >= 1 {
		return fmt.Errorf("test fraction must be in [0,1), got %g", p.TestFraction)
	}
	return nil
}
