package classifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/ayusman/silexa/internal/features"
)

// node is one entry of a flattened decision tree. Leaves have Feature == -1
// and carry the class distribution of the training rows that reached them.
// Children always sit at higher indices than their parent.
type node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l,omitempty"`
	Right     int       `json:"r,omitempty"`
	Dist      []float64 `json:"d,omitempty"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// leaf walks the tree for v and returns the reached class distribution.
func (t *tree) leaf(v features.Vector) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Dist
		}
		if v[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (t *tree) validate(classes int) error {
	if len(t.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Feature < 0 {
			if len(n.Dist) != classes {
				return fmt.Errorf("node %d: distribution has %d classes, want %d", i, len(n.Dist), classes)
			}
			continue
		}
		if n.Feature >= features.Size {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

// treeBuilder grows one CART tree with Gini impurity.
type treeBuilder struct {
	x        []features.Vector
	y        []int
	nClasses int
	p        Params
	rng      *rand.Rand
	nodes    []node
}

func (b *treeBuilder) grow(ctx context.Context, rows []int, depth int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	idx := len(b.nodes)
	b.nodes = append(b.nodes, node{Feature: -1})

	counts := make([]float64, b.nClasses)
	for _, r := range rows {
		counts[b.y[r]]++
	}
	parent := gini(counts, float64(len(rows)))

	stop := parent == 0 ||
		len(rows) < b.p.MinSamplesSplit ||
		(b.p.MaxDepth > 0 && depth >= b.p.MaxDepth)

	var s split
	if !stop {
		s = b.bestSplit(rows, parent)
	}
	if stop || !s.ok {
		dist := counts
		for i := range dist {
			dist[i] /= float64(len(rows))
		}
		b.nodes[idx].Dist = dist
		return idx, nil
	}

	left := make([]int, 0, s.nLeft)
	right := make([]int, 0, len(rows)-s.nLeft)
	for _, r := range rows {
		if b.x[r][s.feature] <= s.threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	l, err := b.grow(ctx, left, depth+1)
	if err != nil {
		return 0, err
	}
	r, err := b.grow(ctx, right, depth+1)
	if err != nil {
		return 0, err
	}
	b.nodes[idx] = node{Feature: s.feature, Threshold: s.threshold, Left: l, Right: r}
	return idx, nil
}

type split struct {
	ok        bool
	feature   int
	threshold float64
	impurity  float64
	nLeft     int
}

func (b *treeBuilder) bestSplit(rows []int, parent float64) split {
	best := split{impurity: parent}
	n := float64(len(rows))
	sorted := make([]int, len(rows))
	left := make([]float64, b.nClasses)
	right := make([]float64, b.nClasses)

	for _, f := range b.rng.Perm(features.Size)[:b.p.MaxFeatures] {
		copy(sorted, rows)
		sort.Slice(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })

		for c := range left {
			left[c] = 0
			right[c] = 0
		}
		for _, r := range sorted {
			right[b.y[r]]++
		}

		for k := 0; k < len(sorted)-1; k++ {
			cls := b.y[sorted[k]]
			left[cls]++
			right[cls]--

			lo, hi := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			nl := k + 1
			nr := len(sorted) - nl
			if nl < b.p.MinSamplesLeaf || nr < b.p.MinSamplesLeaf {
				continue
			}

			impurity := (float64(nl)*gini(left, float64(nl)) + float64(nr)*gini(right, float64(nr))) / n
			if impurity < best.impurity-1e-12 {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = split{ok: true, feature: f, threshold: threshold, impurity: impurity, nLeft: nl}
			}
		}
	}
	return best
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := c / n
		sum += p * p
	}
	return 1 - sum
}
