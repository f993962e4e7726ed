package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/ayusman/silexa/internal/features"
)

// Forest is a random forest of CART trees. Predict averages the leaf class
// distributions of all trees, so confidence is a real probability estimate.
type Forest struct {
	classes []string
	trees   []*tree
}

var _ Model = (*Forest)(nil)

// Kind implements Model.
func (f *Forest) Kind() string { return KindForest }

// Classes implements Model.
func (f *Forest) Classes() []string { return f.classes }

// Predict implements Model.
func (f *Forest) Predict(v features.Vector) (Prediction, error) {
	proba, err := f.Probabilities(v)
	if err != nil {
		return Prediction{}, err
	}
	best := argmax(proba)
	return Prediction{Label: f.classes[best], Confidence: proba[best], Probabilistic: true}, nil
}

// Probabilities returns the averaged class distribution, indexed like Classes.
func (f *Forest) Probabilities(v features.Vector) ([]float64, error) {
	if err := checkInput(v); err != nil {
		return nil, err
	}
	proba := make([]float64, len(f.classes))
	for _, t := range f.trees {
		for c, p := range t.leaf(v) {
			proba[c] += p
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.trees))
	}
	return proba, nil
}

// trainForest grows p.Trees trees concurrently. Every tree draws from its own
// PCG stream keyed by (Seed, tree index), so the result does not depend on scheduling.
func trainForest(ctx context.Context, x []features.Vector, y []int, classes []string, p Params) (*Forest, error) {
	trees := make([]*tree, p.Trees)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for t := 0; t < p.Trees; t++ {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(p.Seed, uint64(t)))

			rows := make([]int, len(x))
			for i := range rows {
				rows[i] = rng.IntN(len(x))
			}

			b := &treeBuilder{x: x, y: y, nClasses: len(classes), p: p, rng: rng}
			if _, err := b.grow(gctx, rows, 0); err != nil {
				return err
			}
			trees[t] = &tree{Nodes: b.nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Forest{classes: classes, trees: trees}, nil
}

type forestPayload struct {
	Trees []*tree `json:"trees"`
}

func (f *Forest) payload() ([]byte, error) {
	return json.Marshal(forestPayload{Trees: f.trees})
}

func decodeForest(classes []string, data []byte) (Model, error) {
	var p forestPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if len(p.Trees) == 0 {
		return nil, errors.New("forest has no trees")
	}
	for i, t := range p.Trees {
		if t == nil {
			return nil, fmt.Errorf("tree %d is null", i)
		}
		if err := t.validate(len(classes)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &Forest{classes: classes, trees: p.Trees}, nil
}
