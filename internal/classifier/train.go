package classifier

import (
	"context"
	"fmt"
	"slices"

	"github.com/ayusman/silexa/internal/dataset"
	"github.com/ayusman/silexa/internal/features"
)

// Result is the outcome of one Fit call.
type Result struct {
	Model     Model
	Accuracy  float64
	Labels    []string
	Report    Report
	TrainRows int
	TestRows  int
}

// Train fits a model on ds and measures its accuracy on the held-out rows.
func Train(ctx context.Context, ds *dataset.Dataset, p Params) (Model, float64, []string, error) {
	res, err := Fit(ctx, ds, p)
	if err != nil {
		return nil, 0, nil, err
	}
	return res.Model, res.Accuracy, res.Labels, nil
}

// Fit is Train with the full evaluation attached.
func Fit(ctx context.Context, ds *dataset.Dataset, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p = p.withDefaults()

	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", ErrInsufficientData)
	}
	classes := ds.Labels()
	if len(classes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 labels, have %d", ErrInsufficientData, len(classes))
	}

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	x := make([]features.Vector, ds.Len())
	y := make([]int, ds.Len())
	for i, ex := range ds.Examples {
		if err := ex.Validate(); err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
		x[i] = ex.Vector
		y[i] = index[ex.Label]
	}

	trainIdx, testIdx := holdOut(len(x), p.TestFraction, p.Seed)
	trainX, trainY := pick(x, y, trainIdx)
	testX, testY := pick(x, y, testIdx)

	var (
		model Model
		err   error
	)
	switch p.Kind {
	case KindCentroid:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		model = trainCentroid(trainX, trainY, classes)
	default:
		model, err = trainForest(ctx, trainX, trainY, classes, p)
		if err != nil {
			return nil, err
		}
	}

	truth := make([]string, len(testY))
	for i, cls := range testY {
		truth[i] = classes[cls]
	}
	report, err := Evaluate(model, testX, truth)
	if err != nil {
		return nil, err
	}

	return &Result{
		Model:     model,
		Accuracy:  report.Accuracy,
		Labels:    slices.Clone(classes),
		Report:    report,
		TrainRows: len(trainX),
		TestRows:  len(testX),
	}, nil
}

func pick(x []features.Vector, y []int, idx []int) ([]features.Vector, []int) {
	px := make([]features.Vector, len(idx))
	py := make([]int, len(idx))
	for i, j := range idx {
		px[i], py[i] = x[j], y[j]
	}
	return px, py
}
