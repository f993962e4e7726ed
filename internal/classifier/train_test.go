package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/silexa/internal/dataset"
	"github.com/ayusman/silexa/internal/features"
	"github.com/ayusman/silexa/testdata"
)

func constVector(val float64) features.Vector {
	v := make(features.Vector, features.Size)
	for i := range v {
		v[i] = val
	}
	return v
}

func smallParams() Params {
	p := DefaultParams()
	p.Trees = 15
	return p
}

func TestTrain_ThreeRowsTwoLabels(t *testing.T) {
	ds := &dataset.Dataset{Examples: []dataset.Example{
		{Vector: constVector(0.1), Label: "A"},
		{Vector: constVector(0.2), Label: "A"},
		{Vector: constVector(0.9), Label: "B"},
	}}

	model, acc, labels, err := Train(context.Background(), ds, smallParams())
	require.NoError(t, err)
	require.NotNil(t, model)
	assert.Equal(t, []string{"A", "B"}, labels)
	assert.GreaterOrEqual(t, acc, 0.0)
	assert.LessOrEqual(t, acc, 1.0)

	pred, err := model.Predict(constVector(0.15))
	require.NoError(t, err)
	assert.Contains(t, labels, pred.Label)
}

func TestTrain_InsufficientData(t *testing.T) {
	tests := []struct {
		name string
		ds   *dataset.Dataset
	}{
		{"nil", nil},
		{"empty", &dataset.Dataset{}},
		{"single label", &dataset.Dataset{Examples: []dataset.Example{
			{Vector: constVector(0.1), Label: "Hello"},
			{Vector: constVector(0.2), Label: "Hello"},
			{Vector: constVector(0.3), Label: "Hello"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := Train(context.Background(), tt.ds, smallParams())
			assert.ErrorIs(t, err, ErrInsufficientData)
		})
	}
}

func TestTrain_RejectsMalformedExample(t *testing.T) {
	ds := &dataset.Dataset{Examples: []dataset.Example{
		{Vector: constVector(0.1), Label: "A"},
		{Vector: constVector(0.2)[:41], Label: "B"},
	}}
	_, _, _, err := Train(context.Background(), ds, smallParams())
	assert.ErrorIs(t, err, features.ErrShape)
}

func TestTrain_UnknownKind(t *testing.T) {
	p := smallParams()
	p.Kind = "svm"
	_, _, _, err := Train(context.Background(), testdata.Dataset(5, 1), p)
	assert.Error(t, err)
}

func TestFit_SeparatesFixtureGestures(t *testing.T) {
	for _, kind := range []string{KindForest, KindCentroid} {
		t.Run(kind, func(t *testing.T) {
			p := smallParams()
			p.Kind = kind
			res, err := Fit(context.Background(), testdata.Dataset(20, 7), p)
			require.NoError(t, err)

			assert.Equal(t, testdata.Labels(), res.Labels)
			assert.Equal(t, 60, res.TrainRows+res.TestRows)
			assert.Equal(t, 12, res.TestRows)
			assert.GreaterOrEqual(t, res.Accuracy, 0.8)
			assert.Equal(t, res.Accuracy, res.Report.Accuracy)

			for _, label := range testdata.Labels() {
				pred, err := res.Model.Predict(testdata.Vector(label))
				require.NoError(t, err)
				assert.Equal(t, label, pred.Label)
			}
		})
	}
}

func TestFit_Deterministic(t *testing.T) {
	ds := testdata.Dataset(10, 3)

	p1 := smallParams()
	p1.Workers = 1
	p8 := smallParams()
	p8.Workers = 8

	a, err := Fit(context.Background(), ds, p1)
	require.NoError(t, err)
	b, err := Fit(context.Background(), ds, p8)
	require.NoError(t, err)

	assert.Equal(t, a.Model.(*Forest).trees, b.Model.(*Forest).trees)
	assert.Equal(t, a.Accuracy, b.Accuracy)

	p1.Seed = 99
	c, err := Fit(context.Background(), ds, p1)
	require.NoError(t, err)
	assert.NotEqual(t, a.Model.(*Forest).trees, c.Model.(*Forest).trees)
}

func TestFit_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fit(ctx, testdata.Dataset(10, 3), smallParams())
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestHoldOut(t *testing.T) {
	train, test := holdOut(10, 0.2, 42)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "index %d repeated", i)
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	train2, test2 := holdOut(10, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	// ceil(2*0.2) = 1 test row, one left for training
	train, test = holdOut(2, 0.2, 42)
	assert.Len(t, train, 1)
	assert.Len(t, test, 1)

	train, test = holdOut(3, 0.9, 42)
	assert.Len(t, train, 1)
	assert.Len(t, test, 2)
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())
	assert.NoError(t, Params{}.Validate())

	assert.Error(t, Params{Kind: "knn"}.Validate())
	assert.Error(t, Params{MaxDepth: -1}.Validate())
	assert.Error(t, Params{TestFraction: 1}.Validate())

	p := Params{}.withDefaults()
	assert.Equal(t, 6, p.MaxFeatures)
	assert.Equal(t, 100, p.Trees)
	assert.Equal(t, uint64(0), p.Seed)
	assert.Positive(t, p.Workers)
}
