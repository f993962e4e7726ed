package classifier

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/silexa/internal/features"
	"github.com/ayusman/silexa/testdata"
)

func trainedForest(t *testing.T) *Forest {
	t.Helper()
	res, err := Fit(context.Background(), testdata.Dataset(10, 11), smallParams())
	require.NoError(t, err)
	return res.Model.(*Forest)
}

func TestForest_PredictWrongLength(t *testing.T) {
	f := trainedForest(t)

	for _, n := range []int{0, 41, 43, 63} {
		_, err := f.Predict(make(features.Vector, n))
		require.Error(t, err)
		assert.ErrorIs(t, err, features.ErrShape)

		var shapeErr *features.ShapeError
		require.True(t, errors.As(err, &shapeErr))
		assert.Equal(t, 42, shapeErr.Expected)
		assert.Equal(t, n, shapeErr.Actual)
	}
}

func TestForest_ProbabilitiesSumToOne(t *testing.T) {
	f := trainedForest(t)

	for _, label := range testdata.Labels() {
		proba, err := f.Probabilities(testdata.Vector(label))
		require.NoError(t, err)
		require.Len(t, proba, len(f.Classes()))

		var sum float64
		for _, p := range proba {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)

		pred, err := f.Predict(testdata.Vector(label))
		require.NoError(t, err)
		assert.True(t, pred.Probabilistic)
		assert.Equal(t, proba[argmax(proba)], pred.Confidence)
	}
}

func TestCentroid_NearestMean(t *testing.T) {
	classes := []string{"A", "B", "C"}
	x := []features.Vector{constVector(0.1), constVector(0.3), constVector(0.8)}
	y := []int{0, 0, 1}
	c := trainCentroid(x, y, classes)

	pred, err := c.Predict(constVector(0.25))
	require.NoError(t, err)
	assert.Equal(t, "A", pred.Label)
	assert.Equal(t, FallbackConfidence, pred.Confidence)
	assert.False(t, pred.Probabilistic)

	// C never appeared in training and can never be predicted
	pred, err = c.Predict(constVector(5))
	require.NoError(t, err)
	assert.Equal(t, "B", pred.Label)
}

func TestArgmax_TiesPreferLowestIndex(t *testing.T) {
	assert.Equal(t, 0, argmax([]float64{0.5, 0.5}))
	assert.Equal(t, 1, argmax([]float64{0.2, 0.4, 0.4}))
	assert.Equal(t, 2, argmax([]float64{0, 0.1, 0.9}))
}

func TestGini(t *testing.T) {
	assert.Equal(t, 0.0, gini([]float64{4, 0}, 4))
	assert.InDelta(t, 0.5, gini([]float64{2, 2}, 4), 1e-12)
	assert.InDelta(t, 1-1.0/3, gini([]float64{1, 1, 1}, 3), 1e-12)
}

type fixedModel struct{ label string }

func (m fixedModel) Kind() string      { return "fixed" }
func (m fixedModel) Classes() []string { return []string{m.label} }
func (m fixedModel) Predict(v features.Vector) (Prediction, error) {
	if err := checkInput(v); err != nil {
		return Prediction{}, err
	}
	return Prediction{Label: m.label, Confidence: FallbackConfidence}, nil
}

func TestEvaluate(t *testing.T) {
	x := []features.Vector{constVector(0), constVector(0), constVector(0), constVector(0)}
	truth := []string{"A", "A", "A", "B"}

	r, err := Evaluate(fixedModel{"A"}, x, truth)
	require.NoError(t, err)
	assert.Equal(t, 0.75, r.Accuracy)
	assert.Equal(t, 4, r.Samples)
	require.Len(t, r.Classes, 2)

	a := r.Classes[0]
	assert.Equal(t, "A", a.Label)
	assert.Equal(t, 0.75, a.Precision)
	assert.Equal(t, 1.0, a.Recall)
	assert.InDelta(t, 2*0.75/1.75, a.F1, 1e-12)
	assert.Equal(t, 3, a.Support)

	b := r.Classes[1]
	assert.Equal(t, ClassReport{Label: "B", Support: 1}, b)
	assert.Contains(t, r.String(), "accuracy")

	empty, err := Evaluate(fixedModel{"A"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty.Accuracy)
	assert.False(t, math.IsNaN(empty.Accuracy))

	_, err = Evaluate(fixedModel{"A"}, x, truth[:2])
	assert.Error(t, err)
}
