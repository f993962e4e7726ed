package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/silexa/internal/landmark"
)

func TestVectorize_Order(t *testing.T) {
	points := make([]landmark.Point, landmark.Count)
	for i := range points {
		points[i] = landmark.Point{X: float64(i), Y: float64(i) + 0.5, Z: 99}
	}

	v, err := Vectorize(points)
	require.NoError(t, err)
	require.Len(t, v, Size)

	for i := 0; i < landmark.Count; i++ {
		assert.Equal(t, float64(i), v[2*i], "x%d", i)
		assert.Equal(t, float64(i)+0.5, v[2*i+1], "y%d", i)
	}
}

func TestVectorize_RejectsWrongCount(t *testing.T) {
	for _, n := range []int{0, 1, 20, 22, 42} {
		v, err := Vectorize(make([]landmark.Point, n))
		require.Error(t, err, "count %d", n)
		assert.Nil(t, v)
		assert.True(t, errors.Is(err, ErrShape))

		var se *ShapeError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, landmark.Count, se.Expected)
		assert.Equal(t, n, se.Actual)
	}
}

func TestFromHand_MatchesVectorize(t *testing.T) {
	hand := landmark.OpenPalm()

	fromHand := FromHand(&hand)
	fromSlice, err := Vectorize(hand.Slice())
	require.NoError(t, err)

	assert.Equal(t, fromSlice, fromHand)
	assert.Equal(t, hand.Points[landmark.PinkyTip].Y, fromHand[Size-1])
}

func TestValidate(t *testing.T) {
	ok := make([]float64, Size)
	assert.NoError(t, Validate(ok))

	err := Validate(make([]float64, 41))
	assert.ErrorIs(t, err, ErrShape)
	assert.Contains(t, err.Error(), "expected 42, got 41")

	bad := make([]float64, Size)
	bad[7] = math.NaN()
	assert.ErrorIs(t, Validate(bad), ErrNonFinite)

	bad[7] = math.Inf(-1)
	assert.ErrorIs(t, Validate(bad), ErrNonFinite)
}

func TestVector_Clone(t *testing.T) {
	v := Vector{1, 2, 3}
	c := v.Clone()
	c[0] = 9
	assert.Equal(t, 1.0, v[0])
	assert.Nil(t, Vector(nil).Clone())
}
