package classifier

import (
	"math"
	"math/rand/v2"
)

// splitStream separates the train/test shuffle from the per-tree random streams.
const splitStream = math.MaxUint64

// holdOut shuffles row indices with the seed and returns (train, test).
// The test share is ceil(n*fraction), but at least one row is always kept for training.
func holdOut(n int, fraction float64, seed uint64) (train, test []int) {
	perm := rand.New(rand.NewPCG(seed, splitStream)).Perm(n)
	nTest := int(math.Ceil(float64(n) * fraction))
	if nTest > n-1 {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}
	return perm[nTest:], perm[:nTest]
}
