// Package modelselection partitions rows into training and test sets.
package modelselection

import (
	"math"
	"math/rand/v2"

	finErrors "github.com/ezoic/finml/pkg/errors"
)

// Test ratio bounds and defaults.
const (
	MinTestSize     = 0.1
	MaxTestSize     = 0.5
	DefaultTestSize = 0.3
	DefaultSeed     = 42
)

// Split holds row indices into the partitioned table.
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit shuffles the row indices 0..n-1 with a PCG generator seeded
// by seed and puts the first ceil(testSize*n) of them in the test set. The
// same n, testSize and seed always produce the same split.
func TrainTestSplit(n int, testSize float64, seed uint64) (Split, error) {
	if math.IsNaN(testSize) || testSize < MinTestSize || testSize > MaxTestSize {
		return Split{}, finErrors.NewValidationError("test_size", "must be between 0.1 and 0.5", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return Split{}, finErrors.NewValueError("modelselection.TrainTestSplit",
			"not enough rows to split: need at least one training and one test row")
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)
	return Split{Test: perm[:nTest], Train: perm[nTest:]}, nil
}
