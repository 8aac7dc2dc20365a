package finance

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// NormalSource yields standard normal draws; *rand.Rand satisfies it.
type NormalSource interface {
	NormFloat64() float64
}

const degenerateSumTolerance = 1e-8

// NewTrialSource returns the deterministic random stream for one trial of a seeded batch.
// Streams for different trials are independent, so a batch can be split across workers
// without changing its output.
func NewTrialSource(seed uint64, trial int) NormalSource {
	return rand.New(rand.NewPCG(seed, uint64(trial)))
}

// SampleWeights draws n standard normal values and rescales them to sum to 1.
// Negative weights (shorts) are kept.
func SampleWeights(src NormalSource, n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("asset count must be >= 1, got %d", n)
	}
	w := make([]float64, n)
	sum := 0.0
	for i := range w {
		w[i] = src.NormFloat64()
		sum += w[i]
	}
	if math.Abs(sum) <= degenerateSumTolerance {
		return nil, &DegenerateSampleError{RawSum: sum}
	}
	for i := range w {
		w[i] /= sum
	}
	return w, nil
}
