package finance

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleWeights_SumsToOne(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for n := 1; n <= 12; n++ {
		for k := 0; k < 200; k++ {
			w, err := SampleWeights(rng, n)
			if err != nil {
				var degenerate *DegenerateSampleError
				require.ErrorAs(t, err, &degenerate)
				continue
			}
			require.Len(t, w, n)
			sum := 0.0
			for _, v := range w {
				sum += v
			}
			assert.InDelta(t, 1.0, sum, 1e-9, "n=%d", n)
		}
	}
}

func TestSampleWeights_AllowsShorts(t *testing.T) {
	w, err := SampleWeights(&constSource{vals: []float64{2, -0.5, 0.5}}, 3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, -0.25, 0.25}, w, 1e-12)
}

func TestSampleWeights_DegenerateSum(t *testing.T) {
	_, err := SampleWeights(&constSource{vals: []float64{1, -1}}, 2)
	var degenerate *DegenerateSampleError
	require.ErrorAs(t, err, &degenerate)
	assert.Equal(t, 0.0, degenerate.RawSum)
}

func TestSampleWeights_InvalidCount(t *testing.T) {
	_, err := SampleWeights(rand.New(rand.NewPCG(1, 1)), 0)
	assert.Error(t, err)
}

func TestNewTrialSource_Deterministic(t *testing.T) {
	a := NewTrialSource(42, 3)
	b := NewTrialSource(42, 3)
	c := NewTrialSource(42, 4)
	va, vb, vc := a.NormFloat64(), b.NormFloat64(), c.NormFloat64()
	assert.Equal(t, va, vb)
	assert.NotEqual(t, va, vc)
	assert.False(t, math.IsNaN(va))
}
