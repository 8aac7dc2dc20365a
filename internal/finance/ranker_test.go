package finance

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticOutput(sharpes []float64) *SimulationOutput {
	out := &SimulationOutput{
		Weights:      make([][]float64, len(sharpes)),
		Returns:      make([]float64, len(sharpes)),
		Volatilities: make([]float64, len(sharpes)),
		Sharpes:      sharpes,
	}
	for i := range sharpes {
		out.Weights[i] = []float64{float64(i), 1 - float64(i)}
		out.Returns[i] = float64(i) / 100
		out.Volatilities[i] = 0.1
	}
	return out
}

func TestRank_TopKOutranksTheRest(t *testing.T) {
	table := wavyTable(60, 4)
	out, err := Simulate(table, SimConfig{Trials: 2000, Frequency: FrequencyMonthly, Seed: 8})
	require.NoError(t, err)

	r, err := Rank(out, 100)
	require.NoError(t, err)
	require.Len(t, r.TopIndices, 100)
	require.Len(t, r.TopWeights, 100)
	require.Len(t, r.TopSharpes, 100)
	require.Len(t, r.TopReturns, 100)

	selected := make(map[int]bool)
	minSelected := r.TopSharpes[0]
	for i, idx := range r.TopIndices {
		selected[idx] = true
		assert.Equal(t, out.Sharpes[idx], r.TopSharpes[i])
		assert.Equal(t, out.Returns[idx], r.TopReturns[i])
		if i > 0 {
			assert.LessOrEqual(t, r.TopSharpes[i-1], r.TopSharpes[i])
		}
	}
	for i, s := range out.Sharpes {
		if !selected[i] {
			assert.LessOrEqual(t, s, minSelected)
		}
	}
}

func TestRank_BestIsGlobalMaximum(t *testing.T) {
	table := wavyTable(60, 4)
	out, err := Simulate(table, SimConfig{Trials: 1000, Frequency: FrequencyMonthly, Seed: 12})
	require.NoError(t, err)

	r, err := Rank(out, 10)
	require.NoError(t, err)

	maxSharpe := out.Sharpes[0]
	for _, s := range out.Sharpes {
		if s > maxSharpe {
			maxSharpe = s
		}
	}
	assert.Equal(t, maxSharpe, r.BestSharpe)
	assert.Equal(t, out.Weights[r.BestIndex], r.BestWeights)
	assert.Equal(t, out.Volatilities[r.BestIndex], r.BestVolatility)
	assert.Equal(t, r.BestIndex, r.TopIndices[len(r.TopIndices)-1])
}

func TestRank_TiesPreferLaterTrialsInCut(t *testing.T) {
	out := syntheticOutput([]float64{1, 2, 2, 2, 0.5})

	r, err := Rank(out, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, r.TopIndices)
	// argmax keeps the first maximal index
	assert.Equal(t, 1, r.BestIndex)
}

func TestRank_ClampsTopK(t *testing.T) {
	r, err := Rank(syntheticOutput([]float64{0.3, 0.1, 0.2}), 100)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, r.TopIndices)

	_, err = Rank(syntheticOutput([]float64{0.3}), 0)
	assert.Error(t, err)
	_, err = Rank(&SimulationOutput{}, 5)
	assert.Error(t, err)
}

func TestMedianWeights(t *testing.T) {
	odd := [][]float64{{0.1, 0.9}, {0.5, 0.5}, {0.3, 0.7}}
	assert.InDeltaSlice(t, []float64{0.3, 0.7}, MedianWeights(odd), 1e-12)

	even := [][]float64{{0.1, 0.9}, {0.5, 0.5}, {0.3, 0.7}, {-0.2, 1.2}}
	assert.InDeltaSlice(t, []float64{0.2, 0.8}, MedianWeights(even), 1e-12)

	assert.Nil(t, MedianWeights(nil))
}

func TestMedianWeights_PermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	weights := make([][]float64, 101)
	for i := range weights {
		w, err := SampleWeights(rng, 4)
		require.NoError(t, err)
		weights[i] = w
	}
	want := MedianWeights(weights)

	for k := 0; k < 5; k++ {
		shuffled := make([][]float64, len(weights))
		copy(shuffled, weights)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, MedianWeights(shuffled))
	}
}
