package finance

import (
	"fmt"
	"sort"
)

// Rank selects the topK trials by Sharpe ratio, their componentwise median weights and the single best trial.
//
// Indices are stable-sorted ascending by Sharpe and the last topK are kept, so among equal
// Sharpe ratios later trials win the cut. The best trial is the first index holding the maximum.
// A topK larger than the output is clamped to the output size.
func Rank(out *SimulationOutput, topK int) (*Ranking, error) {
	if out == nil || out.Len() == 0 {
		return nil, fmt.Errorf("no simulation output to rank")
	}
	if topK < 1 {
		return nil, fmt.Errorf("top-k must be >= 1, got %d", topK)
	}
	m := out.Len()
	if topK > m {
		topK = m
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return out.Sharpes[order[a]] < out.Sharpes[order[b]]
	})
	top := order[m-topK:]

	r := &Ranking{
		TopIndices: make([]int, topK),
		TopWeights: make([][]float64, topK),
		TopSharpes: make([]float64, topK),
		TopReturns: make([]float64, topK),
	}
	copy(r.TopIndices, top)
	for i, idx := range top {
		r.TopWeights[i] = out.Weights[idx]
		r.TopSharpes[i] = out.Sharpes[idx]
		r.TopReturns[i] = out.Returns[idx]
	}
	r.MedianWeights = MedianWeights(r.TopWeights)

	best := 0
	for i := 1; i < m; i++ {
		if out.Sharpes[i] > out.Sharpes[best] {
			best = i
		}
	}
	r.BestIndex = best
	r.BestWeights = out.Weights[best]
	r.BestReturn = out.Returns[best]
	r.BestVolatility = out.Volatilities[best]
	r.BestSharpe = out.Sharpes[best]

	return r, nil
}

// MedianWeights returns the per-asset median across weight vectors.
// With an even count the two middle values are averaged.
func MedianWeights(weights [][]float64) []float64 {
	if len(weights) == 0 {
		return nil
	}
	n := len(weights[0])
	out := make([]float64, n)
	col := make([]float64, len(weights))
	for j := 0; j < n; j++ {
		for i, w := range weights {
			col[i] = w[j]
		}
		out[j] = median(col)
	}
	return out
}

// median sorts vals in place
func median(vals []float64) float64 {
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}
