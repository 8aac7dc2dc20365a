package finance

import "time"

// ReturnTable is a time-indexed set of periodic fractional returns, one column per asset.
// Rows[t][i] is the return of Assets[i] over period Times[t].
type ReturnTable struct {
	Assets   []string
	Times    []time.Time
	Rows     [][]float64
	RiskFree []float64 // Periodic risk-free rate aligned to Times (optional)
}

// TrialResult describes one simulated portfolio
type TrialResult struct {
	Weights    []float64
	Return     float64 // Annualized return
	Volatility float64 // Annualized volatility
	Sharpe     float64
}

// SimulationOutput holds the parallel sequences produced by one Simulate call.
// Index i of every slice describes the same trial.
type SimulationOutput struct {
	Assets       []string
	Weights      [][]float64
	Returns      []float64
	Volatilities []float64
	Sharpes      []float64
	Redraws      int // Degenerate draws replaced during the batch
}

// SimConfig holds the explicit parameters of a simulation batch
type SimConfig struct {
	Trials       int
	RiskFreeRate float64 // Already annualized
	Frequency    Frequency
	Seed         uint64
	Workers      int // <= 1 runs sequentially
	MaxRedraws   int // Extra draws allowed per trial after a degenerate sample

	// NewSource overrides the per-trial random stream (defaults to PCG seeded with Seed and the trial index)
	NewSource func(trial int) NormalSource
}

// Ranking is the aggregated view over one SimulationOutput
type Ranking struct {
	TopIndices    []int // Ascending by Sharpe, best last
	TopWeights    [][]float64
	TopSharpes    []float64
	TopReturns    []float64
	MedianWeights []float64

	BestIndex      int
	BestWeights    []float64
	BestReturn     float64
	BestVolatility float64
	BestSharpe     float64
}

// Validation is the out-of-sample score of one weight vector
type Validation struct {
	AnnualReturn     float64
	AnnualVolatility float64
	SharpeRatio      float64
	RiskFreeRate     float64 // Annualized rate the Sharpe ratio was measured against
	Times            []time.Time
	Cumulative       []float64 // Running product of (1 + weighted return)
	MaxDrawdown      float64   // Fraction, not percentage
}

// WeightedAsset represents an asset with its weight in a user-supplied allocation
type WeightedAsset struct {
	Symbol string
	Weight float64
}
