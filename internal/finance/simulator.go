package finance

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultMaxRedraws is how many extra draws a trial gets after a degenerate sample
const DefaultMaxRedraws = 8

// Simulate scores cfg.Trials random portfolios over the table. For every trial it draws a
// weight vector, annualizes the weighted mean return and the covariance with the frequency
// scale, and computes the Sharpe ratio against cfg.RiskFreeRate.
//
// The batch is atomic: the first failing trial (lowest index) aborts it with a *TrialError
// and no partial output is returned.
func Simulate(t *ReturnTable, cfg SimConfig) (*SimulationOutput, error) {
	scale, err := cfg.Frequency.Scale()
	if err != nil {
		return nil, err
	}
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("trial count must be >= 1, got %d", cfg.Trials)
	}
	m, err := ColumnMoments(t)
	if err != nil {
		return nil, err
	}

	n := t.NumAssets()
	out := &SimulationOutput{
		Assets:       t.Assets,
		Weights:      make([][]float64, cfg.Trials),
		Returns:      make([]float64, cfg.Trials),
		Volatilities: make([]float64, cfg.Trials),
		Sharpes:      make([]float64, cfg.Trials),
	}

	newSource := cfg.NewSource
	if newSource == nil {
		seed := cfg.Seed
		newSource = func(trial int) NormalSource { return NewTrialSource(seed, trial) }
	}
	maxRedraws := cfg.MaxRedraws
	if maxRedraws <= 0 {
		maxRedraws = DefaultMaxRedraws
	}
	annualCov := m.scaledCov(scale)

	// runRange fills trials [lo, hi) and returns the number of redraws it needed
	runRange := func(lo, hi int) (int, error) {
		redraws := 0
		for i := lo; i < hi; i++ {
			src := newSource(i)
			w, err := SampleWeights(src, n)
			for attempt := 0; attempt < maxRedraws && isDegenerate(err); attempt++ {
				redraws++
				w, err = SampleWeights(src, n)
			}
			if err != nil {
				return redraws, &TrialError{Trial: i, Err: err}
			}

			annualReturn := m.expectedReturn(w) * scale
			annualVolatility := quadraticVolatility(annualCov, w)
			sharpe, err := sharpeRatio(annualReturn, annualVolatility, cfg.RiskFreeRate)
			if err != nil {
				return redraws, &TrialError{Trial: i, Err: err}
			}

			out.Weights[i] = w
			out.Returns[i] = annualReturn
			out.Volatilities[i] = annualVolatility
			out.Sharpes[i] = sharpe
		}
		return redraws, nil
	}

	workers := cfg.Workers
	if workers > cfg.Trials {
		workers = cfg.Trials
	}
	if workers <= 1 {
		redraws, err := runRange(0, cfg.Trials)
		if err != nil {
			return nil, err
		}
		out.Redraws = redraws
		return out, nil
	}

	// Each worker owns a contiguous chunk of trial indices
	chunk := (cfg.Trials + workers - 1) / workers
	errs := make([]error, workers)
	redraws := make([]int, workers)
	var wg sync.WaitGroup
	for k := 0; k < workers; k++ {
		lo := k * chunk
		hi := lo + chunk
		if hi > cfg.Trials {
			hi = cfg.Trials
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(k, lo, hi int) {
			defer wg.Done()
			redraws[k], errs[k] = runRange(lo, hi)
		}(k, lo, hi)
	}
	wg.Wait()

	// Chunks are ordered, so the first error is the lowest failing trial
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	for _, r := range redraws {
		out.Redraws += r
	}
	return out, nil
}

// Len returns the number of trials in the output
func (o *SimulationOutput) Len() int {
	return len(o.Sharpes)
}

// Trial returns the record for trial i
func (o *SimulationOutput) Trial(i int) TrialResult {
	return TrialResult{
		Weights:    o.Weights[i],
		Return:     o.Returns[i],
		Volatility: o.Volatilities[i],
		Sharpe:     o.Sharpes[i],
	}
}

func isDegenerate(err error) bool {
	var degenerate *DegenerateSampleError
	return errors.As(err, &degenerate)
}
