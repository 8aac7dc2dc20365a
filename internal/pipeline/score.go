package pipeline

import (
	"fmt"

	"portfolioSim/internal/finance"
)

// ScoreResult is a user-supplied allocation measured on both windows
type ScoreResult struct {
	Assets  []string
	Weights []float64

	// Raw per-period statistics over the training window
	InSampleMean       float64
	InSampleVolatility float64

	OutOfSample *finance.Validation
}

// Score evaluates fixed weights: raw moments in-sample, annualized metrics out-of-sample.
func Score(table *finance.ReturnTable, weights []float64, p Params) (*ScoreResult, error) {
	if p.OOSScale <= 0 {
		p.OOSScale = finance.OutOfSampleScale
	}
	train, test, err := finance.SplitChronological(table, p.TrainFraction)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	mu, sigma, err := finance.EvaluatePortfolio(train, weights)
	if err != nil {
		return nil, fmt.Errorf("in-sample: %w", err)
	}
	oos, err := finance.Validate(test, weights, p.OOSScale)
	if err != nil {
		return nil, fmt.Errorf("out-of-sample: %w", err)
	}
	return &ScoreResult{
		Assets:             table.Assets,
		Weights:            weights,
		InSampleMean:       mu,
		InSampleVolatility: sigma,
		OutOfSample:        oos,
	}, nil
}
