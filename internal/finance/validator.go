package finance

import (
	"fmt"
	"math"
)

// Validate scores weights on a held-out table. Returns are annualized with scale (OutOfSampleScale
// unless the caller chooses otherwise), volatility with sqrt(scale), and the Sharpe ratio is measured
// against the table's own annualized risk-free rate.
func Validate(test *ReturnTable, weights []float64, scale float64) (*Validation, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("annualization scale must be positive, got %f", scale)
	}
	m, err := ColumnMoments(test)
	if err != nil {
		return nil, err
	}
	if len(weights) != len(m.Means) {
		return nil, fmt.Errorf("weights (%d) don't match assets (%d)", len(weights), len(m.Means))
	}

	annualReturn := m.expectedReturn(weights) * scale
	annualVolatility := quadraticVolatility(m.Cov, weights) * math.Sqrt(scale)
	riskFree := test.AnnualizedRiskFree(scale)
	sharpe, err := sharpeRatio(annualReturn, annualVolatility, riskFree)
	if err != nil {
		return nil, err
	}

	curve, err := CumulativeReturns(test, weights)
	if err != nil {
		return nil, err
	}

	v := &Validation{
		AnnualReturn:     annualReturn,
		AnnualVolatility: annualVolatility,
		SharpeRatio:      sharpe,
		RiskFreeRate:     riskFree,
		Times:            test.Times,
		Cumulative:       curve,
		MaxDrawdown:      calculateMaxDrawdown(curve),
	}
	if math.IsNaN(v.AnnualReturn) || math.IsInf(v.AnnualReturn, 0) {
		return nil, fmt.Errorf("invalid annual return: %f", v.AnnualReturn)
	}
	if math.IsNaN(v.SharpeRatio) || math.IsInf(v.SharpeRatio, 0) {
		return nil, fmt.Errorf("invalid Sharpe ratio: %f", v.SharpeRatio)
	}
	return v, nil
}

// CumulativeReturns compounds the weighted per-period returns: curve[t] = Π(1 + r_s) for s <= t.
func CumulativeReturns(t *ReturnTable, weights []float64) ([]float64, error) {
	rets, err := t.PortfolioReturns(weights)
	if err != nil {
		return nil, err
	}
	curve := make([]float64, len(rets))
	acc := 1.0
	for i, r := range rets {
		acc *= 1 + r
		curve[i] = acc
	}
	return curve, nil
}
