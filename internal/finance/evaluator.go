package finance

import "fmt"

// EvaluatePortfolio returns the raw per-period expected return and volatility of weights over the table.
// No annualization is applied.
func EvaluatePortfolio(t *ReturnTable, weights []float64) (mu, sigma float64, err error) {
	m, err := ColumnMoments(t)
	if err != nil {
		return 0, 0, err
	}
	if len(weights) != len(m.Means) {
		return 0, 0, fmt.Errorf("weights (%d) don't match assets (%d)", len(weights), len(m.Means))
	}
	return m.expectedReturn(weights), quadraticVolatility(m.Cov, weights), nil
}
