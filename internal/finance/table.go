package finance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Len returns the number of periods in the table
func (t *ReturnTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// NumAssets returns the number of asset columns
func (t *ReturnTable) NumAssets() int {
	if t == nil {
		return 0
	}
	return len(t.Assets)
}

// Validate checks the table invariants: aligned shapes, strictly increasing time index and finite cells.
func (t *ReturnTable) Validate() error {
	if t == nil || len(t.Rows) == 0 {
		return &InsufficientDataError{Reason: "empty return table"}
	}
	n := len(t.Assets)
	if n == 0 {
		return &InsufficientDataError{Periods: len(t.Rows), Reason: "no asset columns"}
	}
	if len(t.Times) != len(t.Rows) {
		return fmt.Errorf("return table has %d timestamps for %d rows", len(t.Times), len(t.Rows))
	}
	if t.RiskFree != nil && len(t.RiskFree) != len(t.Rows) {
		return fmt.Errorf("risk-free series has %d points for %d rows", len(t.RiskFree), len(t.Rows))
	}
	for i, row := range t.Rows {
		if len(row) != n {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("invalid return for %s at %s: %f", t.Assets[j], t.Times[i].Format("2006-01-02"), v)
			}
		}
		if i > 0 && !t.Times[i].After(t.Times[i-1]) {
			return fmt.Errorf("time index not strictly increasing at row %d (%s after %s)",
				i, t.Times[i].Format("2006-01-02"), t.Times[i-1].Format("2006-01-02"))
		}
	}
	return nil
}

// requireCovariance checks that the table has enough periods for a full-rank sample covariance
func (t *ReturnTable) requireCovariance() error {
	if err := t.Validate(); err != nil {
		return err
	}
	periods, assets := t.Len(), t.NumAssets()
	if periods < 2 {
		return &InsufficientDataError{Periods: periods, Assets: assets, Reason: "need at least 2 periods for a sample covariance"}
	}
	if periods < assets {
		return &InsufficientDataError{Periods: periods, Assets: assets, Reason: "fewer periods than assets, covariance is rank-deficient"}
	}
	return nil
}

// Slice returns rows [i0, i1) sharing the underlying data
func (t *ReturnTable) Slice(i0, i1 int) *ReturnTable {
	if i0 < 0 {
		i0 = 0
	}
	if i1 > t.Len() {
		i1 = t.Len()
	}
	if i0 >= i1 {
		return &ReturnTable{Assets: t.Assets}
	}
	out := &ReturnTable{
		Assets: t.Assets,
		Times:  t.Times[i0:i1],
		Rows:   t.Rows[i0:i1],
	}
	if t.RiskFree != nil {
		out.RiskFree = t.RiskFree[i0:i1]
	}
	return out
}

// Dense copies the table into a periods x assets matrix
func (t *ReturnTable) Dense() *mat.Dense {
	x := mat.NewDense(t.Len(), t.NumAssets(), nil)
	for i, row := range t.Rows {
		x.SetRow(i, row)
	}
	return x
}

// PortfolioReturns returns the per-period weighted return series
func (t *ReturnTable) PortfolioReturns(weights []float64) ([]float64, error) {
	if len(weights) != t.NumAssets() {
		return nil, fmt.Errorf("weights (%d) don't match assets (%d)", len(weights), t.NumAssets())
	}
	out := make([]float64, t.Len())
	for i, row := range t.Rows {
		r := 0.0
		for j, v := range row {
			r += v * weights[j]
		}
		out[i] = r
	}
	return out, nil
}

// AnnualizedRiskFree averages the table's periodic risk-free rate and scales it to a yearly rate.
// A table without a risk-free series yields 0.
func (t *ReturnTable) AnnualizedRiskFree(scale float64) float64 {
	if len(t.RiskFree) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range t.RiskFree {
		sum += r
	}
	return sum / float64(len(t.RiskFree)) * scale
}
