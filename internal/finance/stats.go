package finance

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Moments are the column means and sample covariance (N-1 denominator) of a return table
type Moments struct {
	Means []float64
	Cov   *mat.SymDense
}

// ColumnMoments estimates per-asset means and the sample covariance matrix over the whole table.
func ColumnMoments(t *ReturnTable) (*Moments, error) {
	if err := t.requireCovariance(); err != nil {
		return nil, err
	}
	x := t.Dense()
	n := t.NumAssets()

	means := make([]float64, n)
	for j := 0; j < n; j++ {
		means[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}
	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, x, nil)

	return &Moments{Means: means, Cov: cov}, nil
}

// scaledCov returns a copy of the covariance multiplied by scale
func (m *Moments) scaledCov(scale float64) *mat.SymDense {
	n := len(m.Means)
	out := mat.NewSymDense(n, nil)
	out.ScaleSym(scale, m.Cov)
	return out
}

// expectedReturn is w·μ
func (m *Moments) expectedReturn(w []float64) float64 {
	return floats.Dot(m.Means, w)
}

// quadraticVolatility is sqrt(w Σ wᵀ); rounding noise below zero is clamped.
func quadraticVolatility(cov mat.Symmetric, w []float64) float64 {
	v := mat.NewVecDense(len(w), w)
	q := mat.Inner(v, cov, v)
	if q < 0 {
		q = 0
	}
	return math.Sqrt(q)
}

// sharpeRatio divides excess return by volatility, refusing a numerically zero or invalid denominator.
func sharpeRatio(ret, vol, riskFree float64) (float64, error) {
	if math.IsNaN(vol) || vol <= volatilityTolerance {
		return 0, &ZeroVolatilityError{Volatility: vol}
	}
	return (ret - riskFree) / vol, nil
}

const volatilityTolerance = 1e-12
