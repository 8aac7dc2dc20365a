package finance

import (
	"fmt"
	"math"
)

// CurveStats summarizes a cumulative-return curve that starts from 1.0
type CurveStats struct {
	TotalReturn  float64 // Fraction
	AnnualReturn float64 // Geometric, fraction
	MaxDrawdown  float64 // Fraction
	NumPeriods   int
}

// SummarizeCurve computes total, geometrically annualized return and maximum drawdown of a curve.
func SummarizeCurve(curve []float64, periodsPerYear float64) (*CurveStats, error) {
	if len(curve) == 0 {
		return nil, fmt.Errorf("empty curve")
	}
	if periodsPerYear <= 0 {
		return nil, fmt.Errorf("periods per year must be positive, got %f", periodsPerYear)
	}
	final := curve[len(curve)-1]
	if math.IsNaN(final) || math.IsInf(final, 0) {
		return nil, fmt.Errorf("invalid final curve value: %f", final)
	}

	stats := &CurveStats{
		TotalReturn: final - 1,
		MaxDrawdown: calculateMaxDrawdown(curve),
		NumPeriods:  len(curve),
	}
	// Geometric annualization: (final)^(1/years) - 1
	years := float64(len(curve)) / periodsPerYear
	if final > 0 {
		stats.AnnualReturn = math.Pow(final, 1/years) - 1
	} else {
		stats.AnnualReturn = -1
	}
	return stats, nil
}

// calculateMaxDrawdown returns the largest peak-to-trough decline as a fraction.
// The curve is measured from an implicit starting value of 1.0.
func calculateMaxDrawdown(values []float64) float64 {
	maxDrawdown := 0.0
	peak := 1.0

	for _, value := range values {
		if value > peak {
			peak = value
		}
		if peak > 0 {
			drawdown := (peak - value) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}
	return maxDrawdown
}
