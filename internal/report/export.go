package report

import (
	"fmt"
	"io"
	"time"

	"portfolioSim/internal/finance"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// TrialsFrame lays the simulation out one trial per row: trial, one weight column per asset,
// return, volatility and Sharpe.
func TrialsFrame(out *finance.SimulationOutput) dataframe.DataFrame {
	n := out.Len()
	trials := make([]int, n)
	for i := range trials {
		trials[i] = i
	}
	cols := []series.Series{series.New(trials, series.Int, "trial")}
	for j, asset := range out.Assets {
		w := make([]float64, n)
		for i := range w {
			w[i] = out.Weights[i][j]
		}
		cols = append(cols, series.New(w, series.Float, "w_"+asset))
	}
	cols = append(cols,
		series.New(out.Returns, series.Float, "return"),
		series.New(out.Volatilities, series.Float, "volatility"),
		series.New(out.Sharpes, series.Float, "sharpe"),
	)
	return dataframe.New(cols...)
}

// CurveFrame pairs dates with a cumulative-return curve
func CurveFrame(times []time.Time, values []float64) dataframe.DataFrame {
	dates := make([]string, len(times))
	for i, t := range times {
		dates[i] = t.Format(time.DateOnly)
	}
	return dataframe.New(
		series.New(dates, series.String, "date"),
		series.New(values, series.Float, "cumulative"),
	)
}

// ExportTrials writes every trial as CSV
func ExportTrials(w io.Writer, out *finance.SimulationOutput) error {
	df := TrialsFrame(out)
	if df.Err != nil {
		return df.Err
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("failed to write trials: %w", err)
	}
	return nil
}

// ExportCurve writes a dated curve as CSV
func ExportCurve(w io.Writer, times []time.Time, values []float64) error {
	if len(times) != len(values) {
		return fmt.Errorf("times and values length mismatch")
	}
	df := CurveFrame(times, values)
	if df.Err != nil {
		return df.Err
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("failed to write curve: %w", err)
	}
	return nil
}
