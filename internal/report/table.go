package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"portfolioSim/internal/finance"
	"portfolioSim/internal/pipeline"
	"portfolioSim/internal/storage"

	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteRun prints the top-K table, the best portfolio and the out-of-sample score.
// showTop limits how many of the top-K rows are printed (0 prints all).
func WriteRun(w io.Writer, res *pipeline.Result, showTop int) error {
	rk := res.Ranking
	top := table.NewWriter()
	top.SetStyle(table.StyleLight)
	top.SetTitle(fmt.Sprintf("Top %d of %d portfolios by Sharpe (%s, train %s to %s)",
		len(rk.TopIndices), res.Simulation.Len(), res.Params.Frequency,
		res.Train.Start.Format(time.DateOnly), res.Train.End.Format(time.DateOnly)))
	top.AppendHeader(weightHeader("#", res.Assets, "Trial", "Sharpe", "Return"))

	first := 0
	if showTop > 0 && showTop < len(rk.TopIndices) {
		first = len(rk.TopIndices) - showTop
	}
	// Best last, the way the ranking orders them
	for i := first; i < len(rk.TopIndices); i++ {
		row := table.Row{i + 1}
		row = appendWeights(row, rk.TopWeights[i])
		row = append(row, rk.TopIndices[i], fmt.Sprintf("%.2f", rk.TopSharpes[i]), fmt.Sprintf("%.3f", rk.TopReturns[i]))
		top.AppendRow(row)
	}
	if _, err := fmt.Fprintln(w, top.Render()); err != nil {
		return err
	}

	alloc := table.NewWriter()
	alloc.SetStyle(table.StyleLight)
	alloc.SetTitle("Chosen allocations")
	alloc.AppendHeader(weightHeader("", res.Assets))
	alloc.AppendRow(appendWeights(table.Row{fmt.Sprintf("Best (trial %d)", rk.BestIndex)}, rk.BestWeights))
	alloc.AppendRow(appendWeights(table.Row{fmt.Sprintf("Median of top %d", len(rk.TopIndices))}, rk.MedianWeights))
	if _, err := fmt.Fprintln(w, alloc.Render()); err != nil {
		return err
	}

	m := table.NewWriter()
	m.SetStyle(table.StyleLight)
	m.SetTitle("Metrics")
	m.AppendHeader(table.Row{"", "Return", "Volatility", "Sharpe", "Max DD", "Risk-free"})
	m.AppendRow(table.Row{"Best, in-sample", pct(rk.BestReturn), pct(rk.BestVolatility),
		fmt.Sprintf("%.2f", rk.BestSharpe), "", pct(res.RiskFreeRate)})
	m.AppendRow(table.Row{"Best, full history", pct(res.BestCurve.Stats.AnnualReturn), "", "",
		pct(res.BestCurve.Stats.MaxDrawdown), ""})
	oos := res.OutOfSample
	m.AppendRow(table.Row{fmt.Sprintf("Median, out-of-sample (%s to %s)",
		res.Test.Start.Format(time.DateOnly), res.Test.End.Format(time.DateOnly)),
		pct(oos.AnnualReturn), pct(oos.AnnualVolatility), fmt.Sprintf("%.2f", oos.SharpeRatio),
		pct(oos.MaxDrawdown), pct(oos.RiskFreeRate)})
	if _, err := fmt.Fprintln(w, m.Render()); err != nil {
		return err
	}

	if res.ScaleMismatch {
		_, err := fmt.Fprintf(w, "note: out-of-sample figures are annualized with factor %g, training used %s data\n",
			res.Params.OOSScale, res.Params.Frequency)
		return err
	}
	return nil
}

// WriteScore prints a user allocation's in-sample and out-of-sample figures
func WriteScore(w io.Writer, s *pipeline.ScoreResult) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(finance.FormatAllocation(s.Assets, s.Weights))
	t.AppendHeader(table.Row{"", "Return", "Volatility", "Sharpe", "Max DD"})
	t.AppendRow(table.Row{"In-sample, per period", pct(s.InSampleMean), pct(s.InSampleVolatility), "", ""})
	oos := s.OutOfSample
	t.AppendRow(table.Row{"Out-of-sample, annualized", pct(oos.AnnualReturn), pct(oos.AnnualVolatility),
		fmt.Sprintf("%.2f", oos.SharpeRatio), pct(oos.MaxDrawdown)})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// WriteHistory prints stored runs, newest first
func WriteHistory(w io.Writer, runs []*storage.Run) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetAutoIndex(true)
	t.AppendHeader(table.Row{"Run", "Time", "Freq", "Trials", "Best Sharpe", "OOS Sharpe", "Median weights"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			shortID(r.ID),
			r.CreatedAt.Format(time.DateTime),
			r.Frequency,
			r.Trials,
			fmt.Sprintf("%.2f", r.BestSharpe),
			fmt.Sprintf("%.2f", r.OOSSharpe),
			finance.FormatAllocation(r.Assets, r.MedianWeights),
		})
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// Summary is the compact plain-text report used in chat replies
func Summary(res *pipeline.Result) string {
	rk := res.Ranking
	oos := res.OutOfSample
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %d portfolios, %s data\n", shortID(res.RunID), res.Simulation.Len(), res.Params.Frequency)
	fmt.Fprintf(&b, "Train %s to %s (%d periods), test %s to %s (%d periods)\n\n",
		res.Train.Start.Format(time.DateOnly), res.Train.End.Format(time.DateOnly), res.Train.Periods,
		res.Test.Start.Format(time.DateOnly), res.Test.End.Format(time.DateOnly), res.Test.Periods)
	fmt.Fprintf(&b, "Best: %s\n", finance.FormatAllocation(res.Assets, rk.BestWeights))
	fmt.Fprintf(&b, "  Sharpe %.2f, return %s, volatility %s\n", rk.BestSharpe, pct(rk.BestReturn), pct(rk.BestVolatility))
	fmt.Fprintf(&b, "Median of top %d: %s\n", len(rk.TopIndices), finance.FormatAllocation(res.Assets, rk.MedianWeights))
	fmt.Fprintf(&b, "  Out-of-sample Sharpe %.2f, return %s, volatility %s, max DD %s\n",
		oos.SharpeRatio, pct(oos.AnnualReturn), pct(oos.AnnualVolatility), pct(oos.MaxDrawdown))
	if res.ScaleMismatch {
		fmt.Fprintf(&b, "\nOut-of-sample figures use factor %g while training used %s data.\n",
			res.Params.OOSScale, res.Params.Frequency)
	}
	return b.String()
}

func weightHeader(first string, assets []string, rest ...any) table.Row {
	row := table.Row{first}
	for _, a := range assets {
		row = append(row, a)
	}
	return append(row, rest...)
}

func appendWeights(row table.Row, weights []float64) table.Row {
	for _, w := range weights {
		row = append(row, fmt.Sprintf("%.2f", w))
	}
	return row
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
