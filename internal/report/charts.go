package report

import (
	"fmt"
	"math"
	"time"

	"portfolioSim/internal/finance"
	"portfolioSim/internal/pipeline"

	"github.com/vicanso/go-charts/v2"
)

// Charts renders PNG charts for runs, caching them by run id
type Charts struct {
	cache *ChartCache
}

func NewCharts(cache *ChartCache) *Charts {
	return &Charts{cache: cache}
}

// OutOfSampleChart plots the median allocation's cumulative return on the test window
func (c *Charts) OutOfSampleChart(res *pipeline.Result) ([]byte, error) {
	key := "oos-" + res.RunID
	if img, found := c.cache.Get(key); found {
		return img, nil
	}
	oos := res.OutOfSample
	title := fmt.Sprintf("Median of top %d, out-of-sample", len(res.Ranking.TopIndices))
	subtitle := fmt.Sprintf("Return: %.2f%% | Sharpe: %.2f | Vol: %.2f%% | MaxDD: %.2f%%",
		oos.AnnualReturn*100, oos.SharpeRatio, oos.AnnualVolatility*100, oos.MaxDrawdown*100)
	buf, err := CurveChart(title, subtitle, oos.Times, oos.Cumulative)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, buf)
	return buf, nil
}

// BestCurveChart plots the best allocation's cumulative return over the full history
func (c *Charts) BestCurveChart(res *pipeline.Result) ([]byte, error) {
	key := "best-" + res.RunID
	if img, found := c.cache.Get(key); found {
		return img, nil
	}
	stats := res.BestCurve.Stats
	title := fmt.Sprintf("Best portfolio (%s)", finance.FormatAllocation(res.Assets, res.Ranking.BestWeights))
	subtitle := fmt.Sprintf("Total: %.2f%% | Annual: %.2f%% | Sharpe: %.2f | MaxDD: %.2f%%",
		stats.TotalReturn*100, stats.AnnualReturn*100, res.Ranking.BestSharpe, stats.MaxDrawdown*100)
	buf, err := CurveChart(title, subtitle, res.BestCurve.Times, res.BestCurve.Values)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, buf)
	return buf, nil
}

// CurveChart renders one cumulative-return line
func CurveChart(title, subtitle string, times []time.Time, values []float64) ([]byte, error) {
	if len(values) < 2 {
		return nil, fmt.Errorf("not enough data points")
	}
	if len(times) != len(values) {
		return nil, fmt.Errorf("times and values length mismatch")
	}

	xLabels := dateLabels(times)
	yMin, yMax := paddedRange(values)

	p, err := charts.LineRender(
		[][]float64{values},
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNumber(len(xLabels)),
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

// AssetsChart plots the summed returns of every asset column
func AssetsChart(t *finance.ReturnTable) ([]byte, error) {
	if t.Len() < 2 {
		return nil, fmt.Errorf("not enough data points")
	}
	values := make([][]float64, t.NumAssets())
	var all []float64
	for j := range values {
		values[j] = make([]float64, t.Len())
		acc := 0.0
		for i, row := range t.Rows {
			acc += row[j]
			values[j][i] = acc
		}
		all = append(all, values[j]...)
	}
	yMin, yMax := paddedRange(all)
	xLabels := dateLabels(t.Times)

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = t.Assets[i]
	}
	p, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc("Cumulative returns of each series"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: splitNumber(len(xLabels))}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: t.Assets}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return p.Bytes()
}

// SharpeHistogram renders the distribution of simulated Sharpe ratios
func SharpeHistogram(sharpes []float64, bins int) ([]byte, error) {
	counts, labels, err := Histogram(sharpes, bins)
	if err != nil {
		return nil, err
	}
	p, err := charts.BarRender(
		[][]float64{counts},
		charts.TitleTextOptionFunc(fmt.Sprintf("Sharpe ratios of %d portfolios", len(sharpes))),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, SplitNumber: splitNumber(len(labels))}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return p.Bytes()
}

// Histogram buckets values into equal-width bins labelled by their lower edge
func Histogram(values []float64, bins int) ([]float64, []string, error) {
	if len(values) == 0 {
		return nil, nil, fmt.Errorf("no values")
	}
	if bins < 1 {
		return nil, nil, fmt.Errorf("bins must be >= 1, got %d", bins)
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	width := (hi - lo) / float64(bins)
	counts := make([]float64, bins)
	for _, v := range values {
		i := bins - 1
		if width > 0 {
			i = int((v - lo) / width)
		}
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	labels := make([]string, bins)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.2f", lo+float64(i)*width)
	}
	return counts, labels, nil
}

func dateLabels(times []time.Time) []string {
	layout := "Jan 02"
	if len(times) > 1 && times[len(times)-1].Sub(times[0]) > 180*24*time.Hour {
		layout = "Jan '06"
	}
	out := make([]string, len(times))
	for i, t := range times {
		out[i] = t.Format(layout)
	}
	return out
}

func paddedRange(values []float64) (float64, float64) {
	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = math.Abs(maxVal)*0.05 + 0.01
	}
	return minVal - padding, maxVal + padding
}

func splitNumber(points int) int {
	splitNum := 6
	if points <= 30 {
		splitNum = points / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}
	return splitNum
}
