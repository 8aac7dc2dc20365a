package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"portfolioSim/internal/finance"
	"portfolioSim/internal/metrics"
	"portfolioSim/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Params are the explicit inputs of one run
type Params struct {
	Trials        int
	TopK          int
	Frequency     finance.Frequency
	TrainFraction float64
	Seed          uint64
	Workers       int
	MaxRedraws    int
	OOSScale      float64 // Annualization factor of the out-of-sample score
	ChatID        int64   // Recorded with the run, 0 for CLI runs
}

// DefaultParams mirrors the classic study: 10k portfolios, top 100, monthly data, 80/20 split.
func DefaultParams() Params {
	return Params{
		Trials:        10000,
		TopK:          100,
		Frequency:     finance.FrequencyMonthly,
		TrainFraction: 0.8,
		Seed:          1,
		Workers:       runtime.NumCPU(),
		MaxRedraws:    finance.DefaultMaxRedraws,
		OOSScale:      finance.OutOfSampleScale,
	}
}

// Window describes one contiguous slice of the return table
type Window struct {
	Start   time.Time
	End     time.Time
	Periods int
}

// Curve is a dated cumulative-return curve and its summary
type Curve struct {
	Times  []time.Time
	Values []float64
	Stats  *finance.CurveStats
}

// Result is everything a run produced
type Result struct {
	RunID     string
	StartedAt time.Time
	Elapsed   time.Duration
	Params    Params
	Assets    []string

	Train        Window
	Test         Window
	RiskFreeRate float64 // Annualized training risk-free rate used for every trial

	Simulation  *finance.SimulationOutput
	Ranking     *finance.Ranking
	OutOfSample *finance.Validation // Median-of-top-K weights on the test window
	BestCurve   Curve               // Best weights over the full table

	// ScaleMismatch is set when the out-of-sample scale differs from the training frequency
	ScaleMismatch bool
}

// Runner executes runs and reports them to the optional metrics registry and store
type Runner struct {
	Metrics *metrics.Registry
	Store   *storage.Store
	Now     func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Validate checks the parameters before any work is done
func (p Params) Validate() error {
	if _, err := p.Frequency.Scale(); err != nil {
		return err
	}
	if p.Trials < 1 {
		return fmt.Errorf("trials must be >= 1, got %d", p.Trials)
	}
	if p.TopK < 1 {
		return fmt.Errorf("top-k must be >= 1, got %d", p.TopK)
	}
	if p.TrainFraction <= 0 || p.TrainFraction >= 1 {
		return fmt.Errorf("train fraction must be in (0, 1), got %f", p.TrainFraction)
	}
	if p.OOSScale <= 0 {
		return fmt.Errorf("out-of-sample scale must be positive, got %f", p.OOSScale)
	}
	return nil
}

// Run splits the table, simulates on the training window, ranks the trials and validates the
// median allocation on the test window. The run is recorded in metrics and the store when set.
func (r *Runner) Run(ctx context.Context, table *finance.ReturnTable, p Params) (*Result, error) {
	started := r.now()
	res, err := r.run(ctx, table, p)
	elapsed := r.now().Sub(started)

	if err != nil {
		log.Error().Err(err).Str("frequency", string(p.Frequency)).Int("trials", p.Trials).Msg("pipeline: run failed")
		r.Metrics.RecordRun(string(p.Frequency), p.Trials, 0, 0, elapsed, err)
		return nil, err
	}
	res.StartedAt = started
	res.Elapsed = elapsed
	r.Metrics.RecordRun(string(p.Frequency), p.Trials, res.Simulation.Redraws, res.Ranking.BestSharpe, elapsed, nil)

	log.Info().
		Str("run", res.RunID).
		Int("trials", p.Trials).
		Float64("best_sharpe", res.Ranking.BestSharpe).
		Float64("oos_sharpe", res.OutOfSample.SharpeRatio).
		Dur("elapsed", elapsed).
		Msg("pipeline: run complete")

	if r.Store != nil {
		if err := r.Store.SaveRun(res.Record()); err != nil {
			return res, fmt.Errorf("failed to save run: %w", err)
		}
	}
	return res, nil
}

func (r *Runner) run(ctx context.Context, table *finance.ReturnTable, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scale, _ := p.Frequency.Scale()

	train, test, err := finance.SplitChronological(table, p.TrainFraction)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	res := &Result{
		RunID:         uuid.NewString(),
		Params:        p,
		Assets:        table.Assets,
		Train:         window(train),
		Test:          window(test),
		RiskFreeRate:  train.AnnualizedRiskFree(scale),
		ScaleMismatch: p.OOSScale != scale,
	}
	if res.ScaleMismatch {
		log.Warn().
			Str("frequency", string(p.Frequency)).
			Float64("training_scale", scale).
			Float64("oos_scale", p.OOSScale).
			Msg("pipeline: out-of-sample metrics are annualized with a different factor than the training data")
	}
	log.Debug().
		Str("run", res.RunID).
		Int("train_periods", res.Train.Periods).
		Int("test_periods", res.Test.Periods).
		Float64("risk_free", res.RiskFreeRate).
		Msg("pipeline: split table")

	res.Simulation, err = finance.Simulate(train, finance.SimConfig{
		Trials:       p.Trials,
		RiskFreeRate: res.RiskFreeRate,
		Frequency:    p.Frequency,
		Seed:         p.Seed,
		Workers:      p.Workers,
		MaxRedraws:   p.MaxRedraws,
	})
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Ranking, err = finance.Rank(res.Simulation, p.TopK)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}

	res.OutOfSample, err = finance.Validate(test, res.Ranking.MedianWeights, p.OOSScale)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	curve, err := finance.CumulativeReturns(table, res.Ranking.BestWeights)
	if err != nil {
		return nil, fmt.Errorf("best curve: %w", err)
	}
	stats, err := finance.SummarizeCurve(curve, scale)
	if err != nil {
		return nil, fmt.Errorf("best curve: %w", err)
	}
	res.BestCurve = Curve{Times: table.Times, Values: curve, Stats: stats}
	return res, nil
}

func window(t *finance.ReturnTable) Window {
	return Window{Start: t.Times[0], End: t.Times[t.Len()-1], Periods: t.Len()}
}

// Record converts the result into its persisted form
func (res *Result) Record() *storage.Run {
	return &storage.Run{
		ID:             res.RunID,
		CreatedAt:      res.StartedAt.UTC(),
		ChatID:         res.Params.ChatID,
		Frequency:      string(res.Params.Frequency),
		Trials:         res.Params.Trials,
		TopK:           len(res.Ranking.TopIndices),
		Seed:           res.Params.Seed,
		TrainFraction:  res.Params.TrainFraction,
		Assets:         res.Assets,
		BestWeights:    res.Ranking.BestWeights,
		MedianWeights:  res.Ranking.MedianWeights,
		BestReturn:     res.Ranking.BestReturn,
		BestVolatility: res.Ranking.BestVolatility,
		BestSharpe:     res.Ranking.BestSharpe,
		OOSReturn:      res.OutOfSample.AnnualReturn,
		OOSVolatility:  res.OutOfSample.AnnualVolatility,
		OOSSharpe:      res.OutOfSample.SharpeRatio,
		OOSMaxDrawdown: res.OutOfSample.MaxDrawdown,
	}
}
