package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"portfolioSim/internal/finance"
	"portfolioSim/internal/pipeline"
	"portfolioSim/internal/report"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type runFlags struct {
	trials        int
	topK          int
	frequency     string
	trainFraction float64
	seed          uint64
	workers       int
	showTop       int
	exportDir     string
	noSave        bool
}

func (a *app) runCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate random portfolios and validate the median of the best",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, f)
		},
	}
	cmd.Flags().IntVarP(&f.trials, "trials", "n", 0, "Number of random portfolios")
	cmd.Flags().IntVarP(&f.topK, "top-k", "k", 0, "How many of the best portfolios feed the median allocation")
	cmd.Flags().StringVarP(&f.frequency, "frequency", "f", "", "Data frequency (daily|monthly)")
	cmd.Flags().Float64Var(&f.trainFraction, "train-fraction", 0, "Share of the history used for training")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Random seed")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Worker goroutines (results don't depend on it)")
	cmd.Flags().IntVar(&f.showTop, "show-top", 20, "Rows of the top-K table to print (0 prints all)")
	cmd.Flags().StringVar(&f.exportDir, "export-dir", "", "Write trials, curves and charts to this directory")
	cmd.Flags().BoolVar(&f.noSave, "no-save", false, "Don't record the run in the history database")
	return cmd
}

// applyRunFlags overrides config values with the flags the user set
func applyRunFlags(cmd *cobra.Command, f *runFlags, p *pipeline.Params) error {
	flags := cmd.Flags()
	if flags.Changed("trials") {
		p.Trials = f.trials
	}
	if flags.Changed("top-k") {
		p.TopK = f.topK
	}
	if flags.Changed("frequency") {
		freq, err := finance.ParseFrequency(f.frequency)
		if err != nil {
			return err
		}
		p.Frequency = freq
	}
	if flags.Changed("train-fraction") {
		p.TrainFraction = f.trainFraction
	}
	if flags.Changed("seed") {
		p.Seed = f.seed
	}
	if flags.Changed("workers") && f.workers > 0 {
		p.Workers = f.workers
	}
	return p.Validate()
}

func (a *app) run(cmd *cobra.Command, f *runFlags) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	p, err := a.cfg.Params()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, f, &p); err != nil {
		return err
	}

	table, err := a.loadTable(p.Frequency)
	if err != nil {
		return err
	}

	runner := &pipeline.Runner{}
	if !f.noSave {
		store, closeStore, err := a.openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		runner.Store = store
	}

	res, runErr := runner.Run(context.Background(), table, p)
	if res == nil {
		return runErr
	}
	if err := report.WriteRun(cmd.OutOrStdout(), res, f.showTop); err != nil {
		return err
	}

	if f.exportDir != "" {
		if err := export(f.exportDir, table, res); err != nil {
			return err
		}
		log.Info().Str("dir", f.exportDir).Msg("export: trials, curves and charts written")
	}
	// A finished run that could not be recorded still fails the command
	return runErr
}

func export(dir string, table *finance.ReturnTable, res *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, "trials.csv"), func(w io.Writer) error {
		return report.ExportTrials(w, res.Simulation)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, "best_curve.csv"), func(w io.Writer) error {
		return report.ExportCurve(w, res.BestCurve.Times, res.BestCurve.Values)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, "oos_curve.csv"), func(w io.Writer) error {
		return report.ExportCurve(w, res.OutOfSample.Times, res.OutOfSample.Cumulative)
	}); err != nil {
		return err
	}

	charts := report.NewCharts(nil)
	pngs := map[string]func() ([]byte, error){
		"best_curve.png": func() ([]byte, error) { return charts.BestCurveChart(res) },
		"oos_curve.png":  func() ([]byte, error) { return charts.OutOfSampleChart(res) },
		"sharpe.png":     func() ([]byte, error) { return report.SharpeHistogram(res.Simulation.Sharpes, 30) },
		"assets.png":     func() ([]byte, error) { return report.AssetsChart(table) },
	}
	for name, render := range pngs {
		img, err := render()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), img, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
