package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"portfolioSim/internal/config"
	"portfolioSim/internal/finance"
	"portfolioSim/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyRunFlags(t *testing.T) {
	a := &app{}
	cmd := a.runCmd()
	require.NoError(t, cmd.Flags().Set("trials", "250"))
	require.NoError(t, cmd.Flags().Set("frequency", "daily"))
	require.NoError(t, cmd.Flags().Set("seed", "99"))

	p := pipeline.DefaultParams()
	f := &runFlags{trials: 250, frequency: "daily", seed: 99}
	require.NoError(t, applyRunFlags(cmd, f, &p))

	assert.Equal(t, 250, p.Trials)
	assert.Equal(t, finance.FrequencyDaily, p.Frequency)
	assert.Equal(t, uint64(99), p.Seed)
	assert.Equal(t, 100, p.TopK)
}

func TestApplyRunFlags_InvalidFrequency(t *testing.T) {
	a := &app{}
	cmd := a.runCmd()
	require.NoError(t, cmd.Flags().Set("frequency", "weekly"))

	p := pipeline.DefaultParams()
	err := applyRunFlags(cmd, &runFlags{frequency: "weekly"}, &p)
	var freqErr *finance.InvalidFrequencyError
	assert.ErrorAs(t, err, &freqErr)
}

func writePrices(t *testing.T, path string, start float64, drift func(i int) float64) {
	t.Helper()
	body := "date,close\n"
	price := start
	for i := 0; i < 40; i++ {
		body += "20" + twoDigits(10+i/12) + "-" + twoDigits(1+i%12) + "-01," + formatFloat(price) + "\n"
		price *= 1 + drift(i)
	}
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func TestRunAndExport(t *testing.T) {
	dir := t.TempDir()
	writePrices(t, filepath.Join(dir, "a.csv"), 100, func(i int) float64 { return 0.01 * float64(i%5-2) })
	writePrices(t, filepath.Join(dir, "b.csv"), 50, func(i int) float64 { return 0.008 * float64(i%3-1) })
	writePrices(t, filepath.Join(dir, "c.csv"), 20, func(i int) float64 { return 0.005 * float64(i%7-3) })

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.DBPath = filepath.Join(dir, "runs.db")
	cfg.Assets = []config.Asset{{Name: "A", File: "a.csv"}, {Name: "B", File: "b.csv"}, {Name: "C", File: "c.csv"}}
	cfg.RiskFree = nil
	cfg.Simulation.Trials = 100
	cfg.Simulation.TopK = 5
	a := &app{cfg: cfg}

	exportDir := filepath.Join(dir, "out")
	cmd := a.runCmd()
	require.NoError(t, cmd.Flags().Set("export-dir", exportDir))
	require.NoError(t, a.run(cmd, &runFlags{exportDir: exportDir, showTop: 5}))

	for _, name := range []string{"trials.csv", "best_curve.csv", "oos_curve.csv", "best_curve.png", "oos_curve.png", "sharpe.png", "assets.png"} {
		info, err := os.Stat(filepath.Join(exportDir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	store, closeStore, err := a.openStore()
	require.NoError(t, err)
	defer closeStore()
	runs, err := store.ListRuns(0, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
