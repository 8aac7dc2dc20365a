package loader

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func date(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func TestReadSeries_SortsAndParses(t *testing.T) {
	csv := "date,open,close\n2020-03-31,1,3\n2020-01-31,1,1\n2020-02-29,1,NA\n"
	s, err := ReadSeries(strings.NewReader(csv), "close")
	require.NoError(t, err)

	assert.Equal(t, []time.Time{date("2020-01-31"), date("2020-02-29"), date("2020-03-31")}, s.Times)
	assert.Equal(t, 1.0, s.Values[0])
	assert.True(t, math.IsNaN(s.Values[1]))
	assert.Equal(t, 3.0, s.Values[2])
}

func TestReadSeries_UnixSeconds(t *testing.T) {
	csv := "time,close\n1577836800,10\n1577923200,11\n"
	s, err := ReadSeries(strings.NewReader(csv), "close")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), s.Times[0])
}

func TestReadSeries_Errors(t *testing.T) {
	_, err := ReadSeries(strings.NewReader("date,open\n2020-01-31,1\n"), "close")
	assert.ErrorContains(t, err, `column "close" not found`)

	_, err = ReadSeries(strings.NewReader("date,close\n2020-01-31,1\n2020-01-31,2\n"), "close")
	assert.ErrorContains(t, err, "duplicate timestamp")

	_, err = ReadSeries(strings.NewReader("date,close\nyesterday,1\n"), "close")
	assert.ErrorContains(t, err, "unrecognized date")
}

func TestPctChange_FillsGaps(t *testing.T) {
	prices := &Series{
		Times:  []time.Time{date("2020-01-01"), date("2020-01-02"), date("2020-01-03"), date("2020-01-04"), date("2020-01-05")},
		Values: []float64{math.NaN(), 100, math.NaN(), 110, 99},
	}
	r := PctChange(prices)

	require.Len(t, r.Values, 3)
	assert.Equal(t, date("2020-01-03"), r.Times[0])
	assert.InDelta(t, 0.0, r.Values[0], 1e-12)
	assert.InDelta(t, 0.1, r.Values[1], 1e-12)
	assert.InDelta(t, -0.1, r.Values[2], 1e-12)
}

func TestPeriodicRates(t *testing.T) {
	yields := &Series{
		Times:  []time.Time{date("2020-01-31"), date("2020-02-29"), date("2020-03-31")},
		Values: []float64{math.NaN(), 2.4, math.NaN()},
	}
	r := PeriodicRates(yields, 12)
	assert.Equal(t, []time.Time{date("2020-02-29"), date("2020-03-31")}, r.Times)
	assert.InDeltaSlice(t, []float64{0.002, 0.002}, r.Values, 1e-15)
}

func TestLoad_MergesCarriesAndCrops(t *testing.T) {
	dir := t.TempDir()
	es := writeCSV(t, dir, "es.csv", "date,close\n2020-01-31,100\n2020-02-29,110\n2020-03-31,99\n2020-04-30,108.9\n")
	pair := writeCSV(t, dir, "pair.csv", "date,close\n2020-02-29,50\n2020-03-31,55\n2020-04-30,\n")
	rf := writeCSV(t, dir, "rf.csv", "date,yield\n2020-01-31,1.2\n2020-03-31,2.4\n")

	table, err := Load(Sources{
		Assets: []AssetSource{
			{Name: "ES", Path: es, Carry: 1.0},
			{Name: "PAIR", Path: pair, Carry: 0.5},
		},
		RiskFree: &RiskFreeSource{Path: rf, Column: "yield", PeriodsPerYear: 12},
	})
	require.NoError(t, err)

	// February is cropped: PAIR has no return before March
	assert.Equal(t, []string{"ES", "PAIR"}, table.Assets)
	assert.Equal(t, []time.Time{date("2020-03-31"), date("2020-04-30")}, table.Times)
	require.Len(t, table.Rows, 2)
	assert.InDeltaSlice(t, []float64{-0.1 + 0.002, 0.1 + 0.001}, table.Rows[0], 1e-12)
	assert.InDeltaSlice(t, []float64{0.1 + 0.002, 0.0 + 0.001}, table.Rows[1], 1e-12)
	assert.InDeltaSlice(t, []float64{0.002, 0.002}, table.RiskFree, 1e-15)
}

func TestLoad_WithoutRiskFree(t *testing.T) {
	dir := t.TempDir()
	es := writeCSV(t, dir, "es.csv", "date,close\n2020-01-31,100\n2020-02-29,110\n2020-03-31,99\n")

	table, err := Load(Sources{Assets: []AssetSource{{Name: "ES", Path: es}}})
	require.NoError(t, err)
	assert.Nil(t, table.RiskFree)
	assert.Equal(t, 2, table.Len())

	_, err = Load(Sources{Assets: []AssetSource{{Name: "ES", Path: es, Carry: 1}}})
	assert.ErrorContains(t, err, "no risk-free series")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(Sources{Assets: []AssetSource{{Name: "ZN", Path: filepath.Join(t.TempDir(), "nope.csv")}}})
	assert.ErrorContains(t, err, "ZN")

	_, err = Load(Sources{})
	assert.Error(t, err)
}
