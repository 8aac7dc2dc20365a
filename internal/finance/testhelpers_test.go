package finance

import (
	"math"
	"time"
)

// monthlyTable builds a table with one row per month starting Jan 2015
func monthlyTable(assets []string, rows [][]float64) *ReturnTable {
	times := make([]time.Time, len(rows))
	start := time.Date(2015, 1, 31, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		times[i] = start.AddDate(0, i, 0)
	}
	return &ReturnTable{Assets: assets, Times: times, Rows: rows}
}

// wavyTable returns deterministic, non-degenerate returns for n assets
func wavyTable(periods, n int) *ReturnTable {
	assets := make([]string, n)
	for j := range assets {
		assets[j] = string(rune('A' + j))
	}
	rows := make([][]float64, periods)
	for i := range rows {
		row := make([]float64, n)
		for j := range row {
			row[j] = 0.004*float64(j+1) + 0.03*math.Sin(float64(i*(j+2))+float64(j)) + 0.01*math.Cos(float64(i)/3)
		}
		rows[i] = row
	}
	return monthlyTable(assets, rows)
}

type constSource struct{ vals []float64 }

func (c *constSource) NormFloat64() float64 {
	v := c.vals[0]
	c.vals = append(c.vals[1:], v)
	return v
}
