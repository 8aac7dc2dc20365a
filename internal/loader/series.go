package loader

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Series is one dated numeric column
type Series struct {
	Times  []time.Time
	Values []float64
}

// ReadSeries reads a CSV whose first column is the date index and returns the named column,
// sorted by date. Unparseable or empty cells become NaN.
func ReadSeries(r io.Reader, column string) (*Series, error) {
	df := dataframe.ReadCSV(r,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", df.Err)
	}
	names := df.Names()
	if len(names) < 2 {
		return nil, fmt.Errorf("csv needs a date column and a value column, got %v", names)
	}

	col := df.Col(column)
	if col.Err != nil {
		return nil, fmt.Errorf("column %q not found (have %s)", column, strings.Join(names, ", "))
	}
	dates := df.Col(names[0]).Records()
	values := col.Float()

	s := &Series{
		Times:  make([]time.Time, 0, len(dates)),
		Values: make([]float64, 0, len(values)),
	}
	for i, d := range dates {
		t, err := parseTime(d)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		s.Times = append(s.Times, t)
		s.Values = append(s.Values, values[i])
	}
	if err := s.sortAndCheck(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Series) sortAndCheck() error {
	idx := make([]int, len(s.Times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return s.Times[idx[a]].Before(s.Times[idx[b]]) })
	times := make([]time.Time, len(idx))
	values := make([]float64, len(idx))
	for i, j := range idx {
		times[i] = s.Times[j]
		values[i] = s.Values[j]
		if i > 0 && times[i].Equal(times[i-1]) {
			return fmt.Errorf("duplicate timestamp %s", times[i].Format(time.DateOnly))
		}
	}
	s.Times, s.Values = times, values
	return nil
}

// PctChange forward-fills missing prices and returns period-over-period fractional changes.
// The first observation, and anything before the first valid price, is dropped.
func PctChange(prices *Series) *Series {
	filled := ForwardFill(prices.Values)
	out := &Series{}
	for i := 1; i < len(filled); i++ {
		prev, cur := filled[i-1], filled[i]
		if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
			continue
		}
		out.Times = append(out.Times, prices.Times[i])
		out.Values = append(out.Values, cur/prev-1)
	}
	return out
}

// ForwardFill copies each NaN from the last valid value; leading NaNs stay NaN.
func ForwardFill(values []float64) []float64 {
	out := make([]float64, len(values))
	last := math.NaN()
	for i, v := range values {
		if !math.IsNaN(v) {
			last = v
		}
		out[i] = last
	}
	return out
}

// valueAt returns the last value observed at or before t, NaN if none
func (s *Series) valueAt(t time.Time) float64 {
	i := sort.Search(len(s.Times), func(i int) bool { return s.Times[i].After(t) })
	for i--; i >= 0; i-- {
		if !math.IsNaN(s.Values[i]) {
			return s.Values[i]
		}
	}
	return math.NaN()
}

var timeLayouts = []string{
	time.RFC3339,
	time.DateOnly,
	time.DateTime,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"2006/01/02",
}

// parseTime accepts unix seconds (TradingView exports) and common date layouts
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
