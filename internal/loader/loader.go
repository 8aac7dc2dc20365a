package loader

import (
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"portfolioSim/internal/finance"
)

// AssetSource describes one asset's price file
type AssetSource struct {
	Name  string
	Path  string
	Carry float64 // Fraction of the periodic risk-free rate earned on top of the asset's return
}

// RiskFreeSource describes a file of annualized percent yields
type RiskFreeSource struct {
	Path           string
	Column         string
	PeriodsPerYear float64 // 12 converts an annual percent yield into a monthly fractional rate
}

// Sources lists everything needed to build a return table
type Sources struct {
	Assets      []AssetSource
	PriceColumn string
	RiskFree    *RiskFreeSource
}

// Load reads every source file and builds the merged return table.
func Load(src Sources) (*finance.ReturnTable, error) {
	if len(src.Assets) == 0 {
		return nil, fmt.Errorf("no assets configured")
	}
	column := src.PriceColumn
	if column == "" {
		column = "close"
	}

	returns := make([]*Series, len(src.Assets))
	for i, a := range src.Assets {
		prices, err := readFile(a.Path, column)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Name, err)
		}
		returns[i] = PctChange(prices)
		if len(returns[i].Times) == 0 {
			return nil, fmt.Errorf("%s: no returns after pct change", a.Name)
		}
	}

	var rf *Series
	if src.RiskFree != nil {
		yields, err := readFile(src.RiskFree.Path, src.RiskFree.Column)
		if err != nil {
			return nil, fmt.Errorf("risk-free: %w", err)
		}
		rf = PeriodicRates(yields, src.RiskFree.PeriodsPerYear)
	}

	return Merge(src.Assets, returns, rf)
}

func readFile(path, column string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSeries(f, column)
}

// PeriodicRates converts annualized percent yields into fractional per-period rates,
// forward-filling gaps and dropping leading missing values.
func PeriodicRates(yields *Series, periodsPerYear float64) *Series {
	if periodsPerYear <= 0 {
		periodsPerYear = finance.MonthsPerYear
	}
	filled := ForwardFill(yields.Values)
	out := &Series{}
	for i, y := range filled {
		if math.IsNaN(y) {
			continue
		}
		out.Times = append(out.Times, yields.Times[i])
		out.Values = append(out.Values, y/periodsPerYear/100)
	}
	return out
}

// Merge outer-joins the asset return series on their dates, adds each asset's risk-free carry,
// forward-fills gaps and crops leading rows until every column has a value.
// The risk-free series, when given, is aligned to the merged index by last observation.
func Merge(assets []AssetSource, returns []*Series, rf *Series) (*finance.ReturnTable, error) {
	if len(assets) != len(returns) {
		return nil, fmt.Errorf("assets (%d) don't match return series (%d)", len(assets), len(returns))
	}

	seen := map[int64]time.Time{}
	for _, s := range returns {
		for _, t := range s.Times {
			seen[t.UnixNano()] = t
		}
	}
	index := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		index = append(index, t)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })

	names := make([]string, len(assets))
	cols := make([][]float64, len(assets))
	for j, a := range assets {
		names[j] = a.Name
		lookup := make(map[int64]float64, len(returns[j].Times))
		for k, t := range returns[j].Times {
			lookup[t.UnixNano()] = returns[j].Values[k]
		}
		col := make([]float64, len(index))
		for i, t := range index {
			v, ok := lookup[t.UnixNano()]
			if !ok {
				col[i] = math.NaN()
				continue
			}
			if a.Carry != 0 {
				if rf == nil {
					return nil, fmt.Errorf("%s has a risk-free carry but no risk-free series is configured", a.Name)
				}
				v += a.Carry * rf.valueAt(t)
			}
			col[i] = v
		}
		cols[j] = ForwardFill(col)
	}

	var rfCol []float64
	if rf != nil {
		rfCol = make([]float64, len(index))
		for i, t := range index {
			rfCol[i] = rf.valueAt(t)
		}
	}

	// Crop to the first row where every column, and the risk-free rate, is observed
	start := 0
	for ; start < len(index); start++ {
		complete := rfCol == nil || !math.IsNaN(rfCol[start])
		for j := range cols {
			if math.IsNaN(cols[j][start]) {
				complete = false
				break
			}
		}
		if complete {
			break
		}
	}

	table := &finance.ReturnTable{Assets: names}
	for i := start; i < len(index); i++ {
		row := make([]float64, len(cols))
		for j := range cols {
			row[j] = cols[j][i]
		}
		table.Times = append(table.Times, index[i])
		table.Rows = append(table.Rows, row)
		if rfCol != nil {
			table.RiskFree = append(table.RiskFree, rfCol[i])
		}
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
