package finance

import "strings"

// Frequency selects the annualization factor of a return table
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyMonthly Frequency = "monthly"

	TradingDaysPerYear = 252.0
	MonthsPerYear      = 12.0

	// OutOfSampleScale is the fixed annualization factor used by Validate
	OutOfSampleScale = MonthsPerYear
)

// ParseFrequency normalizes user input; unknown values fail with InvalidFrequencyError.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if _, err := f.Scale(); err != nil {
		return "", err
	}
	return f, nil
}

// Scale returns the number of periods per year for the frequency
func (f Frequency) Scale() (float64, error) {
	switch f {
	case FrequencyDaily:
		return TradingDaysPerYear, nil
	case FrequencyMonthly:
		return MonthsPerYear, nil
	default:
		return 0, &InvalidFrequencyError{Value: string(f)}
	}
}
