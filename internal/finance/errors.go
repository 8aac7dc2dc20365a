package finance

import (
	"fmt"
	"time"
)

// DegenerateSampleError is returned when the raw sum of a normal draw is too close to zero to normalize.
type DegenerateSampleError struct {
	RawSum float64
}

func (e *DegenerateSampleError) Error() string {
	return fmt.Sprintf("degenerate weight sample: raw sum %g is within %g of zero", e.RawSum, degenerateSumTolerance)
}

// InvalidFrequencyError is returned for an annualization selector other than daily or monthly.
type InvalidFrequencyError struct {
	Value string
}

func (e *InvalidFrequencyError) Error() string {
	return fmt.Sprintf("invalid frequency %q: must be %q or %q", e.Value, FrequencyDaily, FrequencyMonthly)
}

// InsufficientDataError is returned when a table cannot support a covariance estimate.
type InsufficientDataError struct {
	Periods int
	Assets  int
	Reason  string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data (%d periods, %d assets): %s", e.Periods, e.Assets, e.Reason)
}

// DisjointRangeViolation is returned when a training window does not end before its test window starts.
type DisjointRangeViolation struct {
	TrainEnd  time.Time
	TestStart time.Time
}

func (e *DisjointRangeViolation) Error() string {
	return fmt.Sprintf("train window ends %s, not before test window start %s",
		e.TrainEnd.Format(time.DateOnly), e.TestStart.Format(time.DateOnly))
}

// ZeroVolatilityError is returned when a portfolio's volatility is numerically zero and its Sharpe ratio is undefined.
type ZeroVolatilityError struct {
	Volatility float64
}

func (e *ZeroVolatilityError) Error() string {
	return fmt.Sprintf("portfolio volatility %g is zero: sharpe ratio undefined", e.Volatility)
}

// TrialError reports which simulation trial aborted a batch
type TrialError struct {
	Trial int
	Err   error
}

func (e *TrialError) Error() string {
	return fmt.Sprintf("trial %d: %v", e.Trial, e.Err)
}

func (e *TrialError) Unwrap() error { return e.Err }
