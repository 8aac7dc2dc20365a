package finance

import "fmt"

// SplitChronological partitions the table into a training prefix of floor(len*trainFraction) rows
// and a test suffix holding the rest. Both windows must be non-empty.
func SplitChronological(t *ReturnTable, trainFraction float64) (train, test *ReturnTable, err error) {
	if trainFraction <= 0 || trainFraction >= 1 {
		return nil, nil, fmt.Errorf("train fraction must be in (0, 1), got %f", trainFraction)
	}
	return SplitAt(t, int(float64(t.Len())*trainFraction))
}

// SplitAt partitions the table at row trainSize: train is [0, trainSize), test is [trainSize, len).
func SplitAt(t *ReturnTable, trainSize int) (train, test *ReturnTable, err error) {
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}
	if trainSize < 1 || trainSize >= t.Len() {
		return nil, nil, &InsufficientDataError{
			Periods: t.Len(),
			Assets:  t.NumAssets(),
			Reason:  fmt.Sprintf("split at %d leaves an empty train or test window", trainSize),
		}
	}
	train = t.Slice(0, trainSize)
	test = t.Slice(trainSize, t.Len())
	if err := CheckDisjoint(train, test); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// CheckDisjoint requires the training window to end strictly before the test window starts.
func CheckDisjoint(train, test *ReturnTable) error {
	if train.Len() == 0 || test.Len() == 0 {
		return nil
	}
	trainEnd := train.Times[train.Len()-1]
	testStart := test.Times[0]
	if !trainEnd.Before(testStart) {
		return &DisjointRangeViolation{TrainEnd: trainEnd, TestStart: testStart}
	}
	return nil
}
