package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parserAssets = []string{"ES", "ZN", "TF", "PAIR"}

func TestParseAllocation(t *testing.T) {
	w, err := ParseAllocation("/score es 0.5 zn 0.6 PAIR -0.1", parserAssets)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.6, 0, -0.1}, w, 1e-12)
}

func TestParseAllocation_Errors(t *testing.T) {
	cases := map[string]string{
		"odd pairs":     "ES 0.5 ZN",
		"unknown asset": "SPY 1.0",
		"duplicate":     "ES 0.5 ES 0.5",
		"bad weight":    "ES abc ZN 1",
		"bad sum":       "ES 0.5 ZN 0.4",
		"empty":         "",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAllocation(input, parserAssets)
			assert.Error(t, err)
		})
	}
}

func TestFormatAllocation(t *testing.T) {
	assert.Equal(t, "ES 0.40, ZN -0.10", FormatAllocation([]string{"ES", "ZN"}, []float64{0.4, -0.1}))
	assert.Equal(t, "Asset1 1.00", FormatAllocation(nil, []float64{1}))
}
