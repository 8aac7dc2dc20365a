package finance

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAllocation parses "SYMBOL WEIGHT" pairs such as "ES 0.5 ZN 0.3 TF 0.2" into a weight
// vector ordered like assets. Symbols match asset names case-insensitively, unnamed assets get
// weight 0, and the weights must sum to 1. Negative weights are short positions.
func ParseAllocation(input string, assets []string) ([]float64, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "/score") {
		input = strings.TrimSpace(input[len("/score"):])
	}

	parts := strings.Fields(input)
	if len(parts) < 2 {
		return nil, fmt.Errorf("insufficient arguments: need at least one symbol weight pair")
	}
	if len(parts)%2 != 0 {
		return nil, fmt.Errorf("invalid format: each symbol must have a weight")
	}

	index := make(map[string]int, len(assets))
	for i, a := range assets {
		index[strings.ToUpper(a)] = i
	}

	weights := make([]float64, len(assets))
	seen := make(map[string]bool)
	total := 0.0
	for i := 0; i < len(parts); i += 2 {
		symbol := strings.ToUpper(strings.TrimSpace(parts[i]))
		weightStr := strings.TrimSpace(parts[i+1])

		idx, ok := index[symbol]
		if !ok {
			return nil, fmt.Errorf("unknown asset %s (have %s)", symbol, strings.Join(assets, ", "))
		}
		if seen[symbol] {
			return nil, fmt.Errorf("duplicate symbol: %s", symbol)
		}
		seen[symbol] = true

		weight, err := strconv.ParseFloat(weightStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight '%s' for symbol %s: %w", weightStr, symbol, err)
		}
		if math.IsNaN(weight) || math.IsInf(weight, 0) {
			return nil, fmt.Errorf("invalid weight '%s' for symbol %s", weightStr, symbol)
		}
		weights[idx] = weight
		total += weight
	}

	if math.Abs(total-1) > allocationSumTolerance {
		return nil, fmt.Errorf("weights sum to %.4f, expected 1", total)
	}
	return weights, nil
}

// FormatAllocation renders weights as "ES 0.40, ZN -0.10, ..."
func FormatAllocation(assets []string, weights []float64) string {
	parts := make([]string, len(weights))
	for i, w := range weights {
		name := fmt.Sprintf("Asset%d", i+1)
		if i < len(assets) {
			name = assets[i]
		}
		parts[i] = fmt.Sprintf("%s %.2f", name, w)
	}
	return strings.Join(parts, ", ")
}

const allocationSumTolerance = 1e-6
