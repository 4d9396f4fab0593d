package utils

import "math"

// Round2 rounds v to two decimal places, half away from zero. All monetary
// amounts in the system are normalized through this before persistence.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
