package utils

import "math"

// Round2 rounds to 2 decimal places, used for money fields and distances.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// Round1 rounds to 1 decimal place, used for rating averages.
func Round1(value float64) float64 {
	return math.Round(value*10) / 10
}
