package common

import "math"

// DecimalToFixed rounds num half away from zero to precision decimal places.
// NaN and infinities are returned unchanged.
func DecimalToFixed(num float64, precision int) float64 {
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return num
	}
	scale := math.Pow(10, float64(precision))
	return math.Round(num*scale) / scale
}
