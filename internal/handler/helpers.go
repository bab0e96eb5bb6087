package handler

import "math"

// finite rejects NaN and ±Inf coordinates before they poison the registry.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
