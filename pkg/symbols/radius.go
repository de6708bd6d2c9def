package symbols

import (
	"fmt"
	"math"
)

const (
	// DefaultMinRadius is the radius of a symbol at the global minimum,
	// before compensation.
	DefaultMinRadius = 3.0

	flanneryScale    = 1.0083
	flanneryExponent = 0.5715
)

// Radius converts value into a symbol radius with Flannery's appearance
// compensation:
//
//	radius = 1.0083 * (value / globalMin)^0.5715 * minRadius
//
// It fails with ErrDomain when globalMin is not positive or value is
// negative.
func Radius(value, globalMin, minRadius float64) (float64, error) {
	if !(globalMin > 0) || math.IsInf(globalMin, 0) {
		return 0, fmt.Errorf("%w: global minimum %v is not positive", ErrDomain, globalMin)
	}
	if value < 0 || math.IsNaN(value) {
		return 0, fmt.Errorf("%w: value %v is negative", ErrDomain, value)
	}
	return flanneryScale * math.Pow(value/globalMin, flanneryExponent) * minRadius, nil
}
