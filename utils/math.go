// Package utils contains shared math helpers used across the planner.
package utils

import "math"

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Float64AlmostEqual compares two float64s and returns if their difference is less than epsilon.
func Float64AlmostEqual(v1, v2, epsilon float64) bool {
	return math.Abs(v1-v2) < epsilon
}

// WrapAngle wraps an angle in radians into the interval [-pi, pi).
func WrapAngle(theta float64) float64 {
	wrapped := math.Mod(theta+math.Pi, 2*math.Pi)
	if wrapped < 0 {
		wrapped += 2 * math.Pi
	}
	return wrapped - math.Pi
}

// AngleDiff returns the magnitude of the shortest angular distance between two
// angles given in radians. The arguments are commutative.
func AngleDiff(a1, a2 float64) float64 {
	return math.Pi - math.Abs(math.Abs(a1-a2)-math.Pi)
}

// Clamp returns the given value if it is within [min, max], otherwise the nearer bound.
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// AbsInt returns the absolute value of the given int.
func AbsInt(n int) int {
	if n < 0 {
		return -1 * n
	}
	return n
}
