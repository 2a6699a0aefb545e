package math

import "math"

// Vec2 is a 2D vector, used for texture coordinates.
type Vec2 struct {
	X, Y float32
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Cross returns the z component of the 3D cross product (signed parallelogram area).
func (v Vec2) Cross(other Vec2) float32 {
	return v.X*other.Y - v.Y*other.X
}

// Round returns v with both components rounded to the given number of decimal digits.
// Rounding is done in float64, half away from zero.
func (v Vec2) Round(digits int) Vec2 {
	p := math.Pow10(digits)
	return Vec2{
		float32(math.Round(float64(v.X)*p) / p),
		float32(math.Round(float64(v.Y)*p) / p),
	}
}

// Array returns the components as a [2]float32.
func (v Vec2) Array() [2]float32 {
	return [2]float32{v.X, v.Y}
}
