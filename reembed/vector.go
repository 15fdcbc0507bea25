package reembed

import "math"

// NormalizeVector returns a unit-length copy of v. The sum of squares is
// accumulated in float64 so long vectors don't lose precision. A zero
// vector has no direction and comes back as a zero vector of the same
// length.
func NormalizeVector(v []float32) []float32 {
	out := make([]float32, len(v))

	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return out
	}

	scale := 1 / math.Sqrt(sumSquares)
	for i, val := range v {
		out[i] = float32(float64(val) * scale)
	}
	return out
}
