package embedding

import "math"

// Normalize returns a unit-length copy of v. Zero and empty vectors are
// returned as zero vectors of the same length.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}

	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
