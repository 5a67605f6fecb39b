package insight

import "math"

// norm returns the L2 norm of v.
func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// normalize returns v scaled to unit length. A zero-norm vector is returned
// unchanged rather than producing NaNs.
func normalize(v []float64) []float64 {
	n := norm(v)
	out := make([]float64, len(v))
	if n == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

// dot returns the dot product of a and b. For unit vectors this is the
// cosine similarity.
func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// mean returns the element-wise mean of the given vectors.
func mean(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	out := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		for i, x := range v {
			out[i] += x
		}
	}
	n := float64(len(vectors))
	for i := range out {
		out[i] /= n
	}
	return out
}
