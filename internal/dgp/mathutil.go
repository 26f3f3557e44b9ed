package dgp

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
)

// pcgStream fixes the PCG increment so a seed alone determines the stream.
const pcgStream = 0x9e3779b97f4a7c15

// newSource returns a fresh generator owned by a single generation step.
func newSource(seed int64) rand.Source {
	return rand.NewPCG(uint64(seed), pcgStream)
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// zscore standardizes x with the population standard deviation. A constant
// input, including a single value, maps to all zeros.
func zscore(x []float64) []float64 {
	z := make([]float64, len(x))
	if len(x) == 0 {
		return z
	}
	mu, variance := stat.PopMeanVariance(x, nil)
	sigma := math.Sqrt(variance)
	if sigma == 0 {
		return z
	}
	for i, v := range x {
		z[i] = (v - mu) / sigma
	}
	return z
}

func repeatEach(x []float64, n int) []float64 {
	out := make([]float64, 0, len(x)*n)
	for _, v := range x {
		for range n {
			out = append(out, v)
		}
	}
	return out
}
