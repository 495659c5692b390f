package opt

import (
	"math"
	"math/rand"
)

// Neighborhood selects how tabu search generates neighbors of the current
// point.
type Neighborhood string

const (
	// NeighborhoodWindow draws each component uniformly from the step-wide
	// window around the current value, intersected with the bounds.
	NeighborhoodWindow Neighborhood = "window"
	// NeighborhoodStep adds uniform noise in [-step, step) to each component
	// and clips.
	NeighborhoodStep Neighborhood = "step"
	// NeighborhoodResample ignores the current point and samples the whole
	// box uniformly.
	NeighborhoodResample Neighborhood = "resample"
)

// uniformStep returns x + U(-step, step) per component, clipped to b.
func uniformStep(rng *rand.Rand, b Bounds, x []float64, step float64) []float64 {
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = v + step*(2*rng.Float64()-1)
	}
	return b.Clip(y)
}

// windowSample draws each component from [max(lo, x-step), min(hi, x+step)].
func windowSample(rng *rand.Rand, b Bounds, x []float64, step float64) []float64 {
	y := make([]float64, len(x))
	for i, v := range x {
		lo := math.Max(b.Lower[i], v-step)
		hi := math.Min(b.Upper[i], v+step)
		y[i] = lo + rng.Float64()*(hi-lo)
	}
	return b.Clip(y)
}

// randomDirection returns a vector with components drawn from U(-1, 1).
func randomDirection(rng *rand.Rand, n int) []float64 {
	d := make([]float64, n)
	for i := range d {
		d[i] = 2*rng.Float64() - 1
	}
	return d
}

// gaussianComponent returns x[i] moved by N(0, sigma), clipped to dimension i.
func gaussianComponent(rng *rand.Rand, b Bounds, x []float64, i int, sigma float64) float64 {
	return math.Max(b.Lower[i], math.Min(b.Upper[i], x[i]+sigma*rng.NormFloat64()))
}
