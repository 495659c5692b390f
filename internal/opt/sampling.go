package opt

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// weightFloor keeps fitness-proportional weights strictly positive.
const weightFloor = 1e-10

// probabilities normalizes w to sum to one. Negative entries count as zero.
// If the total is zero or not finite the result is uniform.
func probabilities(w []float64) []float64 {
	p := make([]float64, len(w))
	total := 0.0
	for i, v := range w {
		if v > 0 {
			p[i] = v
			total += v
		}
	}
	if total <= 0 || math.IsInf(total, 0) || math.IsNaN(total) {
		for i := range p {
			p[i] = 1 / float64(len(p))
		}
		return p
	}
	floats.Scale(1/total, p)
	return p
}

// roulette draws an index with probability proportional to w.
func roulette(rng *rand.Rand, w []float64) int {
	p := probabilities(w)
	r := rng.Float64()
	acc := 0.0
	for i, v := range p {
		acc += v
		if r < acc {
			return i
		}
	}
	// rounding left r above the cumulative sum; take the last candidate
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] > 0 {
			return i
		}
	}
	return len(p) - 1
}

// sampleWithoutReplacement draws k distinct indices, each draw proportional to
// the weights of the indices not yet drawn. k must not exceed len(w).
func sampleWithoutReplacement(rng *rand.Rand, w []float64, k int) []int {
	remaining := append([]float64(nil), w...)
	picked := make([]int, 0, k)
	taken := make([]bool, len(w))
	for len(picked) < k {
		live := make([]float64, len(remaining))
		liveSum := 0.0
		for i, v := range remaining {
			if !taken[i] && v > 0 {
				live[i] = v
				liveSum += v
			}
		}
		if liveSum <= 0 || math.IsInf(liveSum, 0) || math.IsNaN(liveSum) {
			// every untaken weight collapsed: uniform over the untaken indices
			for i := range live {
				if !taken[i] {
					live[i] = 1
				}
			}
		}
		idx := roulette(rng, live)
		taken[idx] = true
		picked = append(picked, idx)
	}
	return picked
}

// shiftedWeights turns raw scores into strictly positive weights by shifting
// them so the smallest becomes weightFloor. The orientation ignores the goal:
// a larger raw score always gets a larger weight.
func shiftedWeights(scores []float64) []float64 {
	w := make([]float64, len(scores))
	lowest := floats.Min(scores)
	for i, s := range scores {
		w[i] = s - lowest + weightFloor
	}
	return w
}
