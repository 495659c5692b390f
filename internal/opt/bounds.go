package opt

import (
	"math"
	"math/rand"
)

// Interval is a closed range [Low, High] for one dimension.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Bounds is the feasible box of a search. Lower[i] and Upper[i] limit
// dimension i; the number of dimensions is len(Lower).
type Bounds struct {
	Lower []float64
	Upper []float64
}

// Uniform returns dim-dimensional bounds that apply [low, high] to every
// dimension.
func Uniform(low, high float64, dim int) Bounds {
	b := Bounds{
		Lower: make([]float64, dim),
		Upper: make([]float64, dim),
	}
	for i := 0; i < dim; i++ {
		b.Lower[i] = low
		b.Upper[i] = high
	}
	return b
}

// PerDimension builds bounds from a mapping of dimension index to interval.
// The keys must be exactly 0..len(intervals)-1.
func PerDimension(intervals map[int]Interval) (Bounds, error) {
	n := len(intervals)
	b := Bounds{
		Lower: make([]float64, n),
		Upper: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		iv, ok := intervals[i]
		if !ok {
			return Bounds{}, configErrorf("Bounds", "missing interval for dimension %d", i)
		}
		b.Lower[i] = iv.Low
		b.Upper[i] = iv.High
	}
	return b, b.Validate()
}

// Dim returns the number of dimensions.
func (b Bounds) Dim() int { return len(b.Lower) }

// Validate checks that every interval is finite and satisfies low <= high.
func (b Bounds) Validate() error {
	if len(b.Lower) == 0 {
		return configErrorf("Bounds", "must have at least one dimension")
	}
	if len(b.Lower) != len(b.Upper) {
		return configErrorf("Bounds", "lower has %d dimensions, upper has %d", len(b.Lower), len(b.Upper))
	}
	for i := range b.Lower {
		lo, hi := b.Lower[i], b.Upper[i]
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return configErrorf("Bounds", "dimension %d is not finite", i)
		}
		if lo > hi {
			return configErrorf("Bounds", "dimension %d has low %v > high %v", i, lo, hi)
		}
	}
	return nil
}

// IsUniform reports whether every dimension shares the same interval.
func (b Bounds) IsUniform() bool {
	for i := 1; i < len(b.Lower); i++ {
		if b.Lower[i] != b.Lower[0] || b.Upper[i] != b.Upper[0] {
			return false
		}
	}
	return true
}

// Clip projects x into the box in place and returns it. A NaN component,
// which an unbounded velocity can produce, is moved to the interval midpoint.
func (b Bounds) Clip(x []float64) []float64 {
	for i := range x {
		if math.IsNaN(x[i]) {
			x[i] = b.Lower[i] + (b.Upper[i]-b.Lower[i])/2
			continue
		}
		x[i] = math.Max(b.Lower[i], math.Min(b.Upper[i], x[i]))
	}
	return x
}

// Contains reports whether every component of x lies inside its interval.
func (b Bounds) Contains(x []float64) bool {
	if len(x) != len(b.Lower) {
		return false
	}
	for i, v := range x {
		if v < b.Lower[i] || v > b.Upper[i] {
			return false
		}
	}
	return true
}

// Sample draws a point uniformly inside the box.
func (b Bounds) Sample(rng *rand.Rand) []float64 {
	x := make([]float64, len(b.Lower))
	for i := range x {
		x[i] = b.Lower[i] + rng.Float64()*(b.Upper[i]-b.Lower[i])
	}
	// rounding can land one ulp past Upper
	return b.Clip(x)
}

func (b Bounds) clone() Bounds {
	return Bounds{
		Lower: append([]float64(nil), b.Lower...),
		Upper: append([]float64(nil), b.Upper...),
	}
}
