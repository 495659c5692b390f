package opt

import "math"

// Objective maps a point of the search space to a scalar score. It must be
// pure and must not retain or modify x.
type Objective func(x []float64) float64

// Goal selects whether lower or higher scores are better.
type Goal int

const (
	Minimize Goal = iota
	Maximize
)

func (g Goal) String() string {
	if g == Maximize {
		return "max"
	}
	return "min"
}

// Better reports whether score a is strictly better than score b.
func (g Goal) Better(a, b float64) bool {
	if g == Maximize {
		return a > b
	}
	return a < b
}

// Worst is the identity value for best tracking: +Inf when minimizing,
// -Inf when maximizing.
func (g Goal) Worst() float64 {
	if g == Maximize {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// cost orients a score so that lower is always better.
func (g Goal) cost(score float64) float64 {
	if g == Maximize {
		return -score
	}
	return score
}

// Candidate is a point of the search space with its cached score.
type Candidate struct {
	Position []float64 `json:"position"`
	Score    float64   `json:"score"`
}

// Clone returns a deep copy of c.
func (c Candidate) Clone() Candidate {
	return Candidate{
		Position: append([]float64(nil), c.Position...),
		Score:    c.Score,
	}
}

// Evaluate scores pos with obj and returns a new Candidate that owns a copy of
// pos.
func Evaluate(obj Objective, pos []float64) (Candidate, error) {
	p := append([]float64(nil), pos...)
	score, err := checkFinite(p, obj(p))
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{Position: p, Score: score}, nil
}

func checkFinite(pos []float64, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v, &NonFiniteError{Position: append([]float64(nil), pos...), Value: v}
	}
	return v, nil
}

// Best accumulates the best Candidate seen during a run. Offer is the only
// way to update it.
type Best struct {
	goal Goal
	cand Candidate
}

// NewBest returns an empty accumulator whose score is goal.Worst().
func NewBest(goal Goal) *Best {
	return &Best{goal: goal, cand: Candidate{Score: goal.Worst()}}
}

// Offer records a copy of c if it strictly improves the current best and
// reports whether it did.
func (b *Best) Offer(c Candidate) bool {
	if b.cand.Position != nil && !b.goal.Better(c.Score, b.cand.Score) {
		return false
	}
	b.cand = c.Clone()
	return true
}

// Candidate returns a copy of the best Candidate.
func (b *Best) Candidate() Candidate { return b.cand.Clone() }

// Score returns the best score, or goal.Worst() when nothing was offered.
func (b *Best) Score() float64 { return b.cand.Score }
