package opt

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// Evaler scores a batch of positions. Implementations decide whether to
// evaluate serially or in parallel, but must return the scores in the order
// of positions and must report the first non-finite score (by index) as a
// *NonFiniteError.
type Evaler interface {
	Eval(obj Objective, positions [][]float64) ([]float64, error)
}

// SerialEvaler evaluates positions one after another on the calling
// goroutine.
type SerialEvaler struct{}

func (SerialEvaler) Eval(obj Objective, positions [][]float64) ([]float64, error) {
	scores := make([]float64, len(positions))
	for i, p := range positions {
		v, err := checkFinite(p, obj(p))
		if err != nil {
			return scores[:i], err
		}
		scores[i] = v
	}
	return scores, nil
}

// PoolEvaler evaluates a batch concurrently on a bounded goroutine pool. The
// objective must be safe for concurrent use. Randomness is never drawn inside
// the pool, so results are identical to SerialEvaler.
type PoolEvaler struct {
	// MaxGoroutines bounds the pool size. Values <= 0 use GOMAXPROCS.
	MaxGoroutines int
}

func (e PoolEvaler) Eval(obj Objective, positions [][]float64) ([]float64, error) {
	n := e.MaxGoroutines
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	scores := make([]float64, len(positions))
	p := pool.New().WithMaxGoroutines(n)
	for i := range positions {
		i := i
		p.Go(func() {
			scores[i] = obj(positions[i])
		})
	}
	p.Wait()

	for i, v := range scores {
		if _, err := checkFinite(positions[i], v); err != nil {
			return scores[:i], err
		}
	}
	return scores, nil
}
