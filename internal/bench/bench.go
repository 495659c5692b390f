// Package bench provides benchmark landscapes with known optima for
// exercising the optimizers, from
// http://en.wikipedia.org/wiki/Test_functions_for_optimization and
// https://www.sfu.ca/~ssurjano/optimization.html.
package bench

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/metaopt/internal/opt"
)

var (
	sin  = math.Sin
	cos  = math.Cos
	abs  = math.Abs
	exp  = math.Exp
	sqrt = math.Sqrt
)

// ErrUnknownFunc is returned by New for names not in the catalogue.
var ErrUnknownFunc = errors.New("unknown benchmark function")

// Func is a benchmark objective. Every Func is minimized.
type Func interface {
	Name() string
	Eval(x []float64) float64
	Bounds() opt.Bounds
	Optima() []opt.Candidate
}

type constructor struct {
	defaultDim int
	// fixedDim is non-zero for functions only defined in that many dimensions.
	fixedDim int
	build    func(dim int) Func
}

var catalogue = map[string]constructor{
	"sphere":      {defaultDim: 2, build: func(n int) Func { return Sphere{NDim: n} }},
	"rosenbrock":  {defaultDim: 2, build: func(n int) Func { return Rosenbrock{NDim: n} }},
	"ackley":      {defaultDim: 2, build: func(n int) Func { return Ackley{NDim: n} }},
	"griewank":    {defaultDim: 10, build: func(n int) Func { return Griewank{NDim: n} }},
	"schwefel":    {defaultDim: 2, build: func(n int) Func { return Schwefel{NDim: n} }},
	"zakharov":    {defaultDim: 2, build: func(n int) Func { return Zakharov{NDim: n} }},
	"rastrigin":   {defaultDim: 2, build: func(n int) Func { return Rastrigin{NDim: n} }},
	"michalewicz": {defaultDim: 2, build: func(n int) Func { return Michalewicz{NDim: n} }},
	"levy13":      {fixedDim: 2, build: func(int) Func { return Levy13{} }},
	"holdertable": {fixedDim: 2, build: func(int) Func { return HolderTable{} }},
	"dropwave":    {fixedDim: 2, build: func(int) Func { return DropWave{} }},
	"langermann":  {fixedDim: 2, build: func(int) Func { return Langermann{} }},
}

// Names lists the catalogue keys accepted by New, sorted.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the named function in dim dimensions. A dim of zero selects the
// function's default. Names are case-insensitive.
func New(name string, dim int) (Func, error) {
	c, ok := catalogue[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunc, name)
	}
	if dim < 0 {
		return nil, fmt.Errorf("%s: dimension must not be negative, got %d", name, dim)
	}
	if c.fixedDim != 0 {
		if dim != 0 && dim != c.fixedDim {
			return nil, fmt.Errorf("%s is only defined in %d dimensions, got %d", name, c.fixedDim, dim)
		}
		return c.build(c.fixedDim), nil
	}
	if dim == 0 {
		dim = c.defaultDim
	}
	return c.build(dim), nil
}

// Solved reports whether best is within tol of fn's optimum value, using
// the same relative threshold with an absolute floor of 0.001.
func Solved(fn Func, best opt.Candidate, tol float64) bool {
	optima := fn.Optima()
	if len(optima) == 0 {
		return false
	}
	optimum := optima[0].Score
	thresh := math.Max(tol*abs(optimum), 0.001)
	return abs(optimum-best.Score) < thresh
}

func fill(n int, v float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = v
	}
	return x
}

func point(pos []float64, score float64) opt.Candidate {
	return opt.Candidate{Position: pos, Score: score}
}

type Sphere struct {
	NDim int
}

func (fn Sphere) Name() string { return fmt.Sprintf("Sphere_%vD", fn.NDim) }

func (fn Sphere) Eval(x []float64) float64 { return floats.Dot(x, x) }

func (fn Sphere) Bounds() opt.Bounds { return opt.Uniform(-5.12, 5.12, fn.NDim) }

func (fn Sphere) Optima() []opt.Candidate {
	return []opt.Candidate{point(make([]float64, fn.NDim), 0)}
}

type Rosenbrock struct {
	NDim int
}

func (fn Rosenbrock) Name() string { return fmt.Sprintf("Rosenbrock_%vD", fn.NDim) }

func (fn Rosenbrock) Eval(x []float64) float64 {
	tot := 0.0
	for i := 0; i < len(x)-1; i++ {
		tot += 100*math.Pow(x[i+1]-x[i]*x[i], 2) + math.Pow(x[i]-1, 2)
	}
	return tot
}

func (fn Rosenbrock) Bounds() opt.Bounds { return opt.Uniform(-5, 10, fn.NDim) }

func (fn Rosenbrock) Optima() []opt.Candidate {
	return []opt.Candidate{point(fill(fn.NDim, 1), 0)}
}

type Ackley struct {
	NDim int
}

func (fn Ackley) Name() string { return fmt.Sprintf("Ackley_%vD", fn.NDim) }

func (fn Ackley) Eval(x []float64) float64 {
	n := float64(len(x))
	sum2 := 0.0
	for _, v := range x {
		sum2 += cos(2 * math.Pi * v)
	}
	return -20*exp(-0.2*sqrt(floats.Dot(x, x)/n)) - exp(sum2/n) + 20 + math.E
}

func (fn Ackley) Bounds() opt.Bounds { return opt.Uniform(-5, 5, fn.NDim) }

func (fn Ackley) Optima() []opt.Candidate {
	return []opt.Candidate{point(make([]float64, fn.NDim), 0)}
}

type Griewank struct {
	NDim int
}

func (fn Griewank) Name() string { return fmt.Sprintf("Griewank_%vD", fn.NDim) }

func (fn Griewank) Eval(x []float64) float64 {
	prod := 1.0
	for i, v := range x {
		prod *= cos(v / sqrt(float64(i+1)))
	}
	return 1 + floats.Dot(x, x)/4000 - prod
}

func (fn Griewank) Bounds() opt.Bounds { return opt.Uniform(-600, 600, fn.NDim) }

func (fn Griewank) Optima() []opt.Candidate {
	return []opt.Candidate{point(make([]float64, fn.NDim), 0)}
}

type Schwefel struct {
	NDim int
}

func (fn Schwefel) Name() string { return fmt.Sprintf("Schwefel_%vD", fn.NDim) }

func (fn Schwefel) Eval(x []float64) float64 {
	tot := 418.9829 * float64(len(x))
	for _, v := range x {
		tot -= v * sin(sqrt(abs(v)))
	}
	return tot
}

func (fn Schwefel) Bounds() opt.Bounds { return opt.Uniform(-500, 500, fn.NDim) }

func (fn Schwefel) Optima() []opt.Candidate {
	pos := fill(fn.NDim, 420.9687)
	return []opt.Candidate{point(pos, fn.Eval(pos))}
}

type Zakharov struct {
	NDim int
}

func (fn Zakharov) Name() string { return fmt.Sprintf("Zakharov_%vD", fn.NDim) }

func (fn Zakharov) Eval(x []float64) float64 {
	weighted := 0.0
	for i, v := range x {
		weighted += 0.5 * float64(i+1) * v
	}
	return floats.Dot(x, x) + math.Pow(weighted, 2) + math.Pow(weighted, 4)
}

func (fn Zakharov) Bounds() opt.Bounds { return opt.Uniform(-5, 5, fn.NDim) }

func (fn Zakharov) Optima() []opt.Candidate {
	return []opt.Candidate{point(make([]float64, fn.NDim), 0)}
}

type Rastrigin struct {
	NDim int
}

func (fn Rastrigin) Name() string { return fmt.Sprintf("Rastrigin_%vD", fn.NDim) }

func (fn Rastrigin) Eval(x []float64) float64 {
	tot := 10 * float64(len(x))
	for _, v := range x {
		tot += v*v - 10*cos(2*math.Pi*v)
	}
	return tot
}

func (fn Rastrigin) Bounds() opt.Bounds { return opt.Uniform(-5.12, 5.12, fn.NDim) }

func (fn Rastrigin) Optima() []opt.Candidate {
	return []opt.Candidate{point(make([]float64, fn.NDim), 0)}
}

// Michalewicz uses steepness m = 10.
type Michalewicz struct {
	NDim int
}

func (fn Michalewicz) Name() string { return fmt.Sprintf("Michalewicz_%vD", fn.NDim) }

func (fn Michalewicz) Eval(x []float64) float64 {
	const m = 10
	tot := 0.0
	for i, v := range x {
		tot += sin(v) * math.Pow(sin(float64(i+1)*v*v/math.Pi), 2*m)
	}
	return -tot
}

func (fn Michalewicz) Bounds() opt.Bounds { return opt.Uniform(0, math.Pi, fn.NDim) }

// Optima is only known in closed form for the 2-D case.
func (fn Michalewicz) Optima() []opt.Candidate {
	if fn.NDim != 2 {
		return nil
	}
	return []opt.Candidate{point([]float64{2.20290552, 1.57079633}, -1.8013)}
}

// Levy13 is Lévy function N.13.
type Levy13 struct{}

func (fn Levy13) Name() string { return "Levy13" }

func (fn Levy13) Eval(v []float64) float64 {
	x, y := v[0], v[1]
	return math.Pow(sin(3*math.Pi*x), 2) +
		(x-1)*(x-1)*(1+math.Pow(sin(3*math.Pi*y), 2)) +
		(y-1)*(y-1)*(1+math.Pow(sin(2*math.Pi*y), 2))
}

func (fn Levy13) Bounds() opt.Bounds { return opt.Uniform(-10, 10, 2) }

func (fn Levy13) Optima() []opt.Candidate {
	return []opt.Candidate{point([]float64{1, 1}, 0)}
}

type HolderTable struct{}

func (fn HolderTable) Name() string { return "HolderTable" }

func (fn HolderTable) Eval(v []float64) float64 {
	x, y := v[0], v[1]
	return -abs(sin(x) * cos(y) * exp(abs(1-sqrt(x*x+y*y)/math.Pi)))
}

func (fn HolderTable) Bounds() opt.Bounds { return opt.Uniform(-10, 10, 2) }

func (fn HolderTable) Optima() []opt.Candidate {
	return []opt.Candidate{
		point([]float64{8.05502, 9.66459}, -19.2085),
		point([]float64{-8.05502, 9.66459}, -19.2085),
		point([]float64{8.05502, -9.66459}, -19.2085),
		point([]float64{-8.05502, -9.66459}, -19.2085),
	}
}

type DropWave struct{}

func (fn DropWave) Name() string { return "DropWave" }

func (fn DropWave) Eval(v []float64) float64 {
	r2 := v[0]*v[0] + v[1]*v[1]
	return -(1 + cos(12*sqrt(r2))) / (0.5*r2 + 2)
}

func (fn DropWave) Bounds() opt.Bounds { return opt.Uniform(-5.12, 5.12, 2) }

func (fn DropWave) Optima() []opt.Candidate {
	return []opt.Candidate{point([]float64{0, 0}, -1)}
}

// Langermann is the negated Langermann function with the four-term
// coefficient set A = {(3,5), (5,2), (2,1), (1,4)}, c = {1, 2, 5, 2}.
type Langermann struct{}

var (
	langermannA = [][2]float64{{3, 5}, {5, 2}, {2, 1}, {1, 4}}
	langermannC = []float64{1, 2, 5, 2}
)

func (fn Langermann) Name() string { return "Langermann" }

func (fn Langermann) Eval(v []float64) float64 {
	tot := 0.0
	for i, a := range langermannA {
		d := (v[0]-a[0])*(v[0]-a[0]) + (v[1]-a[1])*(v[1]-a[1])
		tot += langermannC[i] * exp(-d/math.Pi) * cos(math.Pi*d)
	}
	return -tot
}

func (fn Langermann) Bounds() opt.Bounds { return opt.Uniform(0, 10, 2) }

func (fn Langermann) Optima() []opt.Candidate {
	return []opt.Candidate{point([]float64{2.00299219, 1.006096}, -5.1621259)}
}
