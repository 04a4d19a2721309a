package optim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/optimize"
)

var (
	// ErrEmptyStart indicates a zero-dimensional starting point.
	ErrEmptyStart = errors.New("optim: empty starting point")

	// ErrInfeasibleStart indicates the objective is not finite at the start.
	ErrInfeasibleStart = errors.New("optim: objective not finite at starting point")

	// ErrNoFeasiblePoint indicates a grid search where every point was infinite.
	ErrNoFeasiblePoint = errors.New("optim: no feasible point in search grid")
)

// Objective maps a parameter vector to the value to minimize. Infeasible
// points should return +Inf.
type Objective func(x []float64) float64

// Settings bounds a Minimize run.
type Settings struct {
	MaxIterations  int `yaml:"max_iterations" json:"max_iterations"`
	MaxEvaluations int `yaml:"max_evaluations" json:"max_evaluations"`
	// Timeout is a wall-clock limit, zero for none. A run cut short by it
	// depends on machine load, so results are only reproducible without it.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// SimplexSize is the edge length of the initial simplex around x0.
	SimplexSize float64 `yaml:"simplex_size" json:"simplex_size"`
	// Tolerance is the relative change in f below which a run has converged.
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
	// Patience is how many iterations f must stay within Tolerance.
	Patience int `yaml:"patience" json:"patience"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxIterations:  4000,
		MaxEvaluations: 20000,
		SimplexSize:    0.5,
		Tolerance:      1e-10,
		Patience:       50,
	}
}

// Outcome is the last iterate of a run. Converged is false when a budget
// ran out first.
type Outcome struct {
	X           []float64
	F           float64
	Iterations  int
	Evaluations int
	Runtime     time.Duration
	Converged   bool
	Status      optimize.Status
}

// Minimize runs Nelder–Mead from x0. A run that exhausts a budget returns the
// best point found with Converged=false and a nil error; errors are reserved
// for runs that could not start or failed inside the method.
func Minimize(f Objective, x0 []float64, s Settings) (*Outcome, error) {
	if len(x0) == 0 {
		return nil, ErrEmptyStart
	}
	if v := f(x0); math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: f(%v) = %v", ErrInfeasibleStart, x0, v)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			v := f(x)
			if math.IsNaN(v) {
				return math.Inf(1)
			}
			return v
		},
	}

	settings := &optimize.Settings{
		MajorIterations: s.MaxIterations,
		FuncEvaluations: s.MaxEvaluations,
		Runtime:         s.Timeout,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-14,
			Relative:   s.Tolerance,
			Iterations: s.Patience,
		},
	}

	method := &optimize.NelderMead{SimplexSize: s.SimplexSize}

	res, err := optimize.Minimize(problem, x0, settings, method)
	if res == nil {
		return nil, fmt.Errorf("optim: nelder-mead: %w", err)
	}

	out := &Outcome{
		X:           append([]float64(nil), res.X...),
		F:           res.F,
		Iterations:  res.MajorIterations,
		Evaluations: res.FuncEvaluations,
		Runtime:     res.Runtime,
		Status:      res.Status,
	}

	// Budget exhaustion is checked before err: gonum may report it both ways.
	if exhausted(res.Status) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("optim: nelder-mead: %w", err)
	}
	out.Converged = true
	return out, nil
}

func exhausted(s optimize.Status) bool {
	switch s {
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
		return true
	}
	return false
}
