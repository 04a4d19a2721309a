package fit

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/sgostarter/i/l"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rotcurve/internal/dataset"
	"github.com/san-kum/rotcurve/internal/optim"
	"github.com/san-kum/rotcurve/internal/units"
)

type Options struct {
	settings      optim.Settings
	policy        dataset.SigmaPolicy
	uncertainties bool
}

type Option func(o *Options)

func SettingsOption(s optim.Settings) Option {
	return func(o *Options) {
		o.settings = s
	}
}

func SigmaPolicyOption(p dataset.SigmaPolicy) Option {
	return func(o *Options) {
		o.policy = p
	}
}

// NoUncertaintiesOption skips the Hessian-based standard errors.
func NoUncertaintiesOption() Option {
	return func(o *Options) {
		o.uncertainties = false
	}
}

// Engine fits velocity laws to datasets. It holds no per-fit state and may be
// shared between goroutines.
type Engine struct {
	sys    units.System
	opts   Options
	logger l.Wrapper
}

func NewEngine(sys units.System, logger l.Wrapper, opts ...Option) *Engine {
	if logger == nil {
		logger = l.NewNopLoggerWrapper()
	}

	o := Options{
		settings:      optim.DefaultSettings(),
		policy:        dataset.DefaultPolicy,
		uncertainties: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Engine{
		sys:    sys,
		opts:   o,
		logger: logger.WithFields(l.StringField(l.ClsKey, "fitEngine")),
	}
}

func (e *Engine) Policy() dataset.SigmaPolicy { return e.opts.policy }

// Fit minimizes χ² for family over ds starting from guess (free-space
// vector, see ParamNames). A nil guess is seeded by a coarse grid search.
// When the optimizer exhausts its budget the returned error is a
// *NonConvergenceError holding the last iterate.
func (e *Engine) Fit(ctx context.Context, family Family, ds *dataset.Dataset, guess []float64) (*Result, error) {
	obj, err := NewObjective(family, ds, e.opts.policy)
	if err != nil {
		return nil, err
	}

	logger := e.logger.WithFields(l.StringField("family", string(family)), l.IntField("points", ds.Len()))

	x0, err := e.start(ctx, obj, guess)
	if err != nil {
		logger.WithFields(l.ErrorField(err)).Error("no usable starting point")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := optim.Minimize(obj.Value, x0, e.opts.settings)
	if err != nil {
		logger.WithFields(l.ErrorField(err)).Error("minimize failed")
		return nil, fmt.Errorf("fit %s: %w", family, err)
	}

	res := newResult(family, obj.law, out.X, out.F, ds.Len())
	res.Iterations = out.Iterations
	res.Evaluations = out.Evaluations

	if !out.Converged {
		logger.WithFields(l.StringField("status", out.Status.String()), l.IntField("iterations", out.Iterations)).
			Error("fit did not converge")
		return nil, &NonConvergenceError{Last: res, Status: out.Status}
	}

	if e.opts.uncertainties {
		standardErrors(obj, res)
	}

	logger.WithFields(l.StringField("chi2", fmt.Sprintf("%.6g", res.ChiSquare)),
		l.IntField("iterations", res.Iterations)).Debug("fit done")

	return res, nil
}

func (e *Engine) start(ctx context.Context, obj *Objective, guess []float64) ([]float64, error) {
	if guess == nil {
		names := make([]string, obj.Dim())
		ranges := make([][]float64, obj.Dim())
		for i, p := range obj.law.params {
			names[i] = p.name
			ranges[i] = p.seed
		}

		best, err := optim.NewGridSearch(names, ranges).Search(ctx, obj.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: seed search: %v", ErrInvalidGuess, err)
		}
		return best.X, nil
	}

	if len(guess) != obj.Dim() {
		return nil, fmt.Errorf("%w: %s takes %d parameters %v, got %d",
			ErrInvalidGuess, obj.family, obj.Dim(), ParamNames(obj.family), len(guess))
	}
	if v := obj.Value(guess); math.IsInf(v, 0) || math.IsNaN(v) {
		return nil, fmt.Errorf("%w: objective is not finite at %v", ErrInvalidGuess, guess)
	}
	return append([]float64(nil), guess...), nil
}

// standardErrors fills Param.StdErr from the covariance 2·H⁻¹ of χ² at the
// minimum. Parameters are left at zero when H is not positive definite.
func standardErrors(obj *Objective, res *Result) {
	n := len(res.Free)
	h := mat.NewSymDense(n, nil)
	fd.Hessian(h, obj.Value, res.Free, nil)

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			if v := h.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(h); !ok {
		return
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return
	}
	for i := range res.Params {
		res.Params[i].StdErr = math.Sqrt(2 * cov.At(i, i))
	}
}

// Attempt is the outcome of one family in FitAll.
type Attempt struct {
	Family Family
	Result *Result
	Err    error
}

// FitAll fits several families to the same dataset concurrently, each seeded
// by grid search. Attempts keep the input order; one failure does not stop
// the others.
func (e *Engine) FitAll(ctx context.Context, families []Family, ds *dataset.Dataset) []Attempt {
	attempts := make([]Attempt, len(families))

	var wg sync.WaitGroup
	for i, f := range families {
		wg.Add(1)
		go func(idx int, f Family) {
			defer wg.Done()
			res, err := e.Fit(ctx, f, ds, nil)
			attempts[idx] = Attempt{Family: f, Result: res, Err: err}
		}(i, f)
	}

	wg.Wait()
	return attempts
}

// Predict evaluates a family's law in the engine's unit system.
func (e *Engine) Predict(family Family, free, radii []float64) ([]float64, error) {
	return Predict(e.sys, family, free, radii)
}
