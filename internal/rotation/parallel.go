package rotation

import (
	"context"
	"sync"

	"github.com/san-kum/rotcurve/internal/potential"
)

// CurveAll evaluates every model concurrently. Results keep the input order;
// the first failing model (in input order) determines the returned error.
func (e *Engine) CurveAll(ctx context.Context, models []potential.Model) ([]*Curve, error) {
	curves := make([]*Curve, len(models))
	errs := make([]error, len(models))

	var wg sync.WaitGroup
	for i, m := range models {
		wg.Add(1)
		go func(idx int, m potential.Model) {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}
			curves[idx], errs[idx] = e.Curve(m)
		}(i, m)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return curves, nil
}

// Ensemble builds one model per spec on a shared grid and derives all curves.
type Ensemble struct {
	registry *potential.Registry
	engine   *Engine
}

func NewEnsemble(reg *potential.Registry, engine *Engine) *Ensemble {
	return &Ensemble{registry: reg, engine: engine}
}

func (en *Ensemble) Run(ctx context.Context, grid potential.Grid, specs []potential.Spec) ([]*Curve, error) {
	models, err := en.registry.BuildAll(grid, specs)
	if err != nil {
		return nil, err
	}
	return en.engine.CurveAll(ctx, models)
}
