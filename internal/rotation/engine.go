package rotation

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/rotcurve/internal/potential"
	"github.com/san-kum/rotcurve/internal/units"
)

var (
	// ErrNoAnalyticDerivative is returned when Analytic is forced on a model
	// without a closed-form derivative.
	ErrNoAnalyticDerivative = errors.New("rotation: model has no analytic derivative")

	// ErrNonFinite indicates a NaN or infinite velocity in a derived curve.
	ErrNonFinite = errors.New("rotation: non-finite velocity")
)

// Method selects how dΦ/dr is obtained. On a Curve it records the path taken.
type Method int

const (
	// Auto uses a closed form when the model offers one.
	Auto Method = iota
	// Analytic requires the closed-form derivative.
	Analytic
	// Numeric always differentiates the sampled potential.
	Numeric
	// Constant marks curves taken from a ConstantVelocity model.
	Constant
)

func (m Method) String() string {
	switch m {
	case Auto:
		return "auto"
	case Analytic:
		return "analytic"
	case Numeric:
		return "numeric"
	case Constant:
		return "constant"
	}
	return fmt.Sprintf("method(%d)", int(m))
}

func ParseMethod(s string) (Method, error) {
	for _, m := range []Method{Auto, Analytic, Numeric} {
		if m.String() == s {
			return m, nil
		}
	}
	return Auto, fmt.Errorf("rotation: unknown method %q", s)
}

// Curve is a circular-velocity curve in m/s, one value per grid radius.
type Curve struct {
	Family   potential.Family
	Grid     potential.Grid
	Velocity []float64
	Method   Method
}

func (c *Curve) Len() int { return len(c.Velocity) }

// Kpc returns the curve as parallel radius (kpc) and velocity (km/s) slices.
func (c *Curve) Kpc(sys units.System) (radius, velocity []float64) {
	return c.Grid.Kpc(sys), sys.MsToKmsSlice(c.Velocity)
}

type Engine struct {
	method Method
}

func NewEngine(method Method) *Engine {
	return &Engine{method: method}
}

func (e *Engine) Method() Method { return e.method }

// Curve derives the rotation curve of m. ConstantVelocity models bypass
// differentiation under every method.
func (e *Engine) Curve(m potential.Model) (*Curve, error) {
	grid := m.Grid()
	if grid.IsZero() {
		return nil, ErrGridTooShort
	}

	if cv, ok := m.(potential.ConstantVelocity); ok {
		v := cv.CircularVelocity()
		vel := make([]float64, grid.Len())
		for i := range vel {
			vel[i] = v
		}
		return &Curve{Family: m.Family(), Grid: grid, Velocity: vel, Method: Constant}, nil
	}

	var (
		dphi   []float64
		method Method
	)

	d, differentiable := m.(potential.Differentiable)
	switch {
	case e.method == Numeric || (e.method == Auto && !differentiable):
		var err error
		dphi, err = Gradient(m.Potential(), grid.Radii())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Family(), err)
		}
		method = Numeric
	case differentiable:
		dphi = d.Derivative()
		method = Analytic
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoAnalyticDerivative, m.Family())
	}

	vel := make([]float64, len(dphi))
	for i, g := range dphi {
		v := math.Sqrt(grid.At(i) * math.Abs(g))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s at index %d", ErrNonFinite, m.Family(), i)
		}
		vel[i] = v
	}

	return &Curve{Family: m.Family(), Grid: grid, Velocity: vel, Method: method}, nil
}
