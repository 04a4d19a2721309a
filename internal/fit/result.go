package fit

import (
	"math"

	"github.com/san-kum/rotcurve/internal/potential"
	"github.com/san-kum/rotcurve/internal/units"
)

// Param is one fitted parameter. Value is in Unit; Free and StdErr are in
// the optimizer's space (log10 for log parameters).
type Param struct {
	Name   string  `json:"name" yaml:"name"`
	Value  float64 `json:"value" yaml:"value"`
	Unit   string  `json:"unit" yaml:"unit"`
	Log    bool    `json:"log,omitempty" yaml:"log,omitempty"`
	Free   float64 `json:"free" yaml:"free"`
	StdErr float64 `json:"std_err,omitempty" yaml:"std_err,omitempty"`
}

// Result is a best-fit parameter vector and its chi-square. It is created
// once per fit and never modified.
type Result struct {
	Family      Family    `json:"family" yaml:"family"`
	Params      []Param   `json:"params" yaml:"params"`
	Free        []float64 `json:"free" yaml:"free"`
	ChiSquare   float64   `json:"chi_square" yaml:"chi_square"`
	Points      int       `json:"points" yaml:"points"`
	Iterations  int       `json:"iterations" yaml:"iterations"`
	Evaluations int       `json:"evaluations" yaml:"evaluations"`
}

// DegreesOfFreedom is the number of points minus the number of parameters.
func (r *Result) DegreesOfFreedom() int { return r.Points - len(r.Free) }

// ReducedChiSquare is χ²/dof, or NaN when dof <= 0.
func (r *Result) ReducedChiSquare() float64 {
	dof := r.DegreesOfFreedom()
	if dof <= 0 {
		return math.NaN()
	}
	return r.ChiSquare / float64(dof)
}

func (r *Result) Param(name string) (Param, bool) {
	for _, p := range r.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Predict evaluates the fitted law at radii in meters.
func (r *Result) Predict(sys units.System, radii []float64) ([]float64, error) {
	return Predict(sys, r.Family, r.Free, radii)
}

// Spec maps the fit onto the potential family with the same parameters so
// the fitted model can be drawn as a potential-derived curve. Kuzmin has no
// potential counterpart.
func (r *Result) Spec() (potential.Spec, bool) {
	switch r.Family {
	case Plummer:
		return potential.Spec{Family: potential.Plummer, Mass: r.Params[0].Value, ScaleRadius: r.Params[1].Value}, true
	case NFW:
		return potential.Spec{Family: potential.NFWDensity, Density: r.Params[0].Value, ScaleRadius: r.Params[1].Value}, true
	case Freeman:
		return potential.Spec{Family: potential.ExponentialDisk, SurfaceDensity: r.Params[0].Value, ScaleRadius: r.Params[1].Value}, true
	case Isothermal:
		return potential.Spec{Family: potential.Isothermal, Dispersion: r.Params[0].Value}, true
	}
	return potential.Spec{}, false
}

func newResult(family Family, lw *law, free []float64, chi2 float64, points int) *Result {
	res := &Result{
		Family:    family,
		Free:      append([]float64(nil), free...),
		ChiSquare: chi2,
		Points:    points,
		Params:    make([]Param, lw.dim()),
	}
	for i, def := range lw.params {
		v := free[i]
		if def.log {
			v = math.Pow(10, v)
		}
		res.Params[i] = Param{Name: def.name, Value: v, Unit: def.unit, Log: def.log, Free: free[i]}
	}
	return res
}
