package fit

import (
	"fmt"
	"math"

	"github.com/san-kum/rotcurve/internal/dataset"
	"github.com/san-kum/rotcurve/internal/units"
)

// Objective is the chi-square of one family against one dataset:
//
//	χ² = Σ (v_obs,i - v_model(r_i))² / σ_i²
//
// with σ_i chosen by the dataset's SigmaPolicy. Parameter vectors outside
// the physical domain evaluate to +Inf.
type Objective struct {
	sys    units.System
	family Family
	law    *law
	ds     *dataset.Dataset
	policy dataset.SigmaPolicy
	radius []float64
	obs    []float64
}

func NewObjective(family Family, ds *dataset.Dataset, policy dataset.SigmaPolicy) (*Objective, error) {
	lw, ok := laws[family]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("%w: no data points", dataset.ErrInvalidDataset)
	}
	if err := checkUncertainties(ds, policy); err != nil {
		return nil, err
	}

	return &Objective{
		sys:    ds.Units(),
		family: family,
		law:    lw,
		ds:     ds,
		policy: policy,
		radius: ds.Radius(),
		obs:    ds.Velocity(),
	}, nil
}

func checkUncertainties(ds *dataset.Dataset, policy dataset.SigmaPolicy) error {
	plus, minus := ds.SigmaPlus(), ds.SigmaMinus()
	for i := 0; i < ds.Len(); i++ {
		var zero bool
		if policy == dataset.Asymmetric {
			zero = plus[i] == 0 || minus[i] == 0
		} else {
			zero = ds.Sigma(policy, i, 0) == 0
		}
		if zero {
			return fmt.Errorf("%w: point %d under policy %s", ErrZeroUncertainty, i, policy)
		}
	}
	return nil
}

func (o *Objective) Dim() int { return o.law.dim() }

// Value returns χ² for a free parameter vector.
func (o *Objective) Value(free []float64) float64 {
	if len(free) != o.law.dim() {
		return math.Inf(1)
	}
	p, ok := o.law.toSI(o.sys, free)
	if !ok {
		return math.Inf(1)
	}

	var chi2 float64
	for i, r := range o.radius {
		v := o.law.velocity(o.sys, p, r)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.Inf(1)
		}
		d := (o.obs[i] - v) / o.ds.Sigma(o.policy, i, v)
		chi2 += d * d
	}
	return chi2
}

// Residuals returns v_obs - v_model (m/s) and the σ used for each point.
func (o *Objective) Residuals(free []float64) (residual, sigma []float64, err error) {
	model, err := Predict(o.sys, o.family, free, o.radius)
	if err != nil {
		return nil, nil, err
	}

	residual = make([]float64, len(model))
	sigma = make([]float64, len(model))
	for i, v := range model {
		residual[i] = o.obs[i] - v
		sigma[i] = o.ds.Sigma(o.policy, i, v)
	}
	return residual, sigma, nil
}
