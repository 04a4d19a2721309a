// Package dataset holds observed rotation-curve measurements. Values are
// supplied in kpc and km/s, converted to SI once, and exposed read-only.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/rotcurve/internal/units"
)

// ErrInvalidDataset indicates mismatched columns, a negative uncertainty or
// malformed input.
var ErrInvalidDataset = errors.New("dataset: invalid dataset")

// Record is one observation in human units.
type Record struct {
	RadiusKpc     float64 `json:"radius_kpc"`
	VelocityKms   float64 `json:"velocity_kms"`
	SigmaPlusKms  float64 `json:"sigma_plus_kms"`
	SigmaMinusKms float64 `json:"sigma_minus_kms"`
}

// Dataset stores four equal-length SI columns. It is never mutated after
// construction and may be shared between goroutines.
type Dataset struct {
	sys        units.System
	radius     []float64 // m
	velocity   []float64 // m/s
	sigmaPlus  []float64 // m/s
	sigmaMinus []float64 // m/s
}

func New(sys units.System, records []Record) (*Dataset, error) {
	if err := sys.Validate(); err != nil {
		return nil, err
	}

	n := len(records)
	d := &Dataset{
		sys:        sys,
		radius:     make([]float64, n),
		velocity:   make([]float64, n),
		sigmaPlus:  make([]float64, n),
		sigmaMinus: make([]float64, n),
	}

	for i, rec := range records {
		if !(rec.SigmaPlusKms >= 0) || !(rec.SigmaMinusKms >= 0) {
			return nil, fmt.Errorf("%w: record %d: negative uncertainty (+%g/-%g)",
				ErrInvalidDataset, i, rec.SigmaPlusKms, rec.SigmaMinusKms)
		}
		d.radius[i] = sys.KpcToM(rec.RadiusKpc)
		d.velocity[i] = sys.KmsToMs(rec.VelocityKms)
		d.sigmaPlus[i] = sys.KmsToMs(rec.SigmaPlusKms)
		d.sigmaMinus[i] = sys.KmsToMs(rec.SigmaMinusKms)
	}

	return d, nil
}

// FromColumns builds a dataset from parallel columns in kpc and km/s.
func FromColumns(sys units.System, radiusKpc, velocityKms, sigmaPlusKms, sigmaMinusKms []float64) (*Dataset, error) {
	n := len(radiusKpc)
	if len(velocityKms) != n || len(sigmaPlusKms) != n || len(sigmaMinusKms) != n {
		return nil, fmt.Errorf("%w: column lengths %d/%d/%d/%d", ErrInvalidDataset,
			n, len(velocityKms), len(sigmaPlusKms), len(sigmaMinusKms))
	}

	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			RadiusKpc:     radiusKpc[i],
			VelocityKms:   velocityKms[i],
			SigmaPlusKms:  sigmaPlusKms[i],
			SigmaMinusKms: sigmaMinusKms[i],
		}
	}
	return New(sys, records)
}

func (d *Dataset) Len() int { return len(d.radius) }

func (d *Dataset) Units() units.System { return d.sys }

// Radius returns a copy of the radii in meters.
func (d *Dataset) Radius() []float64 { return clone(d.radius) }

// Velocity returns a copy of the observed velocities in m/s.
func (d *Dataset) Velocity() []float64 { return clone(d.velocity) }

func (d *Dataset) SigmaPlus() []float64 { return clone(d.sigmaPlus) }

func (d *Dataset) SigmaMinus() []float64 { return clone(d.sigmaMinus) }

// Records converts the dataset back to human units.
func (d *Dataset) Records() []Record {
	out := make([]Record, d.Len())
	for i := range out {
		out[i] = Record{
			RadiusKpc:     d.sys.MToKpc(d.radius[i]),
			VelocityKms:   d.sys.MsToKms(d.velocity[i]),
			SigmaPlusKms:  d.sys.MsToKms(d.sigmaPlus[i]),
			SigmaMinusKms: d.sys.MsToKms(d.sigmaMinus[i]),
		}
	}
	return out
}

// Sigma returns the uncertainty of point i under policy p. predicted is the
// model velocity at that point and only matters for Asymmetric.
func (d *Dataset) Sigma(p SigmaPolicy, i int, predicted float64) float64 {
	plus, minus := d.sigmaPlus[i], d.sigmaMinus[i]
	switch p {
	case Plus:
		return plus
	case Minus:
		return minus
	case Max:
		return math.Max(plus, minus)
	case Asymmetric:
		if predicted > d.velocity[i] {
			return plus
		}
		return minus
	}
	return (plus + minus) / 2
}

// Sigmas returns the per-point uncertainties for a policy that does not
// depend on the model. Asymmetric falls back to the smaller branch, the
// tightest bound the objective can use.
func (d *Dataset) Sigmas(p SigmaPolicy) []float64 {
	out := make([]float64, d.Len())
	for i := range out {
		if p == Asymmetric {
			out[i] = math.Min(d.sigmaPlus[i], d.sigmaMinus[i])
			continue
		}
		out[i] = d.Sigma(p, i, d.velocity[i])
	}
	return out
}

// SigmaPolicy selects which uncertainty branch a chi-square term uses.
type SigmaPolicy string

const (
	Plus       SigmaPolicy = "plus"
	Minus      SigmaPolicy = "minus"
	Mean       SigmaPolicy = "mean"
	Max        SigmaPolicy = "max"
	Asymmetric SigmaPolicy = "asymmetric"
)

// DefaultPolicy averages the upper and lower uncertainties.
const DefaultPolicy = Mean

func Policies() []SigmaPolicy {
	return []SigmaPolicy{Plus, Minus, Mean, Max, Asymmetric}
}

func ParsePolicy(s string) (SigmaPolicy, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return DefaultPolicy, nil
	}
	for _, p := range Policies() {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("dataset: unknown sigma policy %q", s)
}

func clone(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
