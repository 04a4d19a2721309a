package potential

import (
	"math"

	"github.com/san-kum/rotcurve/internal/units"
)

// IsothermalModel is the singular isothermal sphere, Φ(r) = σ² ln r.
// Its rotation curve is flat at √2·σ; it deliberately exposes no Derivative.
type IsothermalModel struct {
	grid  Grid
	sigma float64 // m/s
}

func NewIsothermal(sys units.System, grid Grid, p DispersionProfile) (*IsothermalModel, error) {
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	if err := nonNegative(Isothermal, "dispersion", p.Dispersion); err != nil {
		return nil, err
	}
	return &IsothermalModel{grid: grid, sigma: sys.KmsToMs(p.Dispersion)}, nil
}

func (s *IsothermalModel) Family() Family { return Isothermal }
func (s *IsothermalModel) Grid() Grid     { return s.grid }

func (s *IsothermalModel) Potential() []float64 {
	phi := make([]float64, s.grid.Len())
	s2 := s.sigma * s.sigma
	for i, r := range s.grid.r {
		phi[i] = s2 * math.Log(r)
	}
	return phi
}

func (s *IsothermalModel) CircularVelocity() float64 {
	return math.Sqrt2 * s.sigma
}
