package potential

import (
	"math"

	"github.com/san-kum/rotcurve/internal/units"
)

// DiskModel is a simplified exponential surface-density potential,
//
//	Φ(r) = -4πGσ₀r_d (1 - e^(-r/r_d))
//
// It is not the self-consistent Freeman disk; the fit package carries the
// Bessel-function form of that one.
type DiskModel struct {
	grid Grid
	k    float64 // 4πGσ₀
	rd   float64
}

func NewExponentialDisk(sys units.System, grid Grid, p DiskProfile) (*DiskModel, error) {
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	if err := positive(ExponentialDisk, "scale_length", p.ScaleLength); err != nil {
		return nil, err
	}
	if err := positive(ExponentialDisk, "surface_density", p.SurfaceDensity); err != nil {
		return nil, err
	}
	return &DiskModel{
		grid: grid,
		k:    4 * math.Pi * sys.G * sys.SurfaceDensityToSI(p.SurfaceDensity),
		rd:   sys.KpcToM(p.ScaleLength),
	}, nil
}

func (d *DiskModel) Family() Family { return ExponentialDisk }
func (d *DiskModel) Grid() Grid     { return d.grid }

func (d *DiskModel) Potential() []float64 {
	phi := make([]float64, d.grid.Len())
	for i, r := range d.grid.r {
		phi[i] = -d.k * d.rd * -math.Expm1(-r/d.rd)
	}
	return phi
}

func (d *DiskModel) Derivative() []float64 {
	out := make([]float64, d.grid.Len())
	for i, r := range d.grid.r {
		out[i] = -d.k * math.Exp(-r/d.rd)
	}
	return out
}
