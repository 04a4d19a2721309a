package potential

import (
	"math"

	"github.com/san-kum/rotcurve/internal/units"
)

// NFWMassModel is the Navarro-Frenk-White halo parametrized by a total mass scale:
//
//	Φ(r) = -GM/r · ln(1 + r/a)
type NFWMassModel struct {
	grid Grid
	gm   float64
	a    float64
}

func NewNFW(sys units.System, grid Grid, p MassProfile) (*NFWMassModel, error) {
	gm, a, err := massProfileSI(sys, NFW, p)
	if err != nil {
		return nil, err
	}
	return &NFWMassModel{grid: grid, gm: gm, a: a}, nil
}

func (n *NFWMassModel) Family() Family { return NFW }
func (n *NFWMassModel) Grid() Grid     { return n.grid }

func (n *NFWMassModel) Potential() []float64 {
	phi := make([]float64, n.grid.Len())
	for i, r := range n.grid.r {
		phi[i] = -n.gm / r * math.Log1p(r/n.a)
	}
	return phi
}

func (n *NFWMassModel) Derivative() []float64 {
	d := make([]float64, n.grid.Len())
	for i, r := range n.grid.r {
		d[i] = n.gm * (math.Log1p(r/n.a)/(r*r) - 1/(r*(n.a+r)))
	}
	return d
}

// NFWDensityModel is the density parametrization of the NFW halo:
//
//	Φ(r) = -4πGρ_s r_s³ (ln(1+x) - x/(1+x)) / r,  x = r/r_s
type NFWDensityModel struct {
	grid Grid
	k    float64 // 4πGρ_s r_s³
	rs   float64
}

func NewNFWDensity(sys units.System, grid Grid, p DensityProfile) (*NFWDensityModel, error) {
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	if err := positive(NFWDensity, "scale_radius", p.ScaleRadius); err != nil {
		return nil, err
	}
	if err := positive(NFWDensity, "density", p.Density); err != nil {
		return nil, err
	}

	rs := sys.KpcToM(p.ScaleRadius)
	rho := sys.DensityToSI(p.Density)
	return &NFWDensityModel{
		grid: grid,
		k:    4 * math.Pi * sys.G * rho * rs * rs * rs,
		rs:   rs,
	}, nil
}

func (n *NFWDensityModel) Family() Family { return NFWDensity }
func (n *NFWDensityModel) Grid() Grid     { return n.grid }

func (n *NFWDensityModel) Potential() []float64 {
	phi := make([]float64, n.grid.Len())
	for i, r := range n.grid.r {
		x := r / n.rs
		phi[i] = -n.k * enclosed(x) / r
	}
	return phi
}

// Derivative is the exact dΦ/dr of Potential; it changes sign beyond x ≈ 2.
func (n *NFWDensityModel) Derivative() []float64 {
	d := make([]float64, n.grid.Len())
	for i, r := range n.grid.r {
		x := r / n.rs
		d[i] = n.k * (enclosed(x)/(r*r) - 1/(n.rs*n.rs*(1+x)*(1+x)))
	}
	return d
}

// enclosed is the dimensionless NFW mass function ln(1+x) - x/(1+x).
func enclosed(x float64) float64 {
	return math.Log1p(x) - x/(1+x)
}
