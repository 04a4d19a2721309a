package potential

import (
	"math"

	"github.com/san-kum/rotcurve/internal/units"
)

// PlummerModel: Φ(r) = -GM/√(r²+a²).
type PlummerModel struct {
	grid Grid
	gm   float64
	a    float64
}

func NewPlummer(sys units.System, grid Grid, p MassProfile) (*PlummerModel, error) {
	gm, a, err := massProfileSI(sys, Plummer, p)
	if err != nil {
		return nil, err
	}
	return &PlummerModel{grid: grid, gm: gm, a: a}, nil
}

func (p *PlummerModel) Family() Family { return Plummer }
func (p *PlummerModel) Grid() Grid     { return p.grid }

func (p *PlummerModel) Potential() []float64 {
	phi := make([]float64, p.grid.Len())
	for i, r := range p.grid.r {
		phi[i] = -p.gm / math.Hypot(r, p.a)
	}
	return phi
}

func (p *PlummerModel) Derivative() []float64 {
	d := make([]float64, p.grid.Len())
	for i, r := range p.grid.r {
		s := math.Hypot(r, p.a)
		d[i] = p.gm * r / (s * s * s)
	}
	return d
}
