package potential

import (
	"math"

	"github.com/san-kum/rotcurve/internal/units"
)

// JaffeModel: Φ(r) = -(GM/a)·ln(1 + a/r).
type JaffeModel struct {
	grid Grid
	gm   float64
	a    float64
}

func NewJaffe(sys units.System, grid Grid, p MassProfile) (*JaffeModel, error) {
	gm, a, err := massProfileSI(sys, Jaffe, p)
	if err != nil {
		return nil, err
	}
	return &JaffeModel{grid: grid, gm: gm, a: a}, nil
}

func (j *JaffeModel) Family() Family { return Jaffe }
func (j *JaffeModel) Grid() Grid     { return j.grid }

func (j *JaffeModel) Potential() []float64 {
	phi := make([]float64, j.grid.Len())
	for i, r := range j.grid.r {
		phi[i] = -j.gm / j.a * math.Log1p(j.a/r)
	}
	return phi
}

func (j *JaffeModel) Derivative() []float64 {
	d := make([]float64, j.grid.Len())
	for i, r := range j.grid.r {
		d[i] = j.gm / (r * (r + j.a))
	}
	return d
}
