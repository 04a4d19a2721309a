package potential

import "github.com/san-kum/rotcurve/internal/units"

// HernquistModel: Φ(r) = -GM/(r+a).
type HernquistModel struct {
	grid Grid
	gm   float64
	a    float64
}

func NewHernquist(sys units.System, grid Grid, p MassProfile) (*HernquistModel, error) {
	gm, a, err := massProfileSI(sys, Hernquist, p)
	if err != nil {
		return nil, err
	}
	return &HernquistModel{grid: grid, gm: gm, a: a}, nil
}

func (h *HernquistModel) Family() Family { return Hernquist }
func (h *HernquistModel) Grid() Grid     { return h.grid }

func (h *HernquistModel) Potential() []float64 {
	phi := make([]float64, h.grid.Len())
	for i, r := range h.grid.r {
		phi[i] = -h.gm / (r + h.a)
	}
	return phi
}

func (h *HernquistModel) Derivative() []float64 {
	d := make([]float64, h.grid.Len())
	for i, r := range h.grid.r {
		s := r + h.a
		d[i] = h.gm / (s * s)
	}
	return d
}

// massProfileSI validates a MassProfile and returns G·M and a in SI.
func massProfileSI(sys units.System, f Family, p MassProfile) (gm, a float64, err error) {
	if err := sys.Validate(); err != nil {
		return 0, 0, err
	}
	if err := positive(f, "scale_radius", p.ScaleRadius); err != nil {
		return 0, 0, err
	}
	if err := positive(f, "mass", p.Mass); err != nil {
		return 0, 0, err
	}
	return sys.G * sys.MsunToKg(p.Mass), sys.KpcToM(p.ScaleRadius), nil
}
