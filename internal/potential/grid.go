package potential

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/rotcurve/internal/units"
)

// Grid is an ordered, strictly increasing set of positive radii in meters.
// The zero value is an empty grid; use NewGrid, NewGridSI or LinearGrid.
type Grid struct {
	r []float64
}

// NewGridSI validates and copies radii given in meters.
func NewGridSI(meters []float64) (Grid, error) {
	if len(meters) == 0 {
		return Grid{}, &ParameterError{Name: "grid length", Value: 0}
	}

	r := make([]float64, len(meters))
	for i, v := range meters {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Grid{}, &ParameterError{Name: fmt.Sprintf("radius[%d]", i), Value: v}
		}
		if v <= 0 {
			return Grid{}, &ParameterError{Name: fmt.Sprintf("radius[%d]", i), Value: v, Wrapped: ErrDomainSingularity}
		}
		if i > 0 && v <= r[i-1] {
			return Grid{}, &ParameterError{
				Name:    fmt.Sprintf("radius[%d]", i),
				Value:   v,
				Wrapped: fmt.Errorf("%w: grid must be strictly increasing", ErrInvalidParameter),
			}
		}
		r[i] = v
	}

	return Grid{r: r}, nil
}

// NewGrid converts radii from kpc and validates them.
func NewGrid(sys units.System, kpc []float64) (Grid, error) {
	if err := sys.Validate(); err != nil {
		return Grid{}, err
	}
	return NewGridSI(sys.KpcToMSlice(kpc))
}

// LinearGrid returns n evenly spaced radii from minKpc to maxKpc inclusive.
func LinearGrid(sys units.System, minKpc, maxKpc float64, n int) (Grid, error) {
	if n < 2 {
		return Grid{}, &ParameterError{Name: "grid points", Value: float64(n)}
	}
	if !(maxKpc > minKpc) {
		return Grid{}, &ParameterError{Name: "grid max", Value: maxKpc}
	}
	kpc := floats.Span(make([]float64, n), minKpc, maxKpc)
	return NewGrid(sys, kpc)
}

func (g Grid) Len() int { return len(g.r) }

func (g Grid) IsZero() bool { return len(g.r) == 0 }

// At returns the i-th radius in meters.
func (g Grid) At(i int) float64 { return g.r[i] }

// Radii returns a copy of the radii in meters.
func (g Grid) Radii() []float64 {
	out := make([]float64, len(g.r))
	copy(out, g.r)
	return out
}

// Kpc returns a copy of the radii converted to kpc.
func (g Grid) Kpc(sys units.System) []float64 {
	return sys.MToKpcSlice(g.r)
}

// Step returns the spacing between radius i and i+1.
func (g Grid) Step(i int) float64 {
	return g.r[i+1] - g.r[i]
}
