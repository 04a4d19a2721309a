package metrics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/rotcurve/internal/potential"
	"github.com/san-kum/rotcurve/internal/rotation"
	"github.com/san-kum/rotcurve/internal/units"
)

var ErrEmptyCurve = errors.New("metrics: empty curve")

// PeakInfo locates the maximum of a rotation curve.
type PeakInfo struct {
	Index       int     `json:"index"`
	RadiusKpc   float64 `json:"radius_kpc"`
	VelocityKms float64 `json:"velocity_kms"`
}

func Peak(sys units.System, c *rotation.Curve) (PeakInfo, error) {
	if c.Len() == 0 {
		return PeakInfo{}, ErrEmptyCurve
	}
	i := floats.MaxIdx(c.Velocity)
	return PeakInfo{
		Index:       i,
		RadiusKpc:   sys.MToKpc(c.Grid.At(i)),
		VelocityKms: sys.MsToKms(c.Velocity[i]),
	}, nil
}

// OuterSlope is the least-squares slope of ln v against ln r over the outer
// fraction of the grid: 0 for a flat curve, -1/2 for a Keplerian one.
func OuterSlope(c *rotation.Curve, fraction float64) (float64, error) {
	n := c.Len()
	if n < 2 {
		return 0, rotation.ErrGridTooShort
	}
	if !(fraction > 0 && fraction <= 1) {
		fraction = 0.2
	}

	start := n - int(math.Ceil(fraction*float64(n)))
	if start > n-2 {
		start = n - 2
	}

	var lr, lv []float64
	for i := start; i < n; i++ {
		if c.Velocity[i] <= 0 {
			continue
		}
		lr = append(lr, math.Log(c.Grid.At(i)))
		lv = append(lv, math.Log(c.Velocity[i]))
	}
	if len(lr) < 2 {
		return 0, ErrEmptyCurve
	}

	_, beta := stat.LinearRegression(lr, lv, nil, false)
	return beta, nil
}

// Summary condenses one curve for tables and sweeps.
type Summary struct {
	Family     potential.Family `json:"family"`
	Peak       PeakInfo         `json:"peak"`
	OuterSlope float64          `json:"outer_slope"`
}

func Summarize(sys units.System, c *rotation.Curve) (Summary, error) {
	p, err := Peak(sys, c)
	if err != nil {
		return Summary{}, err
	}
	s, err := OuterSlope(c, 0.2)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Family: c.Family, Peak: p, OuterSlope: s}, nil
}
