package viz

import (
	"errors"
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rotcurve/internal/dataset"
	"github.com/san-kum/rotcurve/internal/fit"
	"github.com/san-kum/rotcurve/internal/rotation"
	"github.com/san-kum/rotcurve/internal/units"
)

var ErrNothingToPlot = errors.New("viz: nothing to plot")

const (
	plotWidth  = 80
	plotHeight = 15
)

// PlotCurves draws every curve in km/s against grid index. Curves on a
// shared linear grid read as velocity against radius.
func PlotCurves(sys units.System, curves []*rotation.Curve) (string, error) {
	if len(curves) == 0 {
		return "", ErrNothingToPlot
	}

	data := make([][]float64, 0, len(curves))
	legends := make([]string, 0, len(curves))
	for _, c := range curves {
		if c.Len() == 0 {
			continue
		}
		data = append(data, sys.MsToKmsSlice(c.Velocity))
		legends = append(legends, string(c.Family))
	}
	if len(data) == 0 {
		return "", ErrNothingToPlot
	}

	radius, _ := curves[0].Kpc(sys)
	caption := fmt.Sprintf("v [km/s], r = %.2f..%.2f kpc", radius[0], radius[len(radius)-1])

	graph := asciigraph.PlotMany(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Precision(1),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(CurrentTheme.seriesColors(len(data))...),
		asciigraph.SeriesLegends(legends...),
	)
	return graphStyle.Render(graph), nil
}

// PlotFit overlays the observed velocities and the fitted model at the
// observed radii.
func PlotFit(sys units.System, ds *dataset.Dataset, res *fit.Result) (string, error) {
	if ds == nil || ds.Len() == 0 {
		return "", ErrNothingToPlot
	}

	pred, err := res.Predict(sys, ds.Radius())
	if err != nil {
		return "", err
	}

	obs := sys.MsToKmsSlice(ds.Velocity())
	graph := asciigraph.PlotMany([][]float64{obs, sys.MsToKmsSlice(pred)},
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Precision(1),
		asciigraph.Caption(fmt.Sprintf("%s fit, v [km/s] per data point", res.Family)),
		asciigraph.SeriesColors(CurrentTheme.seriesColors(2)...),
		asciigraph.SeriesLegends("observed", string(res.Family)),
	)
	return graphStyle.Render(graph), nil
}
