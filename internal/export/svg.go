package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/rotcurve/internal/rotation"
	"github.com/san-kum/rotcurve/internal/units"
)

var ErrNoCurves = errors.New("export: no curves")

const (
	DefaultWidth  = 800
	DefaultHeight = 500

	margin = 50.0
)

// Palette colors the curves in order, wrapping around.
var Palette = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff4444", "#4488ff"}

// CurvesToSVG draws velocity [km/s] against radius [kpc] for every curve,
// with axes from zero velocity and a legend.
func CurvesToSVG(sys units.System, curves []*rotation.Curve, width, height int) (string, error) {
	if len(curves) == 0 {
		return "", ErrNoCurves
	}

	// Find bounds
	minX, maxX := math.Inf(1), math.Inf(-1)
	maxY := 0.0
	for _, c := range curves {
		r, v := c.Kpc(sys)
		for i := range r {
			minX = math.Min(minX, r[i])
			maxX = math.Max(maxX, r[i])
			maxY = math.Max(maxY, v[i])
		}
	}
	if math.IsInf(minX, 0) {
		return "", ErrNoCurves
	}
	rangeX := maxX - minX
	if rangeX == 0 {
		rangeX = 1
	}
	if maxY == 0 {
		maxY = 1
	}
	maxY *= 1.1

	w, h := float64(width), float64(height)
	plotW, plotH := w-2*margin, h-2*margin
	px := func(x float64) float64 { return margin + (x-minX)/rangeX*plotW }
	py := func(y float64) float64 { return h - margin - y/maxY*plotH }

	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g stroke="#666688" stroke-width="1">
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
</g>
<g fill="#888899" font-family="monospace" font-size="12">
<text x="%.1f" y="%.1f" text-anchor="middle">r [kpc]</text>
<text x="%.1f" y="%.1f" text-anchor="start">v [km/s]</text>
<text x="%.1f" y="%.1f" text-anchor="middle">%.1f</text>
<text x="%.1f" y="%.1f" text-anchor="middle">%.1f</text>
<text x="%.1f" y="%.1f" text-anchor="end">%.0f</text>
</g>
`,
		width, height, width, height,
		margin, h-margin, w-margin, h-margin,
		margin, h-margin, margin, margin,
		w/2, h-margin/4,
		margin, margin/2,
		margin, h-margin/2, minX,
		w-margin, h-margin/2, maxX,
		margin-4, margin, maxY,
	)

	for i, c := range curves {
		r, v := c.Kpc(sys)
		if len(r) == 0 {
			continue
		}
		color := Palette[i%len(Palette)]

		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color)
		for j := range r {
			if j == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", px(r[j]), py(v[j]))
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", px(r[j]), py(v[j]))
			}
		}
		sb.WriteString("\"/>\n")

		fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" fill="%s" font-family="monospace" font-size="12" text-anchor="end">%s</text>
`, w-margin, margin+float64(i)*16, color, c.Family)
	}

	sb.WriteString("</svg>\n")
	return sb.String(), nil
}

// WriteSVG writes CurvesToSVG at the default size.
func WriteSVG(w io.Writer, sys units.System, curves []*rotation.Curve) error {
	svg, err := CurvesToSVG(sys, curves, DefaultWidth, DefaultHeight)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, svg)
	return err
}
