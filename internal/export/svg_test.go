package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/san-kum/rotcurve/internal/potential"
	"github.com/san-kum/rotcurve/internal/rotation"
	"github.com/san-kum/rotcurve/internal/units"
)

func TestCurvesToSVG(t *testing.T) {
	sys := units.SI()
	g, err := potential.LinearGrid(sys, 0.5, 20, 40)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}

	var curves []*rotation.Curve
	for _, spec := range []potential.Spec{
		{Family: potential.Plummer, ScaleRadius: 3, Mass: 1e11},
		{Family: potential.Isothermal, Dispersion: 120},
	} {
		m, err := potential.NewRegistry(sys).Build(g, spec)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		c, err := rotation.NewEngine(rotation.Auto).Curve(m)
		if err != nil {
			t.Fatalf("curve: %v", err)
		}
		curves = append(curves, c)
	}

	svg, err := CurvesToSVG(sys, curves, 400, 300)
	if err != nil {
		t.Fatalf("svg: %v", err)
	}
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("expected a complete svg document")
	}
	if n := strings.Count(svg, "<path"); n != 2 {
		t.Errorf("expected 2 paths, got %d", n)
	}
	for _, want := range []string{"plummer", "isothermal", Palette[0], Palette[1], `width="400"`} {
		if !strings.Contains(svg, want) {
			t.Errorf("expected svg to contain %q", want)
		}
	}

	var buf bytes.Buffer
	if err := WriteSVG(&buf, sys, curves); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), `width="800"`) {
		t.Error("expected default width")
	}
}

func TestCurvesToSVGEmpty(t *testing.T) {
	if _, err := CurvesToSVG(units.SI(), nil, 100, 100); err != ErrNoCurves {
		t.Errorf("expected ErrNoCurves, got %v", err)
	}
}
