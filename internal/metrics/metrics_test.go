package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/rotcurve/internal/potential"
	"github.com/san-kum/rotcurve/internal/rotation"
	"github.com/san-kum/rotcurve/internal/units"
)

func TestChiSquare(t *testing.T) {
	m := NewChiSquare()

	m.Observe(10, 8, 1)
	m.Observe(5, 6, 2)

	expected := 4.0 + 0.25
	if math.Abs(m.Value()-expected) > 1e-12 {
		t.Errorf("expected chi2 %f, got %f", expected, m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero chi2 after reset")
	}
}

func TestRMSAndMaxResidual(t *testing.T) {
	rms := NewRMS()
	maxRes := NewMaxResidual()

	if rms.Value() != 0 {
		t.Error("expected zero RMS without samples")
	}

	for _, d := range []float64{3, -4} {
		rms.Observe(d, 0, 1)
		maxRes.Observe(d, 0, 1)
	}

	if math.Abs(rms.Value()-math.Sqrt(12.5)) > 1e-12 {
		t.Errorf("expected RMS %f, got %f", math.Sqrt(12.5), rms.Value())
	}
	if maxRes.Value() != 4 {
		t.Errorf("expected max residual 4, got %f", maxRes.Value())
	}
}

func TestWithinSigma(t *testing.T) {
	w := NewWithinSigma(1)
	if w.Value() != 1 {
		t.Errorf("expected 1 without samples, got %f", w.Value())
	}

	w.Observe(10, 10.5, 1)
	w.Observe(10, 12, 1)
	w.Observe(10, 9, 1)
	w.Observe(10, 7, 2)

	if w.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", w.Value())
	}
}

func TestEvaluate(t *testing.T) {
	obs := []float64{200, 210, 220}
	pred := []float64{201, 208, 220}
	sigma := []float64{1, 2, 5}

	got, err := Evaluate(obs, pred, sigma)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	for _, name := range []string{"chi_square", "rms", "max_residual", "within_sigma"} {
		if _, ok := got[name]; !ok {
			t.Errorf("missing metric %q", name)
		}
	}
	if math.Abs(got["chi_square"]-2) > 1e-12 {
		t.Errorf("expected chi2 2, got %f", got["chi_square"])
	}

	if _, err := Evaluate(obs, pred[:2], sigma); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestReducedChiSquare(t *testing.T) {
	if got := ReducedChiSquare(10, 12, 2); got != 1 {
		t.Errorf("expected 1, got %f", got)
	}
	if !math.IsNaN(ReducedChiSquare(10, 2, 2)) {
		t.Error("expected NaN without degrees of freedom")
	}
}

func curveFor(t *testing.T, spec potential.Spec) *rotation.Curve {
	t.Helper()
	sys := units.SI()
	g, err := potential.LinearGrid(sys, 0.1, 50, 500)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	m, err := potential.NewRegistry(sys).Build(g, spec)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	c, err := rotation.NewEngine(rotation.Auto).Curve(m)
	if err != nil {
		t.Fatalf("curve: %v", err)
	}
	return c
}

func TestPeak(t *testing.T) {
	sys := units.SI()
	c := curveFor(t, potential.Spec{Family: potential.Hernquist, ScaleRadius: 20, Mass: 1.5e12})

	p, err := Peak(sys, c)
	if err != nil {
		t.Fatalf("peak: %v", err)
	}
	if math.Abs(p.RadiusKpc-20) > 0.2 {
		t.Errorf("expected peak near 20 kpc, got %f", p.RadiusKpc)
	}
	if p.VelocityKms <= 0 {
		t.Errorf("expected positive peak velocity, got %f", p.VelocityKms)
	}

	if _, err := Peak(sys, &rotation.Curve{}); err != ErrEmptyCurve {
		t.Errorf("expected ErrEmptyCurve, got %v", err)
	}
}

func TestOuterSlope(t *testing.T) {
	flat := curveFor(t, potential.Spec{Family: potential.Isothermal, Dispersion: 150})
	s, err := OuterSlope(flat, 0.2)
	if err != nil {
		t.Fatalf("slope: %v", err)
	}
	if math.Abs(s) > 1e-9 {
		t.Errorf("expected flat slope, got %f", s)
	}

	// Plummer far outside its core is nearly Keplerian.
	kepler := curveFor(t, potential.Spec{Family: potential.Plummer, ScaleRadius: 1, Mass: 1e11})
	s, err = OuterSlope(kepler, 0.2)
	if err != nil {
		t.Fatalf("slope: %v", err)
	}
	if math.Abs(s+0.5) > 0.01 {
		t.Errorf("expected slope near -0.5, got %f", s)
	}

	sum, err := Summarize(units.SI(), kepler)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.Family != potential.Plummer || sum.OuterSlope != s {
		t.Errorf("unexpected summary %+v", sum)
	}
}
