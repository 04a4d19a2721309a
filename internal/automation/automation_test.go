package automation

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/rotcurve/internal/config"
	"github.com/san-kum/rotcurve/internal/dataset"
	"github.com/san-kum/rotcurve/internal/fit"
	"github.com/san-kum/rotcurve/internal/potential"
	"github.com/san-kum/rotcurve/internal/units"
)

func testEnv(t *testing.T) *Env {
	env := NewEnv(units.SI(), nil)
	env.BaseDir = t.TempDir()
	return env
}

// flatData writes an isothermal curve of dispersion sigmaKms with two header
// lines, returning the dataset and its file name relative to dir.
func flatData(t *testing.T, dir string, sigmaKms, errKms float64) (*dataset.Dataset, string) {
	v := math.Sqrt2 * sigmaKms

	var b strings.Builder
	b.WriteString("# flat test curve\n# r v s+ s-\n")
	records := make([]dataset.Record, 0, 20)
	for i := 1; i <= 20; i++ {
		r := float64(i) * 1.5
		fmt.Fprintf(&b, "%g,%g,%g,%g\n", r, v, errKms, errKms)
		records = append(records, dataset.Record{RadiusKpc: r, VelocityKms: v, SigmaPlusKms: errKms, SigmaMinusKms: errKms})
	}

	name := "flat.csv"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0644); err != nil {
		t.Fatalf("write data: %v", err)
	}

	ds, err := dataset.New(units.SI(), records)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	return ds, name
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	src := `name: halos
description: compare halos
steps:
  - name: shapes
    kind: curve
    grid: {min_kpc: 0.5, max_kpc: 40, points: 80}
    models:
      - {family: nfw, scale_radius: 10, mass: 1.5e12}
      - {family: plummer, scale_radius: 10, mass: 1.5e12}
    save_as: shapes.csv
  - name: flat
    kind: fit
    family: isothermal
    data: flat.csv
`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "halos" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	if got := sc.Steps[0].Models[1].Family; got != potential.Plummer {
		t.Errorf("expected plummer, got %s", got)
	}
	if sc.Steps[0].Grid == nil || sc.Steps[0].Grid.Points != 80 {
		t.Errorf("expected grid with 80 points, got %+v", sc.Steps[0].Grid)
	}
	if sc.Steps[1].SkipRows != nil {
		t.Errorf("expected default skip rows, got %d", *sc.Steps[1].SkipRows)
	}
}

func TestRunScenario(t *testing.T) {
	env := testEnv(t)
	_, data := flatData(t, env.BaseDir, 150, 5)

	sc := &Scenario{
		Name: "mixed",
		Steps: []ScenarioStep{
			{
				Name:   "halos",
				Kind:   KindCurve,
				Grid:   &config.GridConfig{MinKpc: 0.5, MaxKpc: 40, Points: 80},
				Models: []potential.Spec{{Family: "NFW", ScaleRadius: 10, Mass: 1.5e12}, {Family: potential.Jaffe, ScaleRadius: 10, Mass: 1.5e12}},
				SaveAs: "halos.csv",
			},
			{
				Name:   "flat",
				Kind:   KindFit,
				Family: "isothermal",
				Data:   data,
				SaveAs: "flat.json",
			},
		},
	}

	results, err := RunScenario(context.Background(), sc, env)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	curves := results[0]
	if len(curves.Curves) != 2 || len(curves.Summaries) != 2 {
		t.Fatalf("expected 2 curves and summaries, got %d/%d", len(curves.Curves), len(curves.Summaries))
	}
	if curves.Curves[0].Family != potential.NFW {
		t.Errorf("expected normalized family nfw, got %s", curves.Curves[0].Family)
	}

	fitted := results[1]
	if fitted.Fit == nil {
		t.Fatal("expected a fit result")
	}
	p, _ := fitted.Fit.Param("sigma")
	if math.Abs(p.Value-150) > 1e-3 {
		t.Errorf("expected sigma 150, got %v", p.Value)
	}
	if fitted.Metrics["chi_square"] > 1e-6 {
		t.Errorf("expected zero chi-square, got %v", fitted.Metrics["chi_square"])
	}
	if fitted.Metrics["within_sigma"] != 1 {
		t.Errorf("expected all points within sigma, got %v", fitted.Metrics["within_sigma"])
	}

	for _, name := range []string{"halos.csv", "flat.json"} {
		if _, err := os.Stat(filepath.Join(env.BaseDir, name)); err != nil {
			t.Errorf("expected %s to be saved: %v", name, err)
		}
	}
}

func TestRunScenarioStopsAtFailure(t *testing.T) {
	env := testEnv(t)
	sc := &Scenario{Steps: []ScenarioStep{
		{Kind: KindCurve, Models: []potential.Spec{{Family: potential.Isothermal, Dispersion: 100}}},
		{Kind: "orbit"},
		{Kind: KindCurve, Models: []potential.Spec{{Family: potential.Isothermal, Dispersion: 100}}},
	}}

	results, err := RunScenario(context.Background(), sc, env)
	if err == nil {
		t.Fatal("expected error for unknown step kind")
	}
	if len(results) != 1 {
		t.Errorf("expected 1 completed step, got %d", len(results))
	}
}

func TestRunScenarioCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := &Scenario{Steps: []ScenarioStep{{Kind: KindCurve, Models: []potential.Spec{{Family: potential.Isothermal, Dispersion: 100}}}}}
	if _, err := RunScenario(ctx, sc, testEnv(t)); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunSweep(t *testing.T) {
	sweep := &ParameterSweep{
		Base:     potential.Spec{Family: potential.Hernquist, ScaleRadius: 10, Mass: 1e12},
		Param:    "mass",
		Min:      1e11,
		Max:      1e12,
		NumSteps: 4,
		Grid:     config.GridConfig{MinKpc: 0.1, MaxKpc: 50, Points: 200},
	}

	results, err := RunSweep(context.Background(), sweep, testEnv(t))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if results[0].ParamValue != 1e11 || results[3].ParamValue != 1e12 {
		t.Errorf("expected endpoints 1e11 and 1e12, got %v and %v", results[0].ParamValue, results[3].ParamValue)
	}
	for i := 1; i < len(results); i++ {
		if results[i].PeakVelocityKms <= results[i-1].PeakVelocityKms {
			t.Errorf("expected peak velocity to grow with mass at step %d", i)
		}
		// Hernquist peaks at r = a whatever the mass
		if math.Abs(results[i].PeakRadiusKpc-results[0].PeakRadiusKpc) > 1e-9 {
			t.Errorf("expected fixed peak radius, got %v vs %v", results[i].PeakRadiusKpc, results[0].PeakRadiusKpc)
		}
	}
}

func TestRunSweepUnknownParam(t *testing.T) {
	sweep := &ParameterSweep{
		Base:     potential.Spec{Family: potential.Plummer, ScaleRadius: 10, Mass: 1e12},
		Param:    "spin",
		Min:      1,
		Max:      2,
		NumSteps: 2,
		Grid:     config.GridConfig{MinKpc: 0.1, MaxKpc: 50, Points: 20},
	}
	if _, err := RunSweep(context.Background(), sweep, testEnv(t)); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestRunMonteCarlo(t *testing.T) {
	env := testEnv(t)
	ds, _ := flatData(t, env.BaseDir, 150, 10)

	cfg := &MonteCarloConfig{
		Family:    fit.Isothermal,
		Dataset:   ds,
		Guess:     []float64{140},
		NumTrials: 30,
		Seed:      42,
	}

	results, err := RunMonteCarlo(context.Background(), cfg, env)
	if err != nil {
		t.Fatalf("monte carlo: %v", err)
	}
	if len(results) != 30 {
		t.Fatalf("expected 30 trials, got %d", len(results))
	}

	mean, std, converged := MonteCarloStats(results)
	if converged != 30 {
		t.Errorf("expected all trials to converge, got %d", converged)
	}
	if len(mean) != 1 {
		t.Fatalf("expected one parameter, got %d", len(mean))
	}
	if math.Abs(mean[0]-150) > 3 {
		t.Errorf("expected mean sigma near 150, got %v", mean[0])
	}
	if !(std[0] > 0) || std[0] > 5 {
		t.Errorf("expected a small positive spread, got %v", std[0])
	}

	again, err := RunMonteCarlo(context.Background(), cfg, env)
	if err != nil {
		t.Fatalf("monte carlo: %v", err)
	}
	if again[7].Free[0] != results[7].Free[0] {
		t.Errorf("expected a fixed seed to reproduce trials")
	}
}

func TestMonteCarloStats(t *testing.T) {
	results := []MonteCarloResult{
		{Free: []float64{1, 10}, Converged: true},
		{Free: []float64{3, 30}, Converged: true},
		{Free: []float64{100, 100}},
	}

	mean, std, converged := MonteCarloStats(results)
	if converged != 2 {
		t.Errorf("expected 2 converged, got %d", converged)
	}
	if mean[0] != 2 || mean[1] != 20 {
		t.Errorf("expected means [2 20], got %v", mean)
	}
	if math.Abs(std[0]-math.Sqrt2) > 1e-12 {
		t.Errorf("expected std sqrt(2), got %v", std[0])
	}

	if m, s, n := MonteCarloStats(nil); m != nil || s != nil || n != 0 {
		t.Errorf("expected empty stats, got %v %v %d", m, s, n)
	}
}
