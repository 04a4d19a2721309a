package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/sgostarter/i/l"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/rotcurve/internal/config"
	"github.com/san-kum/rotcurve/internal/dataset"
	"github.com/san-kum/rotcurve/internal/fit"
	"github.com/san-kum/rotcurve/internal/metrics"
	"github.com/san-kum/rotcurve/internal/optim"
	"github.com/san-kum/rotcurve/internal/potential"
	"github.com/san-kum/rotcurve/internal/rotation"
	"github.com/san-kum/rotcurve/internal/store"
	"github.com/san-kum/rotcurve/internal/units"
)

var ErrInvalidStep = errors.New("automation: invalid step")

const (
	KindCurve = "curve"
	KindFit   = "fit"
)

// Env is what every scenario step runs against.
type Env struct {
	Units    units.System
	Registry *potential.Registry
	Logger   l.Wrapper
	// BaseDir resolves relative data and output paths.
	BaseDir string
}

func NewEnv(sys units.System, logger l.Wrapper) *Env {
	if logger == nil {
		logger = l.NewNopLoggerWrapper()
	}
	return &Env{
		Units:    sys,
		Registry: potential.NewRegistry(sys),
		Logger:   logger.WithFields(l.StringField(l.ClsKey, "automation")),
	}
}

func (e *Env) path(p string) string {
	if p == "" || filepath.IsAbs(p) || e.BaseDir == "" {
		return p
	}
	return filepath.Join(e.BaseDir, p)
}

// Scenario defines a scripted sequence of curve and fit steps
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is either a curve step (Models on Grid) or a fit step
// (Family against Data).
type ScenarioStep struct {
	Name   string             `yaml:"name"`
	Kind   string             `yaml:"kind"`
	Grid   *config.GridConfig `yaml:"grid,omitempty"`
	Method string             `yaml:"method,omitempty"`
	Models []potential.Spec   `yaml:"models,omitempty"`

	Family        string    `yaml:"family,omitempty"`
	Data          string    `yaml:"data,omitempty"`
	SkipRows      *int      `yaml:"skip_rows,omitempty"`
	Policy        string    `yaml:"sigma_policy,omitempty"`
	Guess         []float64 `yaml:"guess,omitempty"`
	MaxIterations int       `yaml:"max_iterations,omitempty"`

	SaveAs string `yaml:"save_as,omitempty"`
}

// StepResult holds whatever a step produced.
type StepResult struct {
	Step      int
	Name      string
	Kind      string
	Curves    []*rotation.Curve
	Summaries []metrics.Summary
	Fit       *fit.Result
	Metrics   map[string]float64
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// RunScenario executes the steps in order and stops at the first failure,
// returning the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, env *Env) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		env.Logger.WithFields(l.IntField("step", i+1), l.IntField("of", len(scenario.Steps)),
			l.StringField("kind", step.Kind), l.StringField("name", step.Name)).Info("running step")

		var (
			res StepResult
			err error
		)
		switch step.Kind {
		case KindCurve, "":
			res, err = runCurveStep(ctx, step, env)
		case KindFit:
			res, err = runFitStep(ctx, step, env)
		default:
			err = fmt.Errorf("%w: unknown kind %q", ErrInvalidStep, step.Kind)
		}
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		res.Step = i + 1
		res.Name = step.Name

		if step.SaveAs != "" {
			var fits []*fit.Result
			if res.Fit != nil {
				fits = append(fits, res.Fit)
			}
			if err := store.SaveFile(env.path(step.SaveAs), env.Units, res.Curves, fits); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}

		results = append(results, res)
	}

	return results, nil
}

func stepGrid(env *Env, gc *config.GridConfig) (potential.Grid, error) {
	g := config.DefaultConfig().Grid
	if gc != nil {
		g = *gc
	}
	return potential.LinearGrid(env.Units, g.MinKpc, g.MaxKpc, g.Points)
}

func runCurveStep(ctx context.Context, step ScenarioStep, env *Env) (StepResult, error) {
	if len(step.Models) == 0 {
		return StepResult{}, fmt.Errorf("%w: curve step without models", ErrInvalidStep)
	}

	grid, err := stepGrid(env, step.Grid)
	if err != nil {
		return StepResult{}, err
	}

	method := rotation.Auto
	if step.Method != "" {
		if method, err = rotation.ParseMethod(step.Method); err != nil {
			return StepResult{}, err
		}
	}

	specs := make([]potential.Spec, len(step.Models))
	for i, s := range step.Models {
		if s.Family, err = potential.ParseFamily(string(s.Family)); err != nil {
			return StepResult{}, err
		}
		specs[i] = s
	}

	curves, err := rotation.NewEnsemble(env.Registry, rotation.NewEngine(method)).Run(ctx, grid, specs)
	if err != nil {
		return StepResult{}, err
	}

	res := StepResult{Kind: KindCurve, Curves: curves}
	for _, c := range curves {
		s, err := metrics.Summarize(env.Units, c)
		if err != nil {
			return StepResult{}, err
		}
		res.Summaries = append(res.Summaries, s)
	}
	return res, nil
}

func loadDataset(env *Env, path string, skipRows *int) (*dataset.Dataset, error) {
	skip := dataset.DefaultSkipRows
	if skipRows != nil {
		skip = *skipRows
	}
	records, err := dataset.Load(env.path(path), skip)
	if err != nil {
		return nil, err
	}
	return dataset.New(env.Units, records)
}

func runFitStep(ctx context.Context, step ScenarioStep, env *Env) (StepResult, error) {
	family, err := fit.ParseFamily(step.Family)
	if err != nil {
		return StepResult{}, err
	}
	policy, err := dataset.ParsePolicy(step.Policy)
	if err != nil {
		return StepResult{}, err
	}
	ds, err := loadDataset(env, step.Data, step.SkipRows)
	if err != nil {
		return StepResult{}, err
	}

	settings := optim.DefaultSettings()
	if step.MaxIterations > 0 {
		settings.MaxIterations = step.MaxIterations
	}

	engine := fit.NewEngine(env.Units, env.Logger, fit.SettingsOption(settings), fit.SigmaPolicyOption(policy))
	res, err := engine.Fit(ctx, family, ds, step.Guess)
	if err != nil {
		return StepResult{}, err
	}

	quality, err := FitMetrics(env.Units, res, ds, policy)
	if err != nil {
		return StepResult{}, err
	}

	return StepResult{Kind: KindFit, Fit: res, Metrics: quality}, nil
}

// FitMetrics scores a fit against its dataset in km/s.
func FitMetrics(sys units.System, res *fit.Result, ds *dataset.Dataset, policy dataset.SigmaPolicy) (map[string]float64, error) {
	pred, err := res.Predict(sys, ds.Radius())
	if err != nil {
		return nil, err
	}

	obs := ds.Velocity()
	sigma := make([]float64, len(obs))
	for i := range obs {
		sigma[i] = sys.MsToKms(ds.Sigma(policy, i, pred[i]))
	}

	out, err := metrics.Evaluate(sys.MsToKmsSlice(obs), sys.MsToKmsSlice(pred), sigma)
	if err != nil {
		return nil, err
	}
	out["reduced_chi_square"] = metrics.ReducedChiSquare(out["chi_square"], res.Points, len(res.Free))
	return out, nil
}

// ParameterSweep varies one parameter of a model across a range
type ParameterSweep struct {
	Base     potential.Spec    `yaml:"base"`
	Param    string            `yaml:"param"`
	Min      float64           `yaml:"min"`
	Max      float64           `yaml:"max"`
	NumSteps int               `yaml:"steps"`
	Grid     config.GridConfig `yaml:"grid"`
	Method   string            `yaml:"method"`
}

// SweepResult summarizes the curve at one parameter value
type SweepResult struct {
	ParamValue      float64 `json:"param_value"`
	PeakRadiusKpc   float64 `json:"peak_radius_kpc"`
	PeakVelocityKms float64 `json:"peak_velocity_kms"`
	OuterSlope      float64 `json:"outer_slope"`
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, env *Env) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least one step", ErrInvalidStep)
	}

	gc := sweep.Grid
	grid, err := stepGrid(env, &gc)
	if err != nil {
		return nil, err
	}

	method := rotation.Auto
	if sweep.Method != "" {
		if method, err = rotation.ParseMethod(sweep.Method); err != nil {
			return nil, err
		}
	}
	engine := rotation.NewEngine(method)

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i, paramVal := range optim.Linspace(sweep.Min, sweep.Max, sweep.NumSteps) {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		spec := sweep.Base
		if err := spec.Set(sweep.Param, paramVal); err != nil {
			return nil, err
		}

		model, err := env.Registry.Build(grid, spec)
		if err != nil {
			return nil, err
		}
		curve, err := engine.Curve(model)
		if err != nil {
			return nil, err
		}
		summary, err := metrics.Summarize(env.Units, curve)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			ParamValue:      paramVal,
			PeakRadiusKpc:   summary.Peak.RadiusKpc,
			PeakVelocityKms: summary.Peak.VelocityKms,
			OuterSlope:      summary.OuterSlope,
		})

		env.Logger.WithFields(l.IntField("step", i+1), l.IntField("of", sweep.NumSteps),
			l.StringField(sweep.Param, fmt.Sprintf("%.4f", paramVal))).Debug("sweep step")
	}

	return results, nil
}

// MonteCarloConfig refits a dataset with velocities resampled inside their
// uncertainties
type MonteCarloConfig struct {
	Family    fit.Family
	Dataset   *dataset.Dataset
	Policy    dataset.SigmaPolicy
	Guess     []float64
	NumTrials int
	Seed      int64
}

// MonteCarloResult holds one resampled fit
type MonteCarloResult struct {
	TrialID   int
	Free      []float64
	ChiSquare float64
	Converged bool
}

// RunMonteCarlo executes NumTrials fits on perturbed copies of the dataset.
// Each velocity is shifted by a normal deviate with the point's σ. A zero
// Seed draws one from the clock.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, env *Env) ([]MonteCarloResult, error) {
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	policy := cfg.Policy
	if policy == "" {
		policy = dataset.DefaultPolicy
	}
	engine := fit.NewEngine(env.Units, env.Logger, fit.SigmaPolicyOption(policy), fit.NoUncertaintiesOption())

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	base := cfg.Dataset.Records()
	sigmas := cfg.Dataset.Sigmas(policy)

	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		records := make([]dataset.Record, len(base))
		for i, rec := range base {
			rec.VelocityKms += rng.NormFloat64() * env.Units.MsToKms(sigmas[i])
			records[i] = rec
		}
		ds, err := dataset.New(env.Units, records)
		if err != nil {
			return nil, err
		}

		res, err := engine.Fit(ctx, cfg.Family, ds, cfg.Guess)
		var nc *fit.NonConvergenceError
		switch {
		case err == nil:
			results = append(results, MonteCarloResult{TrialID: trial, Free: res.Free, ChiSquare: res.ChiSquare, Converged: true})
		case errors.As(err, &nc):
			results = append(results, MonteCarloResult{TrialID: trial, Free: nc.Last.Free, ChiSquare: nc.Last.ChiSquare})
		default:
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}

		if (trial+1)%10 == 0 {
			env.Logger.WithFields(l.IntField("done", trial+1), l.IntField("of", cfg.NumTrials)).Info("monte carlo progress")
		}
	}

	return results, nil
}

// MonteCarloStats returns the mean and standard deviation of each free
// parameter over converged trials, and how many trials converged.
func MonteCarloStats(results []MonteCarloResult) (mean, std []float64, converged int) {
	var columns [][]float64
	for _, r := range results {
		if !r.Converged {
			continue
		}
		if columns == nil {
			columns = make([][]float64, len(r.Free))
		}
		for j, v := range r.Free {
			columns[j] = append(columns[j], v)
		}
		converged++
	}

	for _, col := range columns {
		m, s := stat.MeanStdDev(col, nil)
		mean = append(mean, m)
		std = append(std, s)
	}
	return mean, std, converged
}
