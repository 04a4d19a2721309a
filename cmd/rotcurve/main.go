package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/sgostarter/i/l"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/san-kum/rotcurve/internal/automation"
	"github.com/san-kum/rotcurve/internal/config"
	"github.com/san-kum/rotcurve/internal/dataset"
	"github.com/san-kum/rotcurve/internal/fit"
	"github.com/san-kum/rotcurve/internal/metrics"
	"github.com/san-kum/rotcurve/internal/potential"
	"github.com/san-kum/rotcurve/internal/rotation"
	"github.com/san-kum/rotcurve/internal/storage"
	"github.com/san-kum/rotcurve/internal/store"
	"github.com/san-kum/rotcurve/internal/units"
	"github.com/san-kum/rotcurve/internal/viz"
)

var (
	configFile string
	preset     string
	verbose    bool
	dataDir    string
	theme      string

	// curve and model flags
	method     string
	scale      float64
	mass       float64
	params     []string
	outFile    string
	minKpc     float64
	maxKpc     float64
	gridPoints int
	tabFile    string

	// fit flags
	fitFamily string
	policy    string
	skipRows  int
	guess     []float64
	saveRun   bool

	// sweep flags
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	// monte carlo flags
	trials int
	seed   int64

	snapshotDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rotcurve",
		Short: "galactic rotation curves from potentials and data",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to the explorer when no command given
			return runExplore(cmd, args)
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			viz.SetTheme(theme)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to the console")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rotcurve", "fit run directory")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", viz.ThemeCyberpunk.Name, "color theme: "+strings.Join(viz.ThemeNames(), ", "))

	curveCmd := &cobra.Command{
		Use:   "curve [family...]",
		Short: "compute rotation curves",
		Long:  "compute rotation curves for the given families, or for the configured models when none are given",
		RunE:  runCurve,
	}
	addGridFlags(curveCmd)
	addModelFlags(curveCmd)
	curveCmd.Flags().StringVarP(&outFile, "out", "o", "", "write curves to .csv or .json (optionally .gz)")
	curveCmd.Flags().StringVar(&tabFile, "tabulated", "", "potential table of radius [kpc] and phi [m^2/s^2]; families given are evaluated on its radii")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare the NFW, Hernquist, Plummer and Jaffe halos",
		RunE:  runCompare,
	}
	addGridFlags(compareCmd)
	compareCmd.Flags().Float64Var(&scale, "scale", config.DefaultScaleRadius, "scale radius [kpc]")
	compareCmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "halo mass [Msun]")
	compareCmd.Flags().StringVar(&method, "method", "", "derivative method: auto, analytic, numeric")

	fitCmd := &cobra.Command{
		Use:   "fit [data]",
		Short: "fit a velocity law to observed data",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFit,
	}
	addFitFlags(fitCmd)
	fitCmd.Flags().BoolVar(&saveRun, "save", false, "record the run under --data")
	fitCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the fit to .json (optionally .gz)")

	mcCmd := &cobra.Command{
		Use:   "montecarlo [data]",
		Short: "refit resampled data to estimate parameter spread",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addFitFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 100, "number of resampled fits")
	mcCmd.Flags().Int64Var(&seed, "seed", 0, "random seed, 0 for time-based")

	sweepCmd := &cobra.Command{
		Use:   "sweep [family]",
		Short: "sweep one model parameter",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addGridFlags(sweepCmd)
	addModelFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "vary", "scale_radius", "parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 30, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of values")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				families := make([]string, len(p.Models))
				for i, m := range p.Models {
					families[i] = string(m.Family)
				}
				fmt.Printf("  %-12s %s\n", name, strings.Join(families, ", "))
			}
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [file]",
		Short: "export the configured curves to .csv or .json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCurves,
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list recorded fit runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a recorded fit run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exploreCmd := &cobra.Command{
		Use:   "explore",
		Short: "interactive scale-radius explorer",
		RunE:  runExplore,
	}
	exploreCmd.Flags().Float64Var(&scale, "scale", config.DefaultScaleRadius, "initial scale radius [kpc]")
	exploreCmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "halo mass [Msun]")
	exploreCmd.Flags().StringVar(&snapshotDir, "snapshots", ".", "snapshot directory")

	rootCmd.AddCommand(curveCmd, compareCmd, fitCmd, mcCmd, sweepCmd, scenarioCmd, presetsCmd, exportCmd, runsCmd, showCmd, exploreCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addGridFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&minKpc, "min-kpc", 0, "innermost radius [kpc], 0 keeps the configured value")
	cmd.Flags().Float64Var(&maxKpc, "max-kpc", 0, "outermost radius [kpc], 0 keeps the configured value")
	cmd.Flags().IntVar(&gridPoints, "points", 0, "grid points, 0 keeps the configured value")
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&method, "method", "", "derivative method: auto, analytic, numeric")
	cmd.Flags().Float64Var(&scale, "scale", config.DefaultScaleRadius, "scale radius [kpc]")
	cmd.Flags().Float64Var(&mass, "mass", config.DefaultMass, "mass [Msun]")
	cmd.Flags().StringSliceVarP(&params, "param", "p", nil, "extra model parameter key=value, repeatable")
}

func addFitFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&fitFamily, "family", "f", "", "velocity law: "+fitFamilyNames()+", or all")
	cmd.Flags().StringVar(&policy, "policy", "", "uncertainty policy: plus, minus, mean, max, asymmetric")
	cmd.Flags().IntVar(&skipRows, "skip-rows", -1, "header lines to skip, -1 keeps the configured value")
	cmd.Flags().Float64SliceVar(&guess, "guess", nil, "initial free parameters")
}

func fitFamilyNames() string {
	names := make([]string, 0, len(fit.Families()))
	for _, f := range fit.Families() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func newLogger() l.Wrapper {
	if verbose {
		return l.NewConsoleLoggerWrapper()
	}
	return l.NewNopLoggerWrapper()
}

// loadConfig resolves --config, then --preset, then the defaults, and
// applies grid overrides.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	case preset != "":
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q, available: %s", preset, strings.Join(config.ListPresets(), ", "))
		}
	default:
		cfg = config.DefaultConfig()
	}

	if minKpc > 0 {
		cfg.Grid.MinKpc = minKpc
	}
	if maxKpc > 0 {
		cfg.Grid.MaxKpc = maxKpc
	}
	if gridPoints > 0 {
		cfg.Grid.Points = gridPoints
	}
	if method != "" {
		cfg.Method = method
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// modelSpec builds a spec from --scale, --mass and --param key=value.
func modelSpec(family string) (potential.Spec, error) {
	f, err := potential.ParseFamily(family)
	if err != nil {
		return potential.Spec{}, err
	}

	spec := potential.Spec{
		Family:         f,
		ScaleRadius:    scale,
		Mass:           mass,
		Density:        config.DefaultDensity,
		SurfaceDensity: config.DefaultDiskDensity,
		Dispersion:     config.DefaultDispersion,
	}
	for _, kv := range params {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return potential.Spec{}, fmt.Errorf("--param %q: expected key=value", kv)
		}
		v, err := cast.ToFloat64E(strings.TrimSpace(raw))
		if err != nil {
			return potential.Spec{}, fmt.Errorf("--param %q: %w", kv, err)
		}
		if err := spec.Set(key, v); err != nil {
			return potential.Spec{}, err
		}
	}
	return spec, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func computeCurves(cfg *config.Config, specs []potential.Spec) ([]*rotation.Curve, error) {
	sys := units.SI()
	grid, err := cfg.BuildGrid(sys)
	if err != nil {
		return nil, err
	}
	m, err := cfg.RotationMethod()
	if err != nil {
		return nil, err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return rotation.NewEnsemble(potential.NewRegistry(sys), rotation.NewEngine(m)).Run(ctx, grid, specs)
}

// tabulatedCurves differentiates the table at path numerically and evaluates
// specs on the same radii.
func tabulatedCurves(cfg *config.Config, path string, specs []potential.Spec) ([]*rotation.Curve, error) {
	sys := units.SI()
	tab, err := potential.LoadTabulated(sys, path)
	if err != nil {
		return nil, err
	}
	m, err := cfg.RotationMethod()
	if err != nil {
		return nil, err
	}
	engine := rotation.NewEngine(m)

	curve, err := engine.Curve(tab)
	if err != nil {
		return nil, err
	}
	curves := []*rotation.Curve{curve}
	if len(specs) == 0 {
		return curves, nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	rest, err := rotation.NewEnsemble(potential.NewRegistry(sys), engine).Run(ctx, tab.Grid(), specs)
	if err != nil {
		return nil, err
	}
	return append(curves, rest...), nil
}

func printCurves(curves []*rotation.Curve) error {
	sys := units.SI()
	graph, err := viz.PlotCurves(sys, curves)
	if err != nil {
		return err
	}
	fmt.Println(graph)

	summaries := make([]metrics.Summary, 0, len(curves))
	for _, c := range curves {
		s, err := metrics.Summarize(sys, c)
		if err != nil {
			return err
		}
		summaries = append(summaries, s)
	}
	fmt.Println(viz.CurveTable(summaries))
	return nil
}

func runCurve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	specs := cfg.Specs()
	if len(args) > 0 {
		specs = specs[:0]
		for _, a := range args {
			s, err := modelSpec(a)
			if err != nil {
				return err
			}
			specs = append(specs, s)
		}
	}

	var curves []*rotation.Curve
	if tabFile != "" {
		if len(args) == 0 {
			specs = nil
		}
		curves, err = tabulatedCurves(cfg, tabFile, specs)
	} else {
		curves, err = computeCurves(cfg, specs)
	}
	if err != nil {
		return err
	}
	if err := printCurves(curves); err != nil {
		return err
	}

	if outFile != "" {
		if err := store.SaveFile(outFile, units.SI(), curves, nil); err != nil {
			return err
		}
		fmt.Printf("saved to %s\n", outFile)
	}
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	specs := make([]potential.Spec, 0, 4)
	for _, f := range potential.HaloProfiles() {
		specs = append(specs, potential.Spec{Family: f, ScaleRadius: scale, Mass: mass})
	}

	curves, err := computeCurves(cfg, specs)
	if err != nil {
		return err
	}
	return printCurves(curves)
}

// fitInputs resolves the dataset path, sigma policy and skip rows from the
// flags and the config's fit section.
func fitInputs(cfg *config.Config, args []string) (*dataset.Dataset, string, dataset.SigmaPolicy, error) {
	path := cfg.Fit.Data
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return nil, "", "", fmt.Errorf("no data file: pass one or set fit.data in the config")
	}

	if policy != "" {
		cfg.Fit.Policy = policy
	}
	p, err := cfg.SigmaPolicy()
	if err != nil {
		return nil, "", "", err
	}

	skip := cfg.Fit.SkipRows
	if skipRows >= 0 {
		skip = skipRows
	}

	records, err := dataset.Load(path, skip)
	if err != nil {
		return nil, "", "", err
	}
	ds, err := dataset.New(units.SI(), records)
	if err != nil {
		return nil, "", "", fmt.Errorf("%s: %w", path, err)
	}
	return ds, path, p, nil
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ds, path, p, err := fitInputs(cfg, args)
	if err != nil {
		return err
	}

	sys := units.SI()
	engine := fit.NewEngine(sys, newLogger(), fit.SettingsOption(cfg.OptimSettings()), fit.SigmaPolicyOption(p))

	ctx, cancel := signalContext()
	defer cancel()

	family := cfg.Fit.Family
	if fitFamily != "" {
		family = fitFamily
	}

	if strings.EqualFold(family, "all") {
		attempts := engine.FitAll(ctx, fit.Families(), ds)
		fmt.Println(viz.AttemptTable(attempts))
		return nil
	}

	f, err := fit.ParseFamily(family)
	if err != nil {
		return err
	}
	start := cfg.Fit.Guess
	if len(guess) > 0 {
		start = guess
	}

	res, err := engine.Fit(ctx, f, ds, start)
	if err != nil {
		return err
	}

	quality, err := automation.FitMetrics(sys, res, ds, p)
	if err != nil {
		return err
	}

	graph, err := viz.PlotFit(sys, ds, res)
	if err != nil {
		return err
	}
	fmt.Println(graph)
	fmt.Println(viz.FitTable(res, quality))

	if saveRun {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(res, ds, path, p, quality)
		if err != nil {
			return err
		}
		fmt.Printf("run saved: %s\n", id)
	}
	if outFile != "" {
		if err := store.SaveFile(outFile, sys, nil, []*fit.Result{res}); err != nil {
			return err
		}
		fmt.Printf("saved to %s\n", outFile)
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ds, _, p, err := fitInputs(cfg, args)
	if err != nil {
		return err
	}

	family := cfg.Fit.Family
	if fitFamily != "" {
		family = fitFamily
	}
	f, err := fit.ParseFamily(family)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	env := automation.NewEnv(units.SI(), newLogger())
	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Family:    f,
		Dataset:   ds,
		Policy:    p,
		Guess:     guess,
		NumTrials: trials,
		Seed:      seed,
	}, env)
	if err != nil {
		return err
	}

	mean, std, converged := automation.MonteCarloStats(results)
	fmt.Printf("%s: %d/%d trials converged\n", f, converged, len(results))
	names := fit.ParamNames(f)
	for i := range mean {
		fmt.Printf("  %-16s %.6g ± %.3g\n", names[i], mean[i], std[i])
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base, err := modelSpec(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	env := automation.NewEnv(units.SI(), newLogger())
	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:     base,
		Param:    sweepParam,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
		Grid:     cfg.Grid,
		Method:   cfg.Method,
	}, env)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tR_PEAK [kpc]\tV_PEAK [km/s]\tSLOPE\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%.3f\t%.2f\t%.3f\n", r.ParamValue, r.PeakRadiusKpc, r.PeakVelocityKms, r.OuterSlope)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	env := automation.NewEnv(units.SI(), newLogger())
	env.BaseDir = filepath.Dir(args[0])

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("  %s\n", sc.Description)
	}

	results, err := automation.RunScenario(ctx, sc, env)
	for _, r := range results {
		fmt.Printf("\n[%d] %s (%s)\n", r.Step, r.Name, r.Kind)
		if len(r.Summaries) > 0 {
			fmt.Println(viz.CurveTable(r.Summaries))
		}
		if r.Fit != nil {
			fmt.Println(viz.FitTable(r.Fit, r.Metrics))
		}
	}
	return err
}

func exportCurves(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	curves, err := computeCurves(cfg, cfg.Specs())
	if err != nil {
		return err
	}
	if err := store.SaveFile(args[0], units.SI(), curves, nil); err != nil {
		return err
	}
	fmt.Printf("exported %d curves to %s\n", len(curves), args[0])
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFAMILY\tTIME\tPOINTS\tCHI2/DOF\tDATA")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4g\t%s\n",
			run.ID,
			run.Family,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Points,
			run.ReducedChiSquare,
			run.Data,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Println(viz.FitTable(meta.Result(), meta.Metrics))

	rows, err := st.LoadResiduals(args[0])
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "R [kpc]\tV_OBS\tV_MODEL\tSIGMA\tPULL")
	for _, r := range rows {
		fmt.Fprintf(w, "%.3f\t%.2f\t%.2f\t%.2f\t%+.2f\n", r.RadiusKpc, r.ObservedKms, r.ModelKms, r.SigmaKms, r.Pull)
	}
	return w.Flush()
}

func runExplore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sys := units.SI()
	grid, err := cfg.BuildGrid(sys)
	if err != nil {
		return err
	}

	e := viz.NewExplorer(sys, grid, newLogger(),
		viz.MassExplorerOption(mass),
		viz.ScaleExplorerOption(scale),
		viz.SnapshotDirExplorerOption(snapshotDir),
	)
	return viz.RunExplorer(e)
}
