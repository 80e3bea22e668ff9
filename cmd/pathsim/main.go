package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/pathsim/internal/analysis"
	"github.com/san-kum/pathsim/internal/config"
	"github.com/san-kum/pathsim/internal/cv"
	"github.com/san-kum/pathsim/internal/experiment"
	"github.com/san-kum/pathsim/internal/extend"
	"github.com/san-kum/pathsim/internal/storage"
	"github.com/san-kum/pathsim/internal/tui"
	"github.com/san-kum/pathsim/internal/viz"
)

var (
	dataDir string
	verbose bool

	configFile  string
	preset      string
	seed        int64
	integrator  string
	dt          float64
	temperature float64
	friction    float64
	pathLength  int
	baseLength  int
	increment   int
	maxAttempts int
	timeout     time.Duration
	concurrent  bool
	saveConfig  string
	useTUI      bool

	cvName         string
	yCVName        string
	phase          bool
	showSparklines bool
)

func main() {
	env := config.LoadEnv()

	rootCmd := &cobra.Command{
		Use:           "pathsim",
		Short:         "fixed-length transition path sampling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verbose)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", env.DataDir, "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "seed a transition and extend it to a fixed-length path",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSampling,
	}
	runCmd.Flags().StringVar(&configFile, "config", env.ConfigPath, "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	runCmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().Float64Var(&temperature, "temperature", config.DefaultTemperature, "bath temperature kT")
	runCmd.Flags().Float64Var(&friction, "friction", config.DefaultFriction, "langevin friction")
	runCmd.Flags().IntVar(&pathLength, "length", config.DefaultPathLength, "path length L in frames")
	runCmd.Flags().IntVar(&baseLength, "base-length", extend.DefaultBaseLength, "first continuation cap")
	runCmd.Flags().IntVar(&increment, "increment", extend.DefaultIncrement, "continuation cap growth per attempt")
	runCmd.Flags().IntVar(&maxAttempts, "max-attempts", extend.DefaultMaxAttempts, "extension attempts")
	runCmd.Flags().DurationVar(&timeout, "timeout", 0, "per-attempt timeout (0 = none)")
	runCmd.Flags().BoolVar(&concurrent, "concurrent", false, "run both continuations in parallel")
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the effective config to this path")
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "follow attempts in a live view")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a collective variable along the path",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&cvName, "cv", "x0", "collective variable")
	plotCmd.Flags().StringVar(&yCVName, "y", "x1", "second variable for --phase")
	plotCmd.Flags().BoolVar(&phase, "phase", false, "plot cv against --y instead of time")
	plotCmd.Flags().StringVar(&configFile, "config", env.ConfigPath, "config file with state definitions")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "state lifetimes and crossings along the path",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&configFile, "config", env.ConfigPath, "config file with state definitions")
	analyzeCmd.Flags().BoolVar(&showSparklines, "sparkline", true, "show a sparkline of each coordinate")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models and integrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			fmt.Printf("models: %s\n", strings.Join(reg.ListModels(), ", "))
			fmt.Printf("integrators: %s\n", strings.Join(reg.ListIntegrators(), ", "))
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, analyzeCmd, presetsCmd, modelsCmd, newBatchCmd(), newSweepCmd(env), newExportCmd(env))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.Failure.Render("error:"), err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig resolves file, then preset, then flags; flags only apply when
// set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if len(args) > 0 {
		cfg.Model = args[0]
	}
	if preset != "" {
		p := config.GetPreset(cfg.Model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Model))
		}
		cfg = p
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("temperature") {
		cfg.Temperature = temperature
	}
	if flags.Changed("friction") {
		cfg.Friction = friction
	}
	if flags.Changed("length") {
		cfg.PathLength = pathLength
	}
	if flags.Changed("base-length") {
		cfg.Extend.BaseLength = baseLength
	}
	if flags.Changed("increment") {
		cfg.Extend.Increment = increment
	}
	if flags.Changed("max-attempts") {
		cfg.Extend.MaxAttempts = maxAttempts
	}
	if flags.Changed("timeout") {
		cfg.Extend.AttemptTimeout = timeout
	}
	if flags.Changed("concurrent") {
		cfg.Extend.Concurrent = concurrent
	}
	return cfg, cfg.Validate()
}

func runSampling(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return err
		}
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	logger := slog.Default()
	if useTUI {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	exp := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sampling %s (L=%d, kT=%g, seed=%d)\n", cfg.Model, cfg.PathLength, cfg.Temperature, cfg.Seed)
	start := time.Now()

	var out *experiment.Outcome
	if useTUI {
		out, err = tui.Run(ctx, cfg.Model, cfg.PathLength, cfg.Extend.MaxAttempts, exp.Run)
	} else {
		out, err = exp.Run(ctx, func(a extend.Attempt) {
			fmt.Println(viz.AttemptLine(a, cfg.Extend.MaxAttempts, cfg.PathLength))
		})
	}
	if err != nil {
		var exhausted *extend.ExhaustedError
		if errors.As(err, &exhausted) {
			fmt.Println(viz.Warning.Render(fmt.Sprintf(
				"no %d-frame path after %d attempts; try --max-attempts or --increment", exhausted.Length, exhausted.Attempts)))
		}
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(exp.Metadata(out), out.Result.Trajectory)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("seed path: %d frames\n", out.Seed.Len())
	fmt.Printf("path: %d frames after %d attempts (max_len %d)\n", out.Result.Trajectory.Len(), out.Result.Attempts, out.Result.MaxLen)
	printMetrics(out.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	if len(m) == 0 {
		return
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
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
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tL\tKT\tINTEG\tATTEMPTS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.3f\t%s\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.PathLength,
			run.Temperature,
			run.Integrator,
			run.Attempts,
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

	lines := []string{
		viz.KV("model", meta.Model),
		viz.KV("time", meta.Timestamp.Format(time.RFC3339)),
		viz.KV("integrator", meta.Integrator),
		viz.KV("kT", meta.Temperature),
		viz.KV("friction", meta.Friction),
		viz.KV("dt", meta.Dt),
		viz.KV("frame dt", meta.FrameDt),
		viz.KV("seed", meta.Seed),
		viz.KV("ensemble", meta.Ensemble),
		viz.KV("frames", meta.Frames),
		viz.KV("seed path", meta.SeedLength),
		viz.KV("attempts", meta.Attempts),
		viz.KV("max_len", meta.MaxLen),
	}
	for _, s := range meta.States {
		lines = append(lines, viz.KV("state", s))
	}
	fmt.Println(viz.Panel(meta.ID, strings.Join(lines, "\n")))
	printMetrics(meta.Metrics)
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if traj.IsEmpty() {
		fmt.Println("no frames")
		return nil
	}

	x, err := cv.Parse(cvName)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("frames: %d\n\n", traj.Len())

	if phase {
		y, err := cv.Parse(yCVName)
		if err != nil {
			return err
		}
		if err := checkCV(y, meta); err != nil {
			return err
		}
		fmt.Println(analysis.NewPhasePortrait(traj, x, y).ASCII(70, 20))
		return nil
	}

	if err := checkCV(x, meta); err != nil {
		return err
	}
	var bounds []float64
	if cfg, err := stateConfig(); err == nil {
		for _, s := range cfg.States {
			if s.CV == cvName || (s.CV == "" && cvName == "x0") {
				bounds = append(bounds, s.Min, s.Max)
			}
		}
	}
	opts := viz.DefaultPlotOptions()
	opts.Caption = fmt.Sprintf("%s over %d frames", x.Name(), traj.Len())
	fmt.Println(viz.CVPlot(cv.Series(x, traj), bounds, opts))
	return nil
}

// checkCV guards against plotting a coordinate the model does not have.
func checkCV(c cv.CV, meta *storage.RunMetadata) error {
	reg := experiment.NewRegistry()
	model, err := reg.GetModel(meta.Model)
	if err != nil {
		return err
	}
	var idx int
	if _, err := fmt.Sscanf(c.Name(), "x%d", &idx); err == nil && idx >= model.StateDim()/2 {
		return fmt.Errorf("%s has %d coordinates, no %s", meta.Model, model.StateDim()/2, c.Name())
	}
	return nil
}

func stateConfig() (*config.Config, error) {
	if configFile == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(configFile)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	cfg, err := stateConfig()
	if err != nil {
		return err
	}
	vols, err := cfg.Volumes()
	if err != nil {
		return err
	}
	states := make([]analysis.State, len(vols))
	for i, v := range vols {
		states[i] = analysis.State{Name: cfg.States[i].Name, Volume: v}
	}

	frameDt := meta.FrameDt
	if frameDt <= 0 {
		frameDt = 1
	}
	rep := analysis.Analyze(traj, frameDt, states...)

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("frames: %d over %.3f time units\n\n", rep.Frames, rep.Duration)

	for _, s := range states {
		fmt.Printf("state %s: occupancy %.1f%%\n", s.Name, 100*rep.Occupancy[s.Name])
		fmt.Printf("  continuous %s\n", rep.ContinuousTimes[s.Name])
		fmt.Printf("  lifetime   %s\n", rep.Lifetimes[s.Name])
		fmt.Printf("  flux in    %s\n", rep.Flux[s.Name].In)
		fmt.Printf("  flux out   %s\n", rep.Flux[s.Name].Out)
	}
	fmt.Println()

	keys := make([]string, 0, len(rep.Crossings))
	for k := range rep.Crossings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("crossings %s: %d, duration %s\n", k, rep.Crossings[k], rep.TransitionDurations[k])
	}
	fmt.Printf("total transitions: %d\n\n", rep.Transitions)

	names := make([]string, 0, len(rep.CV))
	for k := range rep.CV {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s: %s\n", name, rep.CV[name])
		if showSparklines {
			c, err := cv.Parse(name)
			if err != nil {
				continue
			}
			fmt.Printf("  %s\n", viz.Sparkline(cv.Series(c, traj), 60))
		}
	}

	if segs := analysis.TransitionSegments(traj, vols[0], vols[1]); len(segs) > 0 {
		fmt.Printf("\nfirst %s->%s crossing: %d frames\n", states[0].Name, states[1].Name, segs[0].Len())
	}
	return nil
}
