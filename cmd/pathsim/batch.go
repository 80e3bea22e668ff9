package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/pathsim/internal/automation"
	"github.com/san-kum/pathsim/internal/config"
	"github.com/san-kum/pathsim/internal/experiment"
	"github.com/san-kum/pathsim/internal/storage"
	"github.com/san-kum/pathsim/internal/viz"
)

var (
	workers    int
	noSave     bool
	saveSweep  bool
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	repeats    int
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	cmd.Flags().IntVar(&workers, "workers", 1, "runs in flight")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store sampled paths")
	return cmd
}

func newSweepCmd(env config.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "measure extension success across a parameter range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	cmd.Flags().StringVar(&configFile, "config", env.ConfigPath, "base config file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "base preset")
	cmd.Flags().StringVar(&sweepParam, "param", "temperature", "temperature, friction, path_length or a model parameter")
	cmd.Flags().Float64Var(&sweepMin, "min", 0.1, "first value")
	cmd.Flags().Float64Var(&sweepMax, "max", 0.4, "last value")
	cmd.Flags().IntVar(&sweepSteps, "steps", 4, "number of values")
	cmd.Flags().IntVar(&repeats, "repeats", 3, "seeds per value")
	cmd.Flags().IntVar(&workers, "workers", 1, "runs in flight")
	cmd.Flags().BoolVar(&saveSweep, "save", false, "store sampled paths")
	return cmd
}

func batchOptions(save bool) (automation.RunOptions, error) {
	opts := automation.RunOptions{Workers: workers, Logger: slog.Default()}
	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return opts, err
		}
		opts.Store = st
	}

	var mu sync.Mutex
	opts.Progress = func(r automation.RunResult) {
		mu.Lock()
		defer mu.Unlock()
		status := viz.Success.Render("ok")
		if !r.OK() {
			status = viz.Warning.Render("miss")
		}
		fmt.Printf("  %-20s seed %-6d attempts %d  %s\n", r.Step, r.Seed, r.Attempts, status)
	}
	return opts, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	jobs, err := automation.Plan(sc)
	if err != nil {
		return err
	}
	opts, err := batchOptions(!noSave)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(viz.Title.Render(sc.Name))
	if sc.Description != "" {
		fmt.Println(viz.Subtle.Render(sc.Description))
	}
	start := time.Now()
	results, err := automation.RunJobs(ctx, jobs, experiment.NewRegistry(), opts)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSEED\tATTEMPTS\tFRAMES\tRUN")
	ok := 0
	for _, r := range results {
		run := r.RunID
		if !r.OK() {
			run = "-"
		} else {
			ok++
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", r.Step, r.Seed, r.Attempts, r.Frames, run)
	}
	w.Flush()
	fmt.Printf("%d/%d paths in %v\n", ok, len(results), time.Since(start).Round(time.Millisecond))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	opts, err := batchOptions(saveSweep)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sw := &automation.ParameterSweep{
		Base:     base,
		Param:    sweepParam,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
		Repeats:  repeats,
	}
	fmt.Printf("sweeping %s over [%g, %g] on %s\n", sweepParam, sweepMin, sweepMax, base.Model)
	results, err := automation.RunSweep(ctx, sw, experiment.NewRegistry(), opts)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tRUNS\tSUCCESS\tMEAN ATTEMPTS\t\n", sweepParam)
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%d\t%.0f%%\t%.2f\t%s\n",
			r.Value, r.Runs, 100*r.SuccessRate(), r.MeanAttempts, viz.ProgressBar(r.SuccessRate(), 10))
	}
	return w.Flush()
}
