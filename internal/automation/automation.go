package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pathsim/internal/config"
	"github.com/san-kum/pathsim/internal/experiment"
	"github.com/san-kum/pathsim/internal/extend"
	"github.com/san-kum/pathsim/internal/storage"
)

// Scenario is a scripted batch of sampling runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset ("model/name", default
// "doublewell/default") and applies the non-zero overrides. Repeats runs
// the step with seeds Seed, Seed+1, ...
type ScenarioStep struct {
	Name        string             `yaml:"name"`
	Preset      string             `yaml:"preset"`
	Temperature float64            `yaml:"temperature"`
	PathLength  int                `yaml:"path_length"`
	Seed        int64              `yaml:"seed"`
	Repeats     int                `yaml:"repeats"`
	Params      map[string]float64 `yaml:"params"`
}

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

// Job is one planned sampling run.
type Job struct {
	Step   string
	Config *config.Config
}

// Plan expands a scenario into validated jobs without running anything.
func Plan(sc *Scenario) ([]Job, error) {
	var jobs []Job
	for i, step := range sc.Steps {
		base, err := presetConfig(step.Preset)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.Temperature > 0 {
			base.Temperature = step.Temperature
		}
		if step.PathLength > 0 {
			base.PathLength = step.PathLength
		}
		if step.Seed != 0 {
			base.Seed = step.Seed
		}
		for k, v := range step.Params {
			if base.Params == nil {
				base.Params = make(map[string]float64)
			}
			base.Params[k] = v
		}
		if err := base.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}

		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		for r := 0; r < max(step.Repeats, 1); r++ {
			cfg := base.Clone()
			cfg.Seed = base.Seed + int64(r)
			jobs = append(jobs, Job{Step: name, Config: cfg})
		}
	}
	return jobs, nil
}

func presetConfig(ref string) (*config.Config, error) {
	if ref == "" {
		ref = config.DefaultModel + "/default"
	}
	model, name, ok := strings.Cut(ref, "/")
	if !ok {
		name = "default"
	}
	cfg := config.GetPreset(model, name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", ref)
	}
	return cfg, nil
}

type RunOptions struct {
	// Workers bounds concurrent runs; zero means one.
	Workers int
	// Store, when set, saves every successful path.
	Store  *storage.Store
	Logger *slog.Logger
	// Progress is called after each run, possibly from several goroutines.
	Progress func(RunResult)
}

type RunResult struct {
	Step     string
	Seed     int64
	RunID    string
	Frames   int
	Attempts int
	Err      error
}

func (r RunResult) OK() bool { return r.Err == nil }

// RunJobs executes jobs with at most Workers in flight. A run that ends in
// ErrExtensionExhausted or ErrNoTransition is recorded and the batch goes
// on; any other error cancels the remaining runs.
func RunJobs(ctx context.Context, jobs []Job, reg *experiment.Registry, opts RunOptions) ([]RunResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "automation"))

	results := make([]RunResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			res := RunResult{Step: job.Step, Seed: job.Config.Seed}

			exp := experiment.New(job.Config, reg, logger)
			if err := exp.Setup(); err != nil {
				return fmt.Errorf("%s seed %d: %w", job.Step, job.Config.Seed, err)
			}
			out, err := exp.Run(gctx, nil)
			switch {
			case err == nil:
				res.Frames = out.Result.Trajectory.Len()
				res.Attempts = out.Result.Attempts
				if opts.Store != nil {
					if res.RunID, err = opts.Store.Save(exp.Metadata(out), out.Result.Trajectory); err != nil {
						return err
					}
				}
			case errors.Is(err, extend.ErrExtensionExhausted), errors.Is(err, extend.ErrNoTransition):
				res.Err = err
				var exhausted *extend.ExhaustedError
				if errors.As(err, &exhausted) {
					res.Attempts = exhausted.Attempts
				}
			default:
				return fmt.Errorf("%s seed %d: %w", job.Step, job.Config.Seed, err)
			}

			logger.Info("batch run finished",
				slog.String("step", res.Step),
				slog.Int64("seed", res.Seed),
				slog.Bool("ok", res.OK()),
				slog.Int("attempts", res.Attempts),
			)
			results[i] = res
			if opts.Progress != nil {
				opts.Progress(res)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func RunScenario(ctx context.Context, sc *Scenario, reg *experiment.Registry, opts RunOptions) ([]RunResult, error) {
	jobs, err := Plan(sc)
	if err != nil {
		return nil, err
	}
	return RunJobs(ctx, jobs, reg, opts)
}

// ParameterSweep varies one setting across NumSteps evenly spaced values.
// Param is "temperature", "friction", "path_length" or a model parameter.
type ParameterSweep struct {
	Base     *config.Config
	Param    string
	Min, Max float64
	NumSteps int
	Repeats  int
}

type SweepResult struct {
	Value        float64
	Runs         int
	Successes    int
	MeanAttempts float64
}

func (s SweepResult) SuccessRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Runs)
}

func (sw *ParameterSweep) Values() []float64 {
	if sw.NumSteps <= 1 {
		return []float64{sw.Min}
	}
	step := (sw.Max - sw.Min) / float64(sw.NumSteps-1)
	out := make([]float64, sw.NumSteps)
	for i := range out {
		out[i] = sw.Min + float64(i)*step
	}
	out[len(out)-1] = sw.Max
	return out
}

func (sw *ParameterSweep) Jobs() ([]Job, error) {
	if sw.Base == nil {
		return nil, fmt.Errorf("sweep needs a base config")
	}
	var jobs []Job
	for _, v := range sw.Values() {
		cfg := sw.Base.Clone()
		switch sw.Param {
		case "temperature":
			cfg.Temperature = v
		case "friction":
			cfg.Friction = v
		case "path_length":
			cfg.PathLength = int(v)
		default:
			if cfg.Params == nil {
				cfg.Params = make(map[string]float64)
			}
			cfg.Params[sw.Param] = v
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sw.Param, v, err)
		}
		for r := 0; r < max(sw.Repeats, 1); r++ {
			job := cfg.Clone()
			job.Seed = cfg.Seed + int64(r)
			jobs = append(jobs, Job{Step: fmt.Sprintf("%s=%g", sw.Param, v), Config: job})
		}
	}
	return jobs, nil
}

func RunSweep(ctx context.Context, sw *ParameterSweep, reg *experiment.Registry, opts RunOptions) ([]SweepResult, error) {
	jobs, err := sw.Jobs()
	if err != nil {
		return nil, err
	}
	runs, err := RunJobs(ctx, jobs, reg, opts)
	if err != nil {
		return nil, err
	}
	return Aggregate(sw.Values(), sw.Param, runs), nil
}

// Aggregate groups run results by swept value. MeanAttempts covers
// successful runs only.
func Aggregate(values []float64, param string, runs []RunResult) []SweepResult {
	out := make([]SweepResult, len(values))
	for i, v := range values {
		label := fmt.Sprintf("%s=%g", param, v)
		var attempts []float64
		out[i].Value = v
		for _, r := range runs {
			if r.Step != label {
				continue
			}
			out[i].Runs++
			if r.OK() {
				out[i].Successes++
				attempts = append(attempts, float64(r.Attempts))
			}
		}
		if len(attempts) > 0 {
			out[i].MeanAttempts = stat.Mean(attempts, nil)
		}
	}
	return out
}
