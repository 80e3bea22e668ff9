package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/pathsim/internal/dynamo"
	"github.com/san-kum/pathsim/internal/engine"
	"github.com/san-kum/pathsim/internal/integrators"
	"github.com/san-kum/pathsim/internal/metrics"
	"github.com/san-kum/pathsim/internal/physics"
)

// Model is what a registered system must offer to be sampled.
type Model interface {
	dynamo.System
	dynamo.Hamiltonian
	dynamo.Configurable
	DefaultState() dynamo.State
}

type Registry struct {
	models      map[string]func() Model
	integrators map[string]func(kT, gamma float64) engine.IntegratorFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func() Model),
		integrators: make(map[string]func(kT, gamma float64) engine.IntegratorFactory),
	}

	r.models["doublewell"] = func() Model { return physics.NewDoubleWell() }
	r.models["twowell"] = func() Model { return physics.NewTwoWell() }

	r.integrators["langevin"] = func(kT, gamma float64) engine.IntegratorFactory {
		return func(seed int64) dynamo.Integrator { return integrators.NewLangevin(kT, gamma, seed) }
	}
	// verlet is deterministic and ignores the bath
	r.integrators["verlet"] = func(float64, float64) engine.IntegratorFactory {
		return func(int64) dynamo.Integrator { return integrators.NewVelocityVerlet() }
	}

	return r
}

func (r *Registry) GetModel(name string) (Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string, kT, gamma float64) (engine.IntegratorFactory, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(kT, gamma), nil
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) DefaultMetrics(dyn dynamo.System) []dynamo.Metric {
	return metrics.Defaults(dyn)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
