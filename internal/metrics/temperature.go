package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pathsim/internal/dynamo"
)

// KineticTemperature estimates kT from equipartition, m<v^2> per degree of
// freedom, averaged over observed frames.
type KineticTemperature struct {
	mass    float64
	sum     float64
	samples int
}

func NewKineticTemperature(mass float64) *KineticTemperature {
	return &KineticTemperature{mass: mass}
}

func (k *KineticTemperature) Name() string { return "kinetic_temperature" }

func (k *KineticTemperature) Observe(x dynamo.State, t float64) {
	v := x.Velocities()
	if len(v) == 0 {
		return
	}
	k.sum += k.mass * floats.Dot(v, v) / float64(len(v))
	k.samples++
}

func (k *KineticTemperature) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.sum / float64(k.samples)
}

func (k *KineticTemperature) Reset() {
	k.sum = 0
	k.samples = 0
}

// Defaults returns the metrics the CLI attaches to an engine for dyn.
func Defaults(dyn dynamo.System) []dynamo.Metric {
	ms := []dynamo.Metric{NewKineticTemperature(dynamo.MassOf(dyn))}
	if h, ok := dyn.(dynamo.Hamiltonian); ok {
		ms = append(ms, NewEnergy(h))
	}
	return ms
}
