package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/pathsim/internal/dynamo"
)

// DoubleWell models a particle in the bistable potential V(x) = A(x^2 - B)^2.
// Minima sit at x = ±sqrt(B) and the barrier height is A*B^2.
type DoubleWell struct {
	A, B, Mass float64
}

func NewDoubleWell() *DoubleWell {
	return &DoubleWell{A: 1.0, B: 1.0, Mass: 1.0}
}

func (d *DoubleWell) StateDim() int         { return 2 }
func (d *DoubleWell) ParticleMass() float64 { return d.Mass }

func (d *DoubleWell) Derive(s dynamo.State, _ float64) dynamo.State {
	if len(s) < 2 {
		return make(dynamo.State, 2)
	}
	x, v := s[0], s[1]
	return dynamo.State{v, -4 * d.A * x * (x*x - d.B) / d.Mass}
}

func (d *DoubleWell) Potential(x float64) float64 {
	return d.A * math.Pow(x*x-d.B, 2)
}

// Minima returns the positions of the two wells, left first.
func (d *DoubleWell) Minima() (float64, float64) {
	r := math.Sqrt(d.B)
	return -r, r
}

func (d *DoubleWell) DefaultState() dynamo.State {
	left, _ := d.Minima()
	return dynamo.State{left, 0}
}

func (d *DoubleWell) Energy(s dynamo.State) float64 {
	if len(s) < 2 {
		return 0
	}
	x, v := s[0], s[1]
	return 0.5*d.Mass*v*v + d.Potential(x)
}

func (d *DoubleWell) GetParams() map[string]float64 {
	return map[string]float64{"A": d.A, "B": d.B, "mass": d.Mass}
}

func (d *DoubleWell) SetParam(n string, v float64) error {
	switch n {
	case "A":
		d.A = v
	case "B":
		if v <= 0 {
			return fmt.Errorf("%w: B must be positive, got %g", dynamo.ErrParameterBounds, v)
		}
		d.B = v
	case "mass":
		if v <= 0 {
			return fmt.Errorf("%w: mass must be positive, got %g", dynamo.ErrParameterBounds, v)
		}
		d.Mass = v
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParameter, n)
	}
	return nil
}
