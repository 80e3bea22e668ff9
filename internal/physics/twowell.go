package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/pathsim/internal/dynamo"
)

// TwoWell is a 2D extension of DoubleWell: a quartic double well along x,
// a harmonic valley along y, and a bilinear coupling that bends the
// minimum energy path.
//
//	V(x, y) = A(x^2 - B)^2 + K/2 y^2 + C x y
type TwoWell struct {
	A, B, K, C, Mass float64
}

func NewTwoWell() *TwoWell {
	return &TwoWell{A: 1.0, B: 1.0, K: 4.0, C: 0.5, Mass: 1.0}
}

func (w *TwoWell) StateDim() int         { return 4 }
func (w *TwoWell) ParticleMass() float64 { return w.Mass }

func (w *TwoWell) Derive(s dynamo.State, _ float64) dynamo.State {
	if len(s) < 4 {
		return make(dynamo.State, 4)
	}
	x, y, vx, vy := s[0], s[1], s[2], s[3]
	fx := -(4*w.A*x*(x*x-w.B) + w.C*y)
	fy := -(w.K*y + w.C*x)
	return dynamo.State{vx, vy, fx / w.Mass, fy / w.Mass}
}

func (w *TwoWell) Potential(x, y float64) float64 {
	return w.A*math.Pow(x*x-w.B, 2) + 0.5*w.K*y*y + w.C*x*y
}

func (w *TwoWell) DefaultState() dynamo.State {
	x := -math.Sqrt(w.B)
	return dynamo.State{x, -w.C * x / w.K, 0, 0}
}

func (w *TwoWell) Energy(s dynamo.State) float64 {
	if len(s) < 4 {
		return 0
	}
	ke := 0.5 * w.Mass * (s[2]*s[2] + s[3]*s[3])
	return ke + w.Potential(s[0], s[1])
}

func (w *TwoWell) GetParams() map[string]float64 {
	return map[string]float64{"A": w.A, "B": w.B, "K": w.K, "C": w.C, "mass": w.Mass}
}

func (w *TwoWell) SetParam(n string, v float64) error {
	switch n {
	case "A":
		w.A = v
	case "B":
		if v <= 0 {
			return fmt.Errorf("%w: B must be positive, got %g", dynamo.ErrParameterBounds, v)
		}
		w.B = v
	case "K":
		w.K = v
	case "C":
		w.C = v
	case "mass":
		if v <= 0 {
			return fmt.Errorf("%w: mass must be positive, got %g", dynamo.ErrParameterBounds, v)
		}
		w.Mass = v
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParameter, n)
	}
	return nil
}
