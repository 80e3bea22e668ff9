// Package dynamo provides the numeric primitives shared by the engines.
//
//   - [State]: phase-space vector, positions first and velocities second
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: numerical stepper interface
//   - [Hamiltonian]: optional energy function
//
// Integrators keep scratch buffers and are NOT safe for concurrent use; create
// one per goroutine.
package dynamo
