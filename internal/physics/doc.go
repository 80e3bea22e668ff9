// Package physics provides the model potentials the engines integrate.
//
// Each model implements [dynamo.System]; the velocity half of Derive holds
// accelerations so the models work with both Verlet and Langevin steppers:
//
//   - [DoubleWell]: 1D quartic double well, the canonical two-state system
//   - [TwoWell]: 2D coupled double well with a curved reaction path
//
// Both also implement [dynamo.Hamiltonian], [dynamo.Masser] and
// [dynamo.Configurable].
package physics
