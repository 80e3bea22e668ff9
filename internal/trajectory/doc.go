// Package trajectory holds the frame sequences that engines produce and
// ensembles inspect.
//
// A [Trajectory] is immutable once built. Slicing supports negative bounds,
// [Trajectory.At] supports negative indices, and [Trajectory.Concat] never
// duplicates a shared boundary frame.
package trajectory
