// Package analysis characterizes single trajectories against stable states.
//
//   - [ContinuousSegments]: maximal runs of frames inside a volume
//   - [TransitionSegments]: every From->To crossing in a trajectory
//   - [Lifetimes]: residence times in a state, in simulation time units
//   - [Summarize]: descriptive statistics over any sample
//   - [NewPhasePortrait]: two CVs plotted against each other as ASCII art
//
// # Reporting a path
//
//	rep := analysis.Analyze(traj, frameDt, analysis.State{Name: "A", Volume: a}, analysis.State{Name: "B", Volume: b})
//	fmt.Println(rep.Transitions, rep.Lifetimes["A"].Mean)
package analysis
