// Package viz renders trajectories and extension progress for the terminal.
//
//   - [CVPlot]: a CV time series with state boundaries, via asciigraph
//   - [Sparkline]: a one-line overview of a series
//   - [AttemptLine]: one row of extension progress
//   - [Panel]: a titled lipgloss box for summaries
package viz
