// Package ensemble defines path ensembles: predicates over whole
// trajectories together with a search that extracts members from longer
// trajectories.
//
// The transition path sampling ensembles are [FixedLengthTPS], which the
// extender targets, and [Transition], which seeding and analysis use. Both
// are built from per-frame [volume.Volume] state definitions.
//
// Ensembles without a dedicated search fall back to [Scan], which tries
// windows longest-first at every start position. Give such ensembles a
// length bound (for example via [And] with a [Length]) before scanning long
// trajectories.
package ensemble
