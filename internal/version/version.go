// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.1.0"

// Milestones:
// 0.1.0 - Element solver with degeneracy flags, concurrent batch, Barnes-Hut propagation,
//         Horizons and state-file inputs, elements/system TUI, JSON export, /metrics
