// Package viz renders rotation curves and fits in the terminal.
//
//   - [PlotCurves], [PlotFit]: asciigraph line plots with per-series colors
//   - [FitTable], [CurveTable], [AttemptTable]: lipgloss summaries
//   - [Explorer]: a Bubble Tea model with one scale-radius slider per halo
//     profile, drawn on a Braille [Canvas]
//
// # Key Bindings
//
//	↑/↓   - Select profile
//	←/→   - Scale radius ±0.1 kpc
//	H/L   - Scale radius ±1 kpc
//	Space - Show/hide profile
//	S     - Save snapshot CSV
//	R     - Reset sliders
//
// Snapshots are named after the four slider values, e.g.
// curve_10.0_12.5_10.0_3.2.csv.
package viz
