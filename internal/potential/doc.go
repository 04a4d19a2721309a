// Package potential provides the gravitational potential models behind every
// rotation curve in this module.
//
// The package defines:
//
//   - [Grid]: immutable, strictly increasing radial grid in meters
//   - [Model]: a potential evaluated on a grid, tagged by its [Family]
//   - [Differentiable]: models with a closed-form dΦ/dr
//   - [ConstantVelocity]: models whose circular velocity is independent of r
//   - [Registry]: family -> constructor dispatch used by config and the CLI
//
// Parameters are supplied in human units (kpc, Msun, km/s) and converted to SI
// once at construction; nothing is mutated afterwards.
//
// # Example
//
//	sys := units.SI()
//	grid, _ := potential.LinearGrid(sys, 0.1, 50, 500)
//	nfw, _ := potential.NewNFW(sys, grid, potential.MassProfile{ScaleRadius: 10, Mass: 1.5e12})
//	phi := nfw.Potential()
//
// # Thread Safety
//
// Grids and models are read-only after construction and may be shared across
// goroutines without synchronization.
package potential
