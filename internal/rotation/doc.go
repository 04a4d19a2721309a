// Package rotation derives circular-velocity curves from potential models.
//
// # Overview
//
// For a model Φ sampled on a radial grid the circular velocity is
//
//	v(r) = sqrt(r · |dΦ/dr|)
//
// The Engine picks the derivative source per model:
//
//   - potential.ConstantVelocity models return their constant directly
//   - potential.Differentiable models use the closed-form derivative
//   - everything else goes through Gradient, a second-order finite
//     difference that uses the grid's actual spacing
//
// Forcing Numeric skips the closed-form derivative, which is how the
// analytic and numeric paths are compared against each other.
//
// # Example
//
//	sys := units.SI()
//	grid, _ := potential.LinearGrid(sys, 0.1, 50, 500)
//	nfw, _ := potential.NewNFW(sys, grid, potential.MassProfile{ScaleRadius: 10, Mass: 1.5e12})
//	curve, err := rotation.NewEngine(rotation.Auto).Curve(nfw)
//	r, v := curve.Kpc(sys)
//
// # Thread Safety
//
// Engine holds no mutable state. Curves are created fresh per call and never
// modified afterwards, so one Engine may serve any number of goroutines.
package rotation
