package rotation

import (
	"errors"
	"fmt"
)

var (
	// ErrGridTooShort indicates fewer than two samples to difference.
	ErrGridTooShort = errors.New("rotation: need at least two grid points")

	// ErrLengthMismatch indicates values and abscissae of different length.
	ErrLengthMismatch = errors.New("rotation: values and grid differ in length")
)

// Gradient returns df/dx sampled at x. x must be strictly increasing but need
// not be uniform. Interior points use the second-order centered formula with
// the left (hs) and right (hd) spacings
//
//	f'(x_i) = (hs² f[i+1] + (hd² - hs²) f[i] - hd² f[i-1]) / (hs·hd·(hs+hd))
//
// which reduces to (f[i+1]-f[i-1])/2h on a uniform grid. The two endpoints use
// first-order one-sided differences.
func Gradient(f, x []float64) ([]float64, error) {
	n := len(x)
	if len(f) != n {
		return nil, fmt.Errorf("%w: %d values, %d points", ErrLengthMismatch, len(f), n)
	}
	if n < 2 {
		return nil, ErrGridTooShort
	}

	out := make([]float64, n)
	out[0] = (f[1] - f[0]) / (x[1] - x[0])
	out[n-1] = (f[n-1] - f[n-2]) / (x[n-1] - x[n-2])

	for i := 1; i < n-1; i++ {
		hs := x[i] - x[i-1]
		hd := x[i+1] - x[i]
		out[i] = (hs*hs*f[i+1] + (hd*hd-hs*hs)*f[i] - hd*hd*f[i-1]) / (hs * hd * (hd + hs))
	}

	return out, nil
}
