package fit

import (
	"errors"
	"fmt"

	"github.com/san-kum/rotcurve/internal/dataset"
	"github.com/san-kum/rotcurve/internal/potential"
	"gonum.org/v1/gonum/optimize"
)

var (
	// ErrUnknownFamily indicates a fit family with no velocity law.
	ErrUnknownFamily = errors.New("fit: unknown family")

	// ErrInvalidParameter is shared with potential so that callers match one
	// sentinel for every rejected physical parameter.
	ErrInvalidParameter = potential.ErrInvalidParameter

	// ErrInvalidGuess indicates a starting vector of the wrong length or one
	// where the objective is not finite.
	ErrInvalidGuess = errors.New("fit: invalid initial guess")

	// ErrZeroUncertainty indicates a data point whose selected uncertainty is
	// zero, which would make its chi-square term infinite.
	ErrZeroUncertainty = fmt.Errorf("%w: zero uncertainty", dataset.ErrInvalidDataset)

	// ErrNonConvergence indicates the optimizer ran out of budget.
	ErrNonConvergence = errors.New("fit: optimizer did not converge")
)

// NonConvergenceError carries the last iterate of a fit that exhausted its
// iteration, evaluation or time budget. Last is never presented as a final
// answer by this package.
type NonConvergenceError struct {
	Last   *Result
	Status optimize.Status
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("fit: %s did not converge (%s) after %d iterations, chi2=%g",
		e.Last.Family, e.Status, e.Last.Iterations, e.Last.ChiSquare)
}

func (e *NonConvergenceError) Unwrap() error { return ErrNonConvergence }
