package potential

import (
	"errors"
	"fmt"
)

// Domain errors for potential construction.
var (
	// ErrInvalidParameter indicates a non-positive scale radius, mass or
	// density, a negative dispersion, or a malformed grid.
	ErrInvalidParameter = errors.New("potential: invalid parameter")

	// ErrDomainSingularity indicates a radius at or below zero.
	ErrDomainSingularity = errors.New("potential: radius must be strictly positive")

	// ErrUnknownFamily indicates a family name with no registered constructor.
	ErrUnknownFamily = errors.New("potential: unknown family")

	// ErrDimensionMismatch indicates tabulated values that do not match the grid.
	ErrDimensionMismatch = errors.New("potential: dimension mismatch between values and grid")
)

// ParameterError wraps a rejected parameter with the family and value that
// caused it. It always matches ErrInvalidParameter.
type ParameterError struct {
	Family  Family
	Name    string
	Value   float64
	Wrapped error
}

func (e *ParameterError) Error() string {
	reason := ErrInvalidParameter
	if e.Wrapped != nil {
		reason = e.Wrapped
	}
	if e.Family == "" {
		return fmt.Sprintf("%s=%g: %v", e.Name, e.Value, reason)
	}
	return fmt.Sprintf("%s: %s=%g: %v", e.Family, e.Name, e.Value, reason)
}

func (e *ParameterError) Unwrap() []error {
	if e.Wrapped == nil || e.Wrapped == ErrInvalidParameter {
		return []error{ErrInvalidParameter}
	}
	return []error{ErrInvalidParameter, e.Wrapped}
}
