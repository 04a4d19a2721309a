// Package metrics summarizes rotation curves and scores fitted models
// against observations.
package metrics

import (
	"fmt"
	"math"
)

// Metric accumulates one score over (observed, predicted, sigma) samples.
type Metric interface {
	Name() string
	Observe(observed, predicted, sigma float64)
	Value() float64
	Reset()
}

// Standard returns the metrics reported for every fit.
func Standard() []Metric {
	return []Metric{NewChiSquare(), NewRMS(), NewMaxResidual(), NewWithinSigma(1)}
}

// Evaluate feeds every sample to each metric and collects the values by name.
func Evaluate(observed, predicted, sigma []float64, ms ...Metric) (map[string]float64, error) {
	if len(predicted) != len(observed) || len(sigma) != len(observed) {
		return nil, fmt.Errorf("metrics: length mismatch %d/%d/%d", len(observed), len(predicted), len(sigma))
	}
	if len(ms) == 0 {
		ms = Standard()
	}

	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for i := range observed {
			m.Observe(observed[i], predicted[i], sigma[i])
		}
		out[m.Name()] = m.Value()
	}
	return out, nil
}

// ReducedChiSquare is chi2/(n-k), or NaN when there are no degrees of freedom.
func ReducedChiSquare(chi2 float64, n, k int) float64 {
	if n-k <= 0 {
		return math.NaN()
	}
	return chi2 / float64(n-k)
}
