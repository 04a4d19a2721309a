package metrics

import "math"

// WithinSigma is the fraction of points whose model value lies within k·σ
// of the observation.
type WithinSigma struct {
	name       string
	k          float64
	violations int
	samples    int
}

func NewWithinSigma(k float64) *WithinSigma {
	return &WithinSigma{
		name: "within_sigma",
		k:    k,
	}
}

func (w *WithinSigma) Name() string {
	return w.name
}

func (w *WithinSigma) Observe(observed, predicted, sigma float64) {
	w.samples++
	if math.Abs(observed-predicted) > w.k*sigma {
		w.violations++
	}
}

func (w *WithinSigma) Value() float64 {
	if w.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(w.violations)/float64(w.samples)
}

func (w *WithinSigma) Reset() {
	w.violations = 0
	w.samples = 0
}
