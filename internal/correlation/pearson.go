// Package correlation computes Pearson coefficients between the order series
// and ad metric series.
package correlation

import (
	"encoding/json"
	"fmt"
	"math"
)

// Outcome tags how a coefficient came about.
type Outcome int

const (
	// Insufficient means fewer than two paired observations.
	Insufficient Outcome = iota
	// NoCorrelation means at least one series has zero variance.
	NoCorrelation
	// Correlated carries a coefficient in [-1, 1].
	Correlated
)

func (o Outcome) String() string {
	switch o {
	case NoCorrelation:
		return "no_correlation"
	case Correlated:
		return "correlated"
	}
	return "insufficient"
}

// Result is a tagged Pearson coefficient.
type Result struct {
	Outcome Outcome
	R       float64
	// N is the number of paired observations used.
	N int
}

// Value returns the coefficient, 0 for NoCorrelation, or NaN for Insufficient.
func (r Result) Value() float64 {
	switch r.Outcome {
	case Correlated:
		return r.R
	case NoCorrelation:
		return 0
	}
	return math.NaN()
}

// Sortable is Value with Insufficient treated as 0.
func (r Result) Sortable() float64 {
	if r.Outcome == Insufficient {
		return 0
	}
	return r.Value()
}

func (r Result) String() string {
	if r.Outcome == Insufficient {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", r.Value())
}

// MarshalJSON encodes Insufficient as a null coefficient.
func (r Result) MarshalJSON() ([]byte, error) {
	var v *float64
	if r.Outcome != Insufficient {
		x := r.Value()
		v = &x
	}
	return json.Marshal(struct {
		Outcome string   `json:"outcome"`
		R       *float64 `json:"r"`
		N       int      `json:"n"`
	}{r.Outcome.String(), v, r.N})
}

// residueFloor is relative to the raw sum of squares; only rounding noise
// falls below it.
const residueFloor = 1e-24

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// Pearson computes the product-moment coefficient over the first
// min(len(a), len(b)) pairs. The result is symmetric in its arguments.
func Pearson(a, b []float64) Result {
	n := min(len(a), len(b))
	if n < 2 {
		return Result{Outcome: Insufficient, N: n}
	}
	a, b = a[:n], b[:n]
	if constant(a) || constant(b) {
		return Result{Outcome: NoCorrelation, N: n}
	}
	var sa, sb, qa, qb float64
	for i := 0; i < n; i++ {
		sa += a[i]
		sb += b[i]
		qa += a[i] * a[i]
		qb += b[i] * b[i]
	}
	ma, mb := sa/float64(n), sb/float64(n)

	var sab, saa, sbb float64
	for i := 0; i < n; i++ {
		da, db := a[i]-ma, b[i]-mb
		sab += da * db
		saa += da * da
		sbb += db * db
	}
	if saa <= residueFloor*qa || sbb <= residueFloor*qb {
		return Result{Outcome: NoCorrelation, N: n}
	}
	r := sab / math.Sqrt(saa*sbb)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return Result{Outcome: Insufficient, N: n}
	}
	return Result{Outcome: Correlated, R: math.Max(-1, math.Min(1, r)), N: n}
}

// Correlate is Pearson in sentinel form: NaN when there is too little data.
func Correlate(a, b []float64) float64 {
	return Pearson(a, b).Value()
}
