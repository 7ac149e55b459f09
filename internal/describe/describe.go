// Package describe computes descriptive statistics and scorecards for aligned
// and source datasets.
package describe

import (
	"math"

	"github.com/KaramelBytes/adcorr-cli/internal/models"
)

// OrdersKey names the order series in statistics output.
const OrdersKey = "Orders"

// Stats summarizes one numeric series.
type Stats struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Sum     float64 `json:"sum"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	// Std is the sample standard deviation; 0 with fewer than two values.
	Std float64 `json:"std"`
}

// welford accumulates mean and variance in one pass.
type welford struct {
	n        int
	sum      float64
	mean, m2 float64
	min, max float64
}

func newWelford() *welford {
	return &welford{min: math.Inf(1), max: math.Inf(-1)}
}

func (w *welford) add(x float64) {
	w.n++
	w.sum += x
	if x < w.min {
		w.min = x
	}
	if x > w.max {
		w.max = x
	}
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (x - w.mean)
}

func (w *welford) stats(key string, missing int) Stats {
	s := Stats{Key: key, Count: w.n, Missing: missing, Sum: w.sum, Mean: w.mean}
	if w.n == 0 {
		return s
	}
	s.Min, s.Max = w.min, w.max
	if w.n > 1 {
		s.Std = math.Sqrt(w.m2 / float64(w.n-1))
	}
	return s
}

// Describe returns statistics for Orders followed by each key. A key counts
// only on days where it is present.
func Describe(rows []models.AlignedRow, keys []string) []Stats {
	out := make([]Stats, 0, len(keys)+1)
	orders := newWelford()
	for _, r := range rows {
		orders.add(float64(r.Orders))
	}
	out = append(out, orders.stats(OrdersKey, 0))
	for _, k := range keys {
		w := newWelford()
		missing := 0
		for _, r := range rows {
			v, ok := r.Values[k]
			if !ok {
				missing++
				continue
			}
			w.add(v)
		}
		out = append(out, w.stats(k, missing))
	}
	return out
}
