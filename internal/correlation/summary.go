package correlation

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/KaramelBytes/adcorr-cli/internal/models"
)

// Entry is one row of the correlation summary.
type Entry struct {
	Key    string `json:"key"`
	Result Result `json:"result"`
}

// Orders extracts the order series.
func Orders(rows []models.AlignedRow) []float64 {
	return lo.Map(rows, func(r models.AlignedRow, _ int) float64 { return float64(r.Orders) })
}

// Series extracts key with absent days read as 0.
func Series(rows []models.AlignedRow, key string) []float64 {
	return lo.Map(rows, func(r models.AlignedRow, _ int) float64 { return r.Value(key) })
}

// Overall correlates orders with key over every row.
func Overall(rows []models.AlignedRow, key string) Result {
	return Pearson(Orders(rows), Series(rows, key))
}

// ForPlatform correlates orders with one platform's metric over only the days
// that platform reported it. The bool is false when no such day exists.
func ForPlatform(rows []models.AlignedRow, platform, metric string) (Result, bool) {
	key := models.PrefixedKey(platform, metric)
	subset := lo.Filter(rows, func(r models.AlignedRow, _ int) bool { return r.Has(key) })
	if len(subset) == 0 {
		return Result{Outcome: Insufficient}, false
	}
	return Pearson(Orders(subset), Series(subset, key)), true
}

// Summary correlates orders with every key, strongest first. Insufficient
// results rank as 0; ties keep the order of keys.
func Summary(rows []models.AlignedRow, keys []string) []Entry {
	out := lo.Map(keys, func(k string, _ int) Entry { return Entry{Key: k, Result: Overall(rows, k)} })
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Result.Sortable()) > math.Abs(out[j].Result.Sortable())
	})
	return out
}
