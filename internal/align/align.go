// Package align joins order and ad-platform datasets into one row per day.
package align

import (
	"sort"

	"github.com/samber/lo"

	"github.com/KaramelBytes/adcorr-cli/internal/models"
)

// Source is one ad platform's normalized rows.
type Source struct {
	Platform string
	Rows     []models.AdRow
	// Columns optionally fixes metric order, typically the upload's header order.
	Columns []string
}

// Table is the aligned, day-sorted outer join of all sources.
type Table struct {
	Rows []models.AlignedRow `json:"rows"`
	// Platforms that contributed at least one row, in argument order.
	Platforms []string `json:"platforms"`
	// Metrics are the blended metric names, in first-seen order.
	Metrics []string `json:"metrics"`
}

// Align builds the aligned table from scratch. Every day present in any input
// yields exactly one row. Blended values are the sum over platforms, with a
// platform that did not report a metric that day contributing 0. Same-platform
// rows for the same day are summed.
func Align(orders []models.OrderRow, sources ...Source) *Table {
	t := &Table{}
	ads := make(map[string]map[string]float64)
	var metrics []string
	reported := make(map[string]bool)

	for _, src := range sources {
		if len(src.Rows) == 0 {
			continue
		}
		t.Platforms = append(t.Platforms, src.Platform)
		metrics = append(metrics, src.Columns...)
		for _, row := range src.Rows {
			entry, ok := ads[row.Day]
			if !ok {
				entry = make(map[string]float64)
				ads[row.Day] = entry
			}
			for _, name := range sortedKeys(row.Metrics) {
				metrics = append(metrics, name)
				reported[name] = true
				entry[models.PrefixedKey(src.Platform, name)] += row.Metrics[name]
			}
		}
	}
	t.Platforms = lo.Uniq(t.Platforms)
	t.Metrics = lo.Filter(lo.Uniq(metrics), func(m string, _ int) bool { return reported[m] })

	byDay := make(map[string]int, len(orders))
	for _, o := range orders {
		byDay[o.Day] += o.Orders
	}
	days := lo.Uniq(append(lo.Keys(ads), lo.Keys(byDay)...))
	sort.Strings(days)

	t.Rows = make([]models.AlignedRow, 0, len(days))
	for _, day := range days {
		values := make(map[string]float64, len(ads[day])+len(t.Metrics))
		for k, v := range ads[day] {
			values[k] = v
		}
		for _, m := range t.Metrics {
			sum := 0.0
			for _, p := range t.Platforms {
				sum += ads[day][models.PrefixedKey(p, m)]
			}
			values[m] = sum
		}
		t.Rows = append(t.Rows, models.AlignedRow{Day: day, Orders: byDay[day], Values: values})
	}
	return t
}

// Keys lists every numeric series of the table: blended metrics first, then
// prefixed per-platform keys grouped by platform.
func (t *Table) Keys() []string {
	keys := append([]string(nil), t.Metrics...)
	for _, p := range t.Platforms {
		for _, m := range t.Metrics {
			key := models.PrefixedKey(p, m)
			if t.anyHas(key) {
				keys = append(keys, key)
			}
		}
	}
	return keys
}

// Days returns the sorted day keys.
func (t *Table) Days() []string {
	return lo.Map(t.Rows, func(r models.AlignedRow, _ int) string { return r.Day })
}

// WithRows returns a table sharing t's platforms and metrics over a subset of rows.
func (t *Table) WithRows(rows []models.AlignedRow) *Table {
	return &Table{Rows: rows, Platforms: t.Platforms, Metrics: t.Metrics}
}

func (t *Table) anyHas(key string) bool {
	return lo.ContainsBy(t.Rows, func(r models.AlignedRow) bool { return r.Has(key) })
}

func sortedKeys(m map[string]float64) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
