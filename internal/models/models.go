package models

// DayLayout is the canonical calendar-day format used as the join key everywhere.
const DayLayout = "2006-01-02"

// OrderRow is one calendar day of order-platform data, summed across source rows.
type OrderRow struct {
	Day    string `json:"day"`
	Orders int    `json:"orders"`
}

// AdRow is one normalized ad-platform row. Metrics holds only the metrics that
// parsed for this row; absent metrics are zero-filled later during alignment.
type AdRow struct {
	Day     string             `json:"day"`
	Metrics map[string]float64 `json:"metrics"`
}

// AlignedRow is one day's combined record after the outer join.
// Values holds platform-prefixed keys ("Meta Spend") and blended keys ("Spend").
type AlignedRow struct {
	Day    string             `json:"day"`
	Orders int                `json:"orders"`
	Values map[string]float64 `json:"values"`
}

// Has reports whether key was present on this day.
func (r AlignedRow) Has(key string) bool {
	_, ok := r.Values[key]
	return ok
}

// Value returns the value for key, or 0 when absent.
func (r AlignedRow) Value(key string) float64 {
	return r.Values[key]
}

// PrefixedKey builds the per-platform key for a metric, e.g. "Google Spend".
func PrefixedKey(platform, metric string) string {
	return platform + " " + metric
}
