package describe

import (
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/adcorr-cli/internal/models"
)

// MonthPoint is one month of a scorecard series.
type MonthPoint struct {
	Month string  `json:"month"` // YYYY-MM
	Label string  `json:"label"` // JAN
	Value float64 `json:"value"`
}

// Scorecard is the headline figure for one source.
type Scorecard struct {
	Source  string       `json:"source"`
	Metric  string       `json:"metric"`
	Total   float64      `json:"total"`
	Average float64      `json:"average"`
	Rows    int          `json:"rows"`
	Monthly []MonthPoint `json:"monthly"`
}

// HasTrend reports whether the monthly series is long enough to draw.
func (s *Scorecard) HasTrend() bool {
	return s != nil && len(s.Monthly) >= 2
}

// OrdersScorecard totals orders. The average is per order row, which is per day.
func OrdersScorecard(source string, rows []models.OrderRow) *Scorecard {
	if len(rows) == 0 {
		return nil
	}
	days := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		days[i] = r.Day
		values[i] = float64(r.Orders)
	}
	return build(source, OrdersKey, days, values)
}

// PlatformScorecard totals one metric over a platform's rows; rows without the
// metric count as 0.
func PlatformScorecard(platform string, rows []models.AdRow, metric string) *Scorecard {
	if len(rows) == 0 {
		return nil
	}
	days := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		days[i] = r.Day
		values[i] = r.Metrics[metric]
	}
	return build(platform, metric, days, values)
}

func build(source, metric string, days []string, values []float64) *Scorecard {
	sc := &Scorecard{Source: source, Metric: metric, Rows: len(values)}
	for _, v := range values {
		sc.Total += v
	}
	sc.Average = sc.Total / float64(len(values))
	sc.Monthly = Monthly(days, values)
	return sc
}

// Monthly sums values by YYYY-MM, in calendar order. Days shorter than a
// month key are ignored.
func Monthly(days []string, values []float64) []MonthPoint {
	sums := make(map[string]float64)
	for i, d := range days {
		if len(d) < 7 || i >= len(values) {
			continue
		}
		sums[d[:7]] += values[i]
	}
	months := make([]string, 0, len(sums))
	for m := range sums {
		months = append(months, m)
	}
	sort.Strings(months)
	out := make([]MonthPoint, 0, len(months))
	for _, m := range months {
		out = append(out, MonthPoint{Month: m, Label: monthLabel(m), Value: sums[m]})
	}
	return out
}

func monthLabel(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return month
	}
	return strings.ToUpper(t.Format("Jan"))
}
