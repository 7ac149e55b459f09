package session

import (
	"github.com/samber/lo"

	"github.com/KaramelBytes/adcorr-cli/internal/align"
	"github.com/KaramelBytes/adcorr-cli/internal/correlation"
	"github.com/KaramelBytes/adcorr-cli/internal/describe"
	"github.com/KaramelBytes/adcorr-cli/internal/metric"
	"github.com/KaramelBytes/adcorr-cli/internal/models"
	"github.com/KaramelBytes/adcorr-cli/internal/period"
)

// SourceInfo summarizes a loaded dataset.
type SourceInfo struct {
	Source  string   `json:"source"`
	File    string   `json:"file"`
	Rows    int      `json:"rows"`
	Read    int      `json:"read"`
	Skipped int      `json:"skipped"`
	Columns []string `json:"columns,omitempty"`
}

// PlatformCorrelation is the selected metric's coefficient for one platform,
// over the days that platform reported it.
type PlatformCorrelation struct {
	Platform string             `json:"platform"`
	Reported bool               `json:"reported"`
	Result   correlation.Result `json:"result"`
}

// Snapshot is everything a report needs, computed in one pass.
type Snapshot struct {
	Ready      bool                  `json:"ready"`
	Sources    []SourceInfo          `json:"sources"`
	Scorecards []*describe.Scorecard `json:"scorecards"`
	Period     period.Period         `json:"period"`
	// TotalDays counts aligned rows before filtering; Days after.
	TotalDays  int                   `json:"total_days"`
	Days       int                   `json:"days"`
	Metrics    []string              `json:"metrics"`
	Metric     string                `json:"metric,omitempty"`
	Overall    *correlation.Result   `json:"overall,omitempty"`
	ByPlatform []PlatformCorrelation `json:"by_platform,omitempty"`
	Summary    []correlation.Entry   `json:"summary,omitempty"`
	Stats      []describe.Stats      `json:"stats,omitempty"`
	Rows       []models.AlignedRow   `json:"-"`
}

// Snapshot views the session through its active period and metric.
func (s *Session) Snapshot() Snapshot {
	p, m := s.Filter()
	return s.View(p, m)
}

// View computes a snapshot for p and metricName without changing the session.
// An empty or unavailable metric falls back to the session's metric, then
// Spend, then the first available metric.
func (s *Session) View(p period.Period, metricName string) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Ready:     s.orders != nil && len(s.platforms) > 0,
		Period:    p,
		TotalDays: len(s.aligned.Rows),
	}
	if s.orders != nil {
		res := s.orders.Result
		snap.Sources = append(snap.Sources, SourceInfo{Source: OrdersSource, File: s.orders.Name, Rows: len(res.Rows), Read: res.Read, Skipped: res.Skipped})
		snap.Scorecards = append(snap.Scorecards, describe.OrdersScorecard(OrdersSource, res.Rows))
	}
	platforms := s.platformOrderLocked()
	for _, name := range platforms {
		ds := s.platforms[name]
		res := ds.Result
		snap.Sources = append(snap.Sources, SourceInfo{Source: name, File: ds.Name, Rows: len(res.Rows), Read: res.Read, Skipped: res.Skipped, Columns: res.Columns})
		snap.Scorecards = append(snap.Scorecards, describe.PlatformScorecard(name, res.Rows, metric.Transactions))
	}
	if !snap.Ready {
		return snap
	}

	rows := period.Filter(s.aligned.Rows, p)
	snap.Rows = rows
	snap.Days = len(rows)
	if len(rows) == 0 {
		return snap
	}
	filtered := s.aligned.WithRows(rows)
	snap.Metrics = filtered.Metrics
	snap.Metric = chooseMetric(snap.Metrics, metricName, s.metric)
	snap.Summary = correlation.Summary(rows, filtered.Keys())
	snap.Stats = describe.Describe(rows, filtered.Keys())
	if snap.Metric == "" {
		return snap
	}
	overall := correlation.Overall(rows, snap.Metric)
	snap.Overall = &overall
	for _, name := range platforms {
		res, ok := correlation.ForPlatform(rows, name, snap.Metric)
		snap.ByPlatform = append(snap.ByPlatform, PlatformCorrelation{Platform: name, Reported: ok, Result: res})
	}
	return snap
}

func chooseMetric(available []string, candidates ...string) string {
	for _, c := range append(candidates, metric.Spend) {
		if c != "" && lo.Contains(available, c) {
			return c
		}
	}
	if len(available) > 0 {
		return available[0]
	}
	return ""
}

// Table returns the aligned table restricted to p.
func (s *Session) Table(p period.Period) *align.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aligned.WithRows(period.Filter(s.aligned.Rows, p))
}
