// Package session holds the loaded datasets and the derived aligned table for
// one analysis, replacing ambient page state with an explicit owner.
package session

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/KaramelBytes/adcorr-cli/internal/align"
	"github.com/KaramelBytes/adcorr-cli/internal/ingest"
	"github.com/KaramelBytes/adcorr-cli/internal/metric"
	"github.com/KaramelBytes/adcorr-cli/internal/models"
	"github.com/KaramelBytes/adcorr-cli/internal/period"
)

// OrdersSource is the source name used for the order-platform dataset.
const OrdersSource = "orders"

// DefaultPlatforms are the ad platforms shown when none are configured.
var DefaultPlatforms = []string{"Meta", "Google"}

// LoadEvent describes one load attempt. Err is nil on success.
type LoadEvent struct {
	Source  string
	Name    string
	Read    int
	Skipped int
	Err     error
}

// Config wires a session.
type Config struct {
	// Platforms fixes the display order of ad platforms.
	Platforms []string
	Aliases   *metric.AliasTable
	Options   ingest.Options
	Logger    *slog.Logger
	// OnLoad, when set, is called after every load attempt.
	OnLoad func(LoadEvent)
}

// OrdersDataset is the loaded order-platform upload.
type OrdersDataset struct {
	Name   string
	Result *ingest.OrdersResult
}

// AdsDataset is one loaded ad-platform upload.
type AdsDataset struct {
	Platform string
	Name     string
	Result   *ingest.AdsResult
}

// Session is safe for concurrent use.
type Session struct {
	cfg Config
	log *slog.Logger

	mu        sync.RWMutex
	orders    *OrdersDataset
	platforms map[string]*AdsDataset
	aligned   *align.Table
	period    period.Period
	metric    string
}

// New returns an empty session.
func New(cfg Config) *Session {
	if len(cfg.Platforms) == 0 {
		cfg.Platforms = DefaultPlatforms
	}
	if cfg.Aliases == nil {
		cfg.Aliases = metric.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Session{
		cfg:       cfg,
		log:       cfg.Logger,
		platforms: make(map[string]*AdsDataset),
		period:    period.Period{Kind: period.All},
	}
	s.aligned = align.Align(nil)
	return s
}

// LoadOrders parses an order-platform upload and, on success, replaces the
// current orders dataset. A failed load leaves the session unchanged.
func (s *Session) LoadOrders(name string, r io.Reader) (*ingest.OrdersResult, error) {
	recs, err := ingest.ReadRecords(name, r, s.cfg.Options)
	var res *ingest.OrdersResult
	if err == nil {
		res, err = ingest.ParseOrders(recs, s.cfg.Options)
	} else {
		err = &ingest.FormatError{Source: OrdersSource, Reason: "unreadable file", Err: err}
	}
	if err != nil {
		s.report(LoadEvent{Source: OrdersSource, Name: name, Err: err})
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	s.mu.Lock()
	s.orders = &OrdersDataset{Name: name, Result: res}
	s.realignLocked()
	s.mu.Unlock()

	s.report(LoadEvent{Source: OrdersSource, Name: name, Read: res.Read, Skipped: res.Skipped})
	return res, nil
}

// LoadPlatform parses an ad-platform upload for platform and, on success,
// replaces that platform's dataset.
func (s *Session) LoadPlatform(platform, name string, r io.Reader) (*ingest.AdsResult, error) {
	platform = s.CanonicalPlatform(platform)
	if platform == "" {
		return nil, fmt.Errorf("platform name is required")
	}
	recs, err := ingest.ReadRecords(name, r, s.cfg.Options)
	var res *ingest.AdsResult
	if err == nil {
		res, err = ingest.ParseAds(recs, s.cfg.Aliases, s.cfg.Options)
	} else {
		err = &ingest.FormatError{Source: platform, Reason: "unreadable file", Err: err}
	}
	if err != nil {
		s.report(LoadEvent{Source: platform, Name: name, Err: err})
		return nil, fmt.Errorf("load %s for %s: %w", name, platform, err)
	}
	s.mu.Lock()
	platform = s.canonicalLocked(platform)
	s.platforms[platform] = &AdsDataset{Platform: platform, Name: name, Result: res}
	s.realignLocked()
	s.mu.Unlock()

	s.report(LoadEvent{Source: platform, Name: name, Read: res.Read, Skipped: res.Skipped})
	return res, nil
}

func (s *Session) report(ev LoadEvent) {
	if ev.Err != nil {
		s.log.Warn("dataset rejected", "source", ev.Source, "file", ev.Name, "err", ev.Err)
	} else {
		s.log.Debug("dataset loaded", "source", ev.Source, "file", ev.Name, "rows", ev.Read, "skipped", ev.Skipped)
	}
	if s.cfg.OnLoad != nil {
		s.cfg.OnLoad(ev)
	}
}

// realignLocked rebuilds the aligned table from scratch. Callers hold mu.
func (s *Session) realignLocked() {
	var orders []models.OrderRow
	if s.orders != nil {
		orders = s.orders.Result.Rows
	}
	var sources []align.Source
	for _, p := range s.platformOrderLocked() {
		ds := s.platforms[p]
		sources = append(sources, align.Source{Platform: p, Rows: ds.Result.Rows, Columns: ds.Result.Columns})
	}
	s.aligned = align.Align(orders, sources...)
}

// platformOrderLocked lists loaded platforms: configured ones first, then the
// rest alphabetically.
func (s *Session) platformOrderLocked() []string {
	var out []string
	known := make(map[string]bool, len(s.cfg.Platforms))
	for _, p := range s.cfg.Platforms {
		known[p] = true
		if _, ok := s.platforms[p]; ok {
			out = append(out, p)
		}
	}
	var extra []string
	for p := range s.platforms {
		if !known[p] {
			extra = append(extra, p)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// Ready reports whether orders and at least one ad platform are loaded.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders != nil && len(s.platforms) > 0
}

// Aligned returns the unfiltered aligned table. It must not be modified.
func (s *Session) Aligned() *align.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aligned
}

// Orders returns the loaded orders dataset, or nil.
func (s *Session) Orders() *OrdersDataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders
}

// Platform returns a loaded platform dataset, or nil. Names match
// case-insensitively.
func (s *Session) Platform(name string) *AdsDataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.platforms[s.canonicalLocked(strings.TrimSpace(name))]
}

// CanonicalPlatform returns the spelling a platform name is stored under:
// a loaded platform or a configured one that matches case-insensitively,
// otherwise the trimmed name itself.
func (s *Session) CanonicalPlatform(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canonicalLocked(strings.TrimSpace(name))
}

func (s *Session) canonicalLocked(name string) string {
	for p := range s.platforms {
		if strings.EqualFold(p, name) {
			return p
		}
	}
	for _, p := range s.cfg.Platforms {
		if strings.EqualFold(p, name) {
			return p
		}
	}
	return name
}

// Platforms lists loaded platforms in display order.
func (s *Session) Platforms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.platformOrderLocked()
}

// SetPeriod parses spec leniently and makes it the active filter.
func (s *Session) SetPeriod(spec string) period.Period {
	p := period.Parse(spec)
	if p.Lenient {
		s.log.Warn("unrecognized period, showing all data", "period", spec)
	}
	s.mu.Lock()
	s.period = p
	s.mu.Unlock()
	return p
}

// SetMetric records the preferred metric. Unknown metrics are kept and
// resolved against the available ones at view time.
func (s *Session) SetMetric(name string) {
	s.mu.Lock()
	s.metric = strings.TrimSpace(name)
	s.mu.Unlock()
}

// Filter returns the active period and metric.
func (s *Session) Filter() (period.Period, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.period, s.metric
}
