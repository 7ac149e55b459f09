// Package period restricts aligned rows to a calendar window.
package period

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/KaramelBytes/adcorr-cli/internal/models"
)

// Kind is the granularity of a period.
type Kind string

const (
	All       Kind = "all"
	Monthly   Kind = "monthly"
	Quarterly Kind = "quarterly"
	Yearly    Kind = "yearly"
)

// Kinds lists the supported kinds.
var Kinds = []Kind{All, Monthly, Quarterly, Yearly}

// ErrUnknownPeriod is returned by ParseStrict.
var ErrUnknownPeriod = errors.New("unrecognized period")

// Period is a parsed period specifier.
type Period struct {
	Kind    Kind `json:"kind"`
	Year    int  `json:"year,omitempty"`
	Month   int  `json:"month,omitempty"`
	Quarter int  `json:"quarter,omitempty"`
	// Lenient is set when the specifier was not understood and All was used instead.
	Lenient bool `json:"lenient,omitempty"`
}

// Parse reads "all", "monthly:YYYY-MM", "quarterly:YYYY-QN" or "yearly:YYYY".
// Anything else yields All with Lenient set.
func Parse(spec string) Period {
	p, err := ParseStrict(spec)
	if err != nil {
		return Period{Kind: All, Lenient: true}
	}
	return p
}

// ParseStrict is Parse without the fallback.
func ParseStrict(spec string) (Period, error) {
	s := strings.TrimSpace(spec)
	if s == "" || strings.EqualFold(s, string(All)) {
		return Period{Kind: All}, nil
	}
	kind, value, ok := strings.Cut(s, ":")
	if !ok {
		return Period{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, spec)
	}
	value = strings.TrimSpace(value)
	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case Monthly:
		t, err := time.Parse("2006-01", value)
		if err != nil {
			break
		}
		return Period{Kind: Monthly, Year: t.Year(), Month: int(t.Month())}, nil
	case Quarterly:
		y, q, found := strings.Cut(strings.ToUpper(value), "-Q")
		if !found {
			break
		}
		year, yerr := parseYear(y)
		quarter, qerr := strconv.Atoi(q)
		if yerr != nil || qerr != nil || quarter < 1 || quarter > 4 {
			break
		}
		return Period{Kind: Quarterly, Year: year, Quarter: quarter}, nil
	case Yearly:
		year, err := parseYear(value)
		if err != nil {
			break
		}
		return Period{Kind: Yearly, Year: year}, nil
	}
	return Period{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, spec)
}

func parseYear(s string) (int, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("year %q must have four digits", s)
	}
	return strconv.Atoi(s)
}

// String renders the canonical specifier.
func (p Period) String() string {
	switch p.Kind {
	case Monthly:
		return fmt.Sprintf("monthly:%04d-%02d", p.Year, p.Month)
	case Quarterly:
		return fmt.Sprintf("quarterly:%04d-Q%d", p.Year, p.Quarter)
	case Yearly:
		return fmt.Sprintf("yearly:%04d", p.Year)
	}
	return string(All)
}

// Label is the human-readable name, e.g. "January 2024".
func (p Period) Label() string {
	switch p.Kind {
	case Monthly:
		return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	case Quarterly:
		return fmt.Sprintf("%04d-Q%d", p.Year, p.Quarter)
	case Yearly:
		return strconv.Itoa(p.Year)
	}
	return "All time"
}

// Contains reports whether day (YYYY-MM-DD) falls inside p.
func (p Period) Contains(day string) bool {
	if p.Kind == All || p.Kind == "" {
		return true
	}
	t, err := time.Parse(models.DayLayout, day)
	if err != nil {
		return false
	}
	if t.Year() != p.Year {
		return false
	}
	switch p.Kind {
	case Monthly:
		return int(t.Month()) == p.Month
	case Quarterly:
		return quarterOf(t) == p.Quarter
	}
	return true
}

// Filter keeps the rows inside p, preserving order.
func Filter(rows []models.AlignedRow, p Period) []models.AlignedRow {
	if p.Kind == All || p.Kind == "" {
		return append([]models.AlignedRow(nil), rows...)
	}
	return lo.Filter(rows, func(r models.AlignedRow, _ int) bool { return p.Contains(r.Day) })
}

// Options lists the periods of kind present in rows, newest first.
func Options(rows []models.AlignedRow, kind Kind) []Period {
	if kind != Monthly && kind != Quarterly && kind != Yearly {
		return nil
	}
	seen := make(map[string]Period)
	for _, r := range rows {
		t, err := time.Parse(models.DayLayout, r.Day)
		if err != nil {
			continue
		}
		p := Period{Kind: kind, Year: t.Year()}
		switch kind {
		case Monthly:
			p.Month = int(t.Month())
		case Quarterly:
			p.Quarter = quarterOf(t)
		}
		seen[p.String()] = p
	}
	keys := lo.Keys(seen)
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return lo.Map(keys, func(k string, _ int) Period { return seen[k] })
}

func quarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}
