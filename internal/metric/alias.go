// Package metric holds the canonical ad-metric vocabulary and the header alias
// resolver used to normalize heterogeneous platform exports.
package metric

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical metric names.
const (
	Day          = "Day"
	Spend        = "Spend"
	Revenue      = "Revenue"
	Transactions = "Transactions"
	LinkClicks   = "Link Clicks"
	Impressions  = "Impressions"
	Reach        = "Reach"
	CPC          = "CPC"
	CTR          = "CTR"
)

// Entry binds one canonical name to the header strings that denote it.
type Entry struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

var defaultEntries = []Entry{
	{Name: Day, Aliases: []string{"Day", "Date", "Reporting starts"}},
	{Name: Spend, Aliases: []string{"Amount spent (DKK)", "Spend", "Cost", "Amount Spent"}},
	{Name: Revenue, Aliases: []string{"Website purchase conversion value", "Purchase conversion value", "Purchases conversion value", "Conv. value", "Total conversion value"}},
	{Name: Transactions, Aliases: []string{"Purchases", "Conversions", "Website purchases"}},
	{Name: LinkClicks, Aliases: []string{"Link clicks", "Clicks"}},
	{Name: Impressions, Aliases: []string{"Impressions", "Impr."}},
	{Name: Reach, Aliases: []string{"Reach"}},
	{Name: CPC, Aliases: []string{"CPC (cost per link click)", "Avg. CPC", "CPC"}},
	{Name: CTR, Aliases: []string{"CTR (link click-through rate)", "CTR", "CTR (all)"}},
}

// AliasTable maps header strings to canonical metric names, case-insensitively.
type AliasTable struct {
	order   []string
	aliases map[string][]string
	byAlias map[string]string
}

// NewAliasTable validates entries and builds a table. Every canonical name needs
// at least one alias and an alias may denote only one canonical name.
func NewAliasTable(entries []Entry) (*AliasTable, error) {
	t := &AliasTable{
		aliases: make(map[string][]string, len(entries)),
		byAlias: make(map[string]string),
	}
	for _, e := range entries {
		if err := t.add(e.Name, e.Aliases); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Default returns the built-in vocabulary.
func Default() *AliasTable {
	t, err := NewAliasTable(defaultEntries)
	if err != nil {
		panic(fmt.Sprintf("metric: invalid default alias table: %v", err))
	}
	return t
}

func (t *AliasTable) add(name string, aliases []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("alias entry with empty canonical name")
	}
	var kept []string
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if owner, ok := t.byAlias[key]; ok {
			if owner == name {
				continue
			}
			return fmt.Errorf("alias %q already maps to %q, cannot map to %q", a, owner, name)
		}
		t.byAlias[key] = name
		kept = append(kept, a)
	}
	if _, exists := t.aliases[name]; !exists {
		if len(kept) == 0 {
			return fmt.Errorf("canonical metric %q has no aliases", name)
		}
		t.order = append(t.order, name)
	}
	t.aliases[name] = append(t.aliases[name], kept...)
	return nil
}

// Resolve maps a header to its canonical name.
func (t *AliasTable) Resolve(header string) (string, bool) {
	name, ok := t.byAlias[strings.ToLower(strings.TrimSpace(header))]
	return name, ok
}

// Merge returns a copy of t extended with extra aliases. New canonical names are
// appended in sorted order so the result is deterministic.
func (t *AliasTable) Merge(extra map[string][]string) (*AliasTable, error) {
	out := &AliasTable{
		order:   append([]string(nil), t.order...),
		aliases: make(map[string][]string, len(t.aliases)+len(extra)),
		byAlias: make(map[string]string, len(t.byAlias)),
	}
	for k, v := range t.aliases {
		out.aliases[k] = append([]string(nil), v...)
	}
	for k, v := range t.byAlias {
		out.byAlias[k] = v
	}
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := out.add(name, extra[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Canonical lists canonical names in declaration order.
func (t *AliasTable) Canonical() []string {
	return append([]string(nil), t.order...)
}

// Aliases returns the known header strings for a canonical name.
func (t *AliasTable) Aliases(name string) []string {
	return append([]string(nil), t.aliases[name]...)
}

// IsDay reports whether header denotes the reserved day column.
func (t *AliasTable) IsDay(header string) bool {
	name, ok := t.Resolve(header)
	return ok && name == Day
}
