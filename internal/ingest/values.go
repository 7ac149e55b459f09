package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/adcorr-cli/internal/models"
)

// DateOrder decides how ambiguous numeric dates such as 01/02/2024 are read.
type DateOrder string

const (
	DayFirst   DateOrder = "dmy"
	MonthFirst DateOrder = "mdy"
)

// Options controls parsing of a single upload.
type Options struct {
	// DateOrder for numeric dates. The other order is tried when the preferred one fails.
	DateOrder DateOrder
	// DecimalSeparator is '.' (default) or ','. With ',' the '.' is treated as grouping.
	DecimalSeparator rune
	// Sheet selects an XLSX sheet by name; empty means the first sheet.
	Sheet string
}

// DefaultOptions matches the export formats the alias table was built for.
func DefaultOptions() Options {
	return Options{DateOrder: DayFirst, DecimalSeparator: '.'}
}

func (o Options) normalized() Options {
	if o.DateOrder != MonthFirst {
		o.DateOrder = DayFirst
	}
	if o.DecimalSeparator != ',' {
		o.DecimalSeparator = '.'
	}
	return o
}

var (
	isoLayouts = []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02T15:04:05", "2006-01-02T15:04",
		"2006-01-02", "2006-1-2", "2006/1/2", "2006.1.2",
	}
	dayFirstLayouts   = []string{"2/1/2006", "2.1.2006", "2-1-2006"}
	monthFirstLayouts = []string{"1/2/2006", "1-2-2006"}
	namedLayouts      = []string{
		"Jan 2, 2006", "January 2, 2006", "Jan 2 2006", "January 2 2006",
		"2 Jan 2006", "2 January 2006", "Mon, 2 Jan 2006", "Monday, January 2, 2006",
		time.RFC1123Z, time.RFC1123, "Mon Jan 2 2006",
	}
	timeSuffixes = []string{"", " 15:04:05", " 15:04", "T15:04:05"}
)

// ParseDay converts a date string in any supported notation to YYYY-MM-DD in UTC.
func ParseDay(raw string, order DateOrder) (string, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, `"`, ""))
	if s == "" {
		return "", false
	}
	numeric := dayFirstLayouts
	fallback := monthFirstLayouts
	if order == MonthFirst {
		numeric, fallback = monthFirstLayouts, dayFirstLayouts[:1]
		// dotted dates are day-first in every locale that uses them
		numeric = append(append([]string(nil), numeric...), "2.1.2006")
	}
	groups := [][]string{isoLayouts, numeric, fallback, namedLayouts}
	for _, layouts := range groups {
		for _, base := range layouts {
			for _, suffix := range timeSuffixes {
				if suffix != "" && strings.Contains(base, "15") {
					continue
				}
				if t, err := time.Parse(base+suffix, s); err == nil {
					return t.UTC().Format(models.DayLayout), true
				}
			}
		}
	}
	return "", false
}

// parseMetricValue coerces an ad-platform numeric field. Empty fields count as 0;
// anything else keeps only digits and the decimal point before parsing.
func parseMetricValue(raw string, dec rune) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, true
	}
	if dec == ',' {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return leadingFloat(keepRunes(s, "0123456789."))
}

// looksNumeric decides whether an unrecognized column is kept, from its first data value.
func looksNumeric(raw string, dec rune) bool {
	s := strings.TrimSpace(raw)
	if dec == ',' {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	_, ok := leadingFloat(keepRunes(s, "0123456789.-"))
	return ok
}

// parseOrderCount reads an integer order count, ignoring digit grouping and
// truncating fractions. Unparsable input yields 0.
func parseOrderCount(raw string, dec rune) int {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if dec == ',' {
		s = strings.ReplaceAll(s, ".", "")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if digits == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// leadingFloat parses the longest numeric prefix of s: optional sign, digits,
// optional fraction. At least one digit is required.
func leadingFloat(s string) (float64, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func keepRunes(s, allowed string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(allowed, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cleanField(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}
