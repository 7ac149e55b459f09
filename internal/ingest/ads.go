package ingest

import (
	"strings"

	"github.com/KaramelBytes/adcorr-cli/internal/metric"
	"github.com/KaramelBytes/adcorr-cli/internal/models"
)

// AdsResult is one parsed ad-platform upload.
type AdsResult struct {
	Rows []models.AdRow `json:"rows"`
	// Columns lists the metric names kept, in header order.
	Columns []string `json:"columns"`
	// Unmapped lists header columns that were dropped.
	Unmapped []string `json:"unmapped,omitempty"`
	Read     int      `json:"read"`
	Skipped  int      `json:"skipped"`
}

// ParseAdsCSV parses raw ad-platform CSV text.
func ParseAdsCSV(text string, aliases *metric.AliasTable, opt Options) (*AdsResult, error) {
	recs, err := ReadRecords("ads.csv", strings.NewReader(text), opt)
	if err != nil {
		return nil, &FormatError{Source: "ads", Reason: "unreadable csv", Err: err}
	}
	return ParseAds(recs, aliases, opt)
}

type mappedColumn struct {
	index int
	name  string
}

// ParseAds normalizes an ad-platform export. Headers resolve through aliases;
// unknown columns are kept when their first data value is numeric. A nil
// table means metric.Default().
func ParseAds(records [][]string, aliases *metric.AliasTable, opt Options) (*AdsResult, error) {
	opt = opt.normalized()
	if aliases == nil {
		aliases = metric.Default()
	}
	if len(records) < 2 {
		return nil, formatErr("ads", "file is empty or has no data rows")
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = cleanField(h)
	}
	first := records[1]

	res := &AdsResult{}
	dayIdx := -1
	seen := make(map[string]bool)
	var cols []mappedColumn
	for i, h := range header {
		if h == "" {
			continue
		}
		name, ok := aliases.Resolve(h)
		switch {
		case ok && name == metric.Day:
			if dayIdx < 0 {
				dayIdx = i
			}
			continue
		case ok:
		case i < len(first) && looksNumeric(cleanField(first[i]), opt.DecimalSeparator):
			name = h
		default:
			res.Unmapped = append(res.Unmapped, h)
			continue
		}
		if seen[name] {
			res.Unmapped = append(res.Unmapped, h)
			continue
		}
		seen[name] = true
		cols = append(cols, mappedColumn{index: i, name: name})
		res.Columns = append(res.Columns, name)
	}
	if dayIdx < 0 {
		return nil, formatErr("ads", "header must contain a 'Day', 'Date' or 'Reporting starts' column")
	}

	for _, rec := range records[1:] {
		res.Read++
		if len(rec) < len(header) {
			res.Skipped++
			continue
		}
		raw := cleanField(rec[dayIdx])
		if raw == "" {
			res.Skipped++
			continue
		}
		day, ok := ParseDay(raw, opt.DateOrder)
		if !ok {
			res.Skipped++
			continue
		}
		row := models.AdRow{Day: day, Metrics: make(map[string]float64, len(cols))}
		for _, c := range cols {
			if v, ok := parseMetricValue(cleanField(rec[c.index]), opt.DecimalSeparator); ok {
				row.Metrics[c.name] = v
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if len(res.Rows) == 0 {
		return nil, formatErr("ads", "no rows with a valid day")
	}
	return res, nil
}
