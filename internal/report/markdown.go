// Package report renders session snapshots for terminals and documents.
package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/adcorr-cli/internal/correlation"
	"github.com/KaramelBytes/adcorr-cli/internal/session"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Markdown renders a compact report in bracketed sections.
func Markdown(snap session.Snapshot) string {
	var b strings.Builder
	b.WriteString("[SOURCES]\n")
	if len(snap.Sources) == 0 {
		b.WriteString("- none loaded\n")
	}
	for _, src := range snap.Sources {
		b.WriteString(fmt.Sprintf("- %s: %s (%s rows", src.Source, src.File, printer.Sprintf("%d", src.Rows)))
		if src.Skipped > 0 {
			b.WriteString(fmt.Sprintf(", %d skipped", src.Skipped))
		}
		b.WriteString(")")
		if len(src.Columns) > 0 {
			b.WriteString(" metrics: " + strings.Join(src.Columns, ", "))
		}
		b.WriteString("\n")
	}

	if len(snap.Scorecards) > 0 {
		b.WriteString("\n[SCORECARDS]\n")
		for _, sc := range snap.Scorecards {
			if sc == nil {
				continue
			}
			b.WriteString(printer.Sprintf("- %s %s: total %.0f, avg %.1f per row", sc.Source, sc.Metric, sc.Total, sc.Average))
			if sc.HasTrend() {
				parts := make([]string, 0, len(sc.Monthly))
				for _, m := range sc.Monthly {
					parts = append(parts, printer.Sprintf("%s %.0f", m.Label, m.Value))
				}
				b.WriteString(" | trend: " + strings.Join(parts, " → "))
			}
			b.WriteString("\n")
		}
	}

	if !snap.Ready {
		b.WriteString("\n[NOTES]\n- Load an orders file and at least one ad platform file to compute correlations.\n")
		return b.String()
	}

	b.WriteString("\n[PERIOD]\n")
	b.WriteString(fmt.Sprintf("%s (%d of %d days)\n", snap.Period.Label(), snap.Days, snap.TotalDays))
	if snap.Days == 0 {
		b.WriteString("\n[NOTES]\n- No data available for the selected period.\n")
		return b.String()
	}

	if snap.Overall != nil {
		b.WriteString("\n[SELECTED METRIC]\n")
		b.WriteString(fmt.Sprintf("Orders ~ %s: r=%s (n=%d)\n", snap.Metric, snap.Overall, snap.Overall.N))
		for _, pc := range snap.ByPlatform {
			if !pc.Reported {
				b.WriteString(fmt.Sprintf("- %s: not reported\n", pc.Platform))
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: r=%s (n=%d)\n", pc.Platform, pc.Result, pc.Result.N))
		}
	}

	if len(snap.Summary) > 0 {
		b.WriteString("\n[CORRELATION SUMMARY]\n")
		b.WriteString("| Ad Platform Metric | Correlation with Orders |\n| --- | --- |\n")
		for _, e := range snap.Summary {
			b.WriteString(fmt.Sprintf("| %s | %s%s |\n", e.Key, summaryValue(e.Result), strength(e.Result)))
		}
	}

	if len(snap.Stats) > 0 {
		b.WriteString("\n[DESCRIPTIVE STATISTICS]\n")
		for _, st := range snap.Stats {
			if st.Count == 0 {
				b.WriteString(fmt.Sprintf("- %s: no values\n", st.Key))
				continue
			}
			b.WriteString(printer.Sprintf("- %s: n=%d, sum %.2f, min %.4g, max %.4g, mean %.4g, std %.4g\n",
				st.Key, st.Count, st.Sum, st.Min, st.Max, st.Mean, st.Std))
		}
	}
	if snap.Period.Lenient {
		b.WriteString("\n[NOTES]\n- Unrecognized period; showing all data.\n")
	}
	return b.String()
}

// summaryValue renders insufficient data as 0 like the summary ranking does.
func summaryValue(r correlation.Result) string {
	return fmt.Sprintf("%.4f", r.Sortable())
}

func strength(r correlation.Result) string {
	switch v := r.Sortable(); {
	case v > 0.5:
		return " (+)"
	case v < -0.5:
		return " (-)"
	}
	return ""
}
