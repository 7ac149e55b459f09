package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/adcorr-cli/internal/period"
	"github.com/KaramelBytes/adcorr-cli/internal/report"
	"github.com/KaramelBytes/adcorr-cli/internal/session"
	"github.com/KaramelBytes/adcorr-cli/internal/utils"
	"github.com/KaramelBytes/adcorr-cli/internal/workspace"
)

var (
	anaWorkspace    string
	anaOrders       string
	anaMeta         string
	anaGoogle       string
	anaPlatforms    []string
	anaPeriod       string
	anaMetric       string
	anaStrictPeriod bool
	anaFormat       string
	anaOutputPath   string
	anaDateOrder    string
	anaDecimal      string
	anaSheet        string
	anaSaveFilter   bool
)

// inputFile is one file named on the command line.
type inputFile struct {
	source string
	path   string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Correlate daily orders with ad metrics and print a report",
	Long: `Analyze aligns the orders export with each ad-platform export by day and
reports Pearson correlations between daily orders and every ad metric.

Inputs come from a workspace (-w), from files named on the command line, or
both; files override the workspace dataset for the same source.

  adcorr analyze --orders shop.csv --meta meta.csv --google google.csv
  adcorr analyze -w q1 --period monthly:2024-03 --metric "Link Clicks"
  adcorr analyze --orders shop.csv --platform TikTok=tiktok.csv --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := analyzeInputs()
		if err != nil {
			return err
		}
		if anaWorkspace == "" && len(inputs) == 0 {
			return fmt.Errorf("provide --workspace or at least one input file")
		}
		format := strings.ToLower(strings.TrimSpace(anaFormat))
		if format != "md" && format != "markdown" && format != "json" {
			return fmt.Errorf("unsupported --format: %s (use md|json)", anaFormat)
		}

		var ws *workspace.Workspace
		if anaWorkspace != "" {
			if ws, err = openWorkspace(anaWorkspace); err != nil {
				return err
			}
		}
		opt := ingestOptions(ws)
		if err := applyParseFlags(&opt, anaDateOrder, anaDecimal, anaSheet); err != nil {
			return err
		}
		s, err := newSession(opt, nil)
		if err != nil {
			return err
		}
		if ws != nil {
			if err := ws.Restore(s); err != nil {
				return fmt.Errorf("restore workspace %s: %w", ws.Name, err)
			}
		}
		if err := loadInputs(cmd, s, inputs); err != nil {
			return err
		}

		p, m := s.Filter()
		if cmd.Flags().Changed("period") {
			if anaStrictPeriod {
				if p, err = period.ParseStrict(anaPeriod); err != nil {
					return err
				}
			} else {
				p = s.SetPeriod(anaPeriod)
			}
		}
		if cmd.Flags().Changed("metric") {
			m = strings.TrimSpace(anaMetric)
		}
		snap := s.View(p, m)
		if cmd.Flags().Changed("metric") && snap.Metric != m && snap.Ready && snap.Days > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ metric %q not available; showing %s\n", m, snap.Metric)
		}

		var out []byte
		if format == "json" {
			if out, err = utils.PrettyJSON(snap); err != nil {
				return err
			}
		} else {
			out = []byte(report.Markdown(snap))
		}

		if ws != nil && anaSaveFilter {
			ws.Period = p.String()
			ws.Metric = snap.Metric
			if err := ws.Save(); err != nil {
				return err
			}
		}
		if anaOutputPath != "" {
			if err := os.WriteFile(anaOutputPath, out, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(bytes.TrimRight(out, "\n")))
		return nil
	},
}

// analyzeInputs collects --orders, --meta, --google and --platform name=file.
func analyzeInputs() ([]inputFile, error) {
	var inputs []inputFile
	if anaOrders != "" {
		inputs = append(inputs, inputFile{source: session.OrdersSource, path: anaOrders})
	}
	if anaMeta != "" {
		inputs = append(inputs, inputFile{source: "Meta", path: anaMeta})
	}
	if anaGoogle != "" {
		inputs = append(inputs, inputFile{source: "Google", path: anaGoogle})
	}
	seen := map[string]bool{}
	for _, in := range inputs {
		seen[strings.ToLower(in.source)] = true
	}
	for _, spec := range anaPlatforms {
		name, path, ok := strings.Cut(spec, "=")
		name, path = strings.TrimSpace(name), strings.TrimSpace(path)
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid --platform %q (want name=file)", spec)
		}
		if strings.EqualFold(name, session.OrdersSource) {
			return nil, fmt.Errorf("%q is reserved for the orders dataset; use --orders", name)
		}
		if seen[strings.ToLower(name)] {
			return nil, fmt.Errorf("platform %s given more than once", name)
		}
		seen[strings.ToLower(name)] = true
		inputs = append(inputs, inputFile{source: name, path: path})
	}
	return inputs, nil
}

// loadInputs parses every input concurrently. The session serializes the
// swaps, so the aligned result does not depend on completion order.
func loadInputs(cmd *cobra.Command, s *session.Session, inputs []inputFile) error {
	g, ctx := errgroup.WithContext(cmd.Context())
	for _, in := range inputs {
		in := in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := os.Open(in.path)
			if err != nil {
				return fmt.Errorf("open %s: %w", in.path, err)
			}
			defer f.Close()
			name := filepath.Base(in.path)
			if in.source == session.OrdersSource {
				_, err = s.LoadOrders(name, f)
			} else {
				_, err = s.LoadPlatform(in.source, name, f)
			}
			return err
		})
	}
	return g.Wait()
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaWorkspace, "workspace", "w", "", "workspace to analyze")
	analyzeCmd.Flags().StringVar(&anaOrders, "orders", "", "order-platform export (CSV/TSV/XLSX)")
	analyzeCmd.Flags().StringVar(&anaMeta, "meta", "", "Meta ads export")
	analyzeCmd.Flags().StringVar(&anaGoogle, "google", "", "Google Ads export")
	analyzeCmd.Flags().StringArrayVar(&anaPlatforms, "platform", nil, "additional platform export as name=file (repeatable)")
	analyzeCmd.Flags().StringVar(&anaPeriod, "period", "all", "all | monthly:YYYY-MM | quarterly:YYYY-QN | yearly:YYYY")
	analyzeCmd.Flags().StringVar(&anaMetric, "metric", "", "metric for the per-platform breakdown (default: Spend)")
	analyzeCmd.Flags().BoolVar(&anaStrictPeriod, "strict-period", false, "fail on an unrecognized --period instead of using all data")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "md", "output format: md | json")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVar(&anaDateOrder, "date-order", "", "numeric date order: dmy | mdy (default from config)")
	analyzeCmd.Flags().StringVar(&anaDecimal, "decimal", "", "decimal separator: '.' | 'comma' (default from config)")
	analyzeCmd.Flags().StringVar(&anaSheet, "sheet", "", "XLSX: sheet name to read (default first sheet)")
	analyzeCmd.Flags().BoolVar(&anaSaveFilter, "save-filter", false, "store --period and --metric in the workspace")
}
