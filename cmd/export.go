package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/adcorr-cli/internal/export"
	"github.com/KaramelBytes/adcorr-cli/internal/period"
)

var (
	exportWorkspace string
	exportPeriod    string
	exportFormat    string
)

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write a workspace's aligned daily table to CSV, TSV, JSON, XLSX, or SQLite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		f, err := export.FormatFor(exportFormat, path)
		if err != nil {
			return err
		}
		_, s, err := restoreWorkspace(exportWorkspace)
		if err != nil {
			return err
		}
		p, _ := s.Filter()
		if cmd.Flags().Changed("period") {
			if p, err = period.ParseStrict(exportPeriod); err != nil {
				return err
			}
		}
		t := s.Table(p)
		if len(t.Rows) == 0 {
			return fmt.Errorf("no aligned rows for %s", p.Label())
		}
		if err := export.ToFile(cmd.Context(), path, f, t); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d days (%s) to %s\n", len(t.Rows), p.Label(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportWorkspace, "workspace", "w", "", "workspace name")
	exportCmd.Flags().StringVar(&exportPeriod, "period", "all", "period to export (default: the workspace's active period)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "csv | tsv | json | xlsx | sqlite (default from file extension)")
}
