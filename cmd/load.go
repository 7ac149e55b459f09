package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/adcorr-cli/internal/session"
)

var (
	loadWorkspace string
	loadOrders    bool
	loadPlatform  string
)

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load an orders or ad-platform export into a workspace",
	Long: `Load validates and stores an export in a workspace. Loading a file for a
source that already has one replaces it.

  adcorr load -w q1 --orders shopify.csv
  adcorr load -w q1 --platform Meta meta-ads.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		platform := strings.TrimSpace(loadPlatform)
		if loadOrders == (platform != "") {
			return fmt.Errorf("specify exactly one of --orders or --platform")
		}
		if strings.EqualFold(platform, session.OrdersSource) {
			return fmt.Errorf("%q is reserved for the orders dataset; use --orders", platform)
		}
		source := session.OrdersSource
		if platform != "" {
			source = platform
		}

		ws, s, err := restoreWorkspace(loadWorkspace)
		if err != nil {
			return err
		}
		ds, err := ws.AddDataset(s, source, file)
		if err != nil {
			return err
		}
		if err := ws.Save(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Loaded %s as %s: %d days", ds.Name, ds.Source, ds.Rows)
		if ds.Skipped > 0 {
			fmt.Fprintf(out, " (%d rows skipped)", ds.Skipped)
		}
		fmt.Fprintln(out)
		if len(ds.Columns) > 0 {
			fmt.Fprintf(out, "  metrics: %s\n", strings.Join(ds.Columns, ", "))
		}
		if p := s.Platform(source); p != nil && len(p.Result.Unmapped) > 0 {
			fmt.Fprintf(out, "⚠ ignored columns: %s\n", strings.Join(p.Result.Unmapped, ", "))
		}
		if !s.Ready() {
			fmt.Fprintln(out, "⚠ load an orders file and at least one ad platform to analyze")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVarP(&loadWorkspace, "workspace", "w", "", "workspace name")
	loadCmd.Flags().BoolVar(&loadOrders, "orders", false, "file is the order-platform export")
	loadCmd.Flags().StringVar(&loadPlatform, "platform", "", "ad platform the file belongs to (e.g. Meta, Google)")
}
