package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/adcorr-cli/internal/period"
)

var (
	periodsWorkspace string
	periodsKind      string
)

var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "List the selectable periods present in a workspace, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := period.Kind(strings.ToLower(strings.TrimSpace(periodsKind)))
		if kind != period.Monthly && kind != period.Quarterly && kind != period.Yearly {
			return fmt.Errorf("unsupported --kind: %s (use monthly|quarterly|yearly)", periodsKind)
		}
		_, s, err := restoreWorkspace(periodsWorkspace)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		opts := period.Options(s.Aligned().Rows, kind)
		if len(opts) == 0 {
			fmt.Fprintln(out, "(no data)")
			return nil
		}
		active, _ := s.Filter()
		for _, p := range opts {
			marker := " "
			if p == active {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-20s %s\n", marker, p.String(), p.Label())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(periodsCmd)
	periodsCmd.Flags().StringVarP(&periodsWorkspace, "workspace", "w", "", "workspace name")
	periodsCmd.Flags().StringVar(&periodsKind, "kind", "monthly", "monthly | quarterly | yearly")
}
