package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var aliasesCmd = &cobra.Command{
	Use:   "aliases [header...]",
	Short: "Show the header vocabulary, or resolve headers to canonical metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := settings().AliasTable()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(args) > 0 {
			for _, h := range args {
				if name, ok := table.Resolve(h); ok {
					fmt.Fprintf(out, "%q -> %s\n", h, name)
				} else {
					fmt.Fprintf(out, "%q -> (unmapped)\n", h)
				}
			}
			return nil
		}
		for _, name := range table.Canonical() {
			fmt.Fprintf(out, "%s: %s\n", name, strings.Join(table.Aliases(name), " | "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(aliasesCmd)
}
