package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/adcorr-cli/internal/utils"
)

var (
	listWorkspaces bool
	listDatasets   bool
	listWsName     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces or the datasets in one",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if listWorkspaces == listDatasets { // either both true or both false
			return fmt.Errorf("specify exactly one of --workspaces or --datasets")
		}
		if listWorkspaces {
			return listAllWorkspaces(out)
		}
		ws, err := locateWorkspace(listWsName)
		if err != nil {
			return err
		}
		if len(ws.Datasets) == 0 {
			fmt.Fprintln(out, "(no datasets)")
			return nil
		}
		for _, d := range ws.Sorted() {
			fmt.Fprintf(out, "- %s: %s (%d days", d.Source, d.Name, d.Rows)
			if d.Skipped > 0 {
				fmt.Fprintf(out, ", %d skipped", d.Skipped)
			}
			fmt.Fprintf(out, ") loaded %s\n", d.LoadedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(out, "period: %s\n", ws.Period)
		if ws.Metric != "" {
			fmt.Fprintf(out, "metric: %s\n", ws.Metric)
		}
		return nil
	},
}

func listAllWorkspaces(out io.Writer) error {
	root, err := workspacesDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), utils.WorkspaceFileName)); err == nil {
			fmt.Fprintf(out, "- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Fprintln(out, "(no workspaces)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listWorkspaces, "workspaces", false, "list workspaces")
	listCmd.Flags().BoolVar(&listDatasets, "datasets", false, "list datasets in a workspace")
	listCmd.Flags().StringVarP(&listWsName, "workspace", "w", "", "workspace name for --datasets (default: enclosing workspace)")
}
