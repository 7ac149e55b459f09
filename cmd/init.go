package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/adcorr-cli/internal/utils"
	"github.com/KaramelBytes/adcorr-cli/internal/workspace"
)

var (
	initDescription string
	initDateOrder   string
	initDecimal     string
)

var initCmd = &cobra.Command{
	Use:   "init <workspace>",
	Short: "Initialize a new analysis workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		wsDir, err := resolveWorkspaceDir(name)
		if err != nil {
			return err
		}
		// Refuse to overwrite an existing workspace.
		if info, err := os.Stat(wsDir); err == nil && info.IsDir() {
			if _, err := os.Stat(filepath.Join(wsDir, utils.WorkspaceFileName)); err == nil {
				return fmt.Errorf("workspace already exists at %s", wsDir)
			}
			entries, err := os.ReadDir(wsDir)
			if err != nil {
				return fmt.Errorf("inspect workspace directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize workspace", wsDir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat workspace directory: %w", err)
		}

		switch initDateOrder {
		case "", "dmy", "mdy":
		default:
			return fmt.Errorf("--date-order must be dmy or mdy, got %q", initDateOrder)
		}
		switch initDecimal {
		case "", ".", ",":
		default:
			return fmt.Errorf("--decimal must be '.' or ',', got %q", initDecimal)
		}

		ws := workspace.New(name, initDescription, wsDir)
		ws.Settings.DateOrder = initDateOrder
		ws.Settings.DecimalSeparator = initDecimal
		if err := ws.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Workspace initialized: %s\n", ws.RootDir())
		return nil
	},
}

func workspacesDir() (string, error) {
	dir := settings().WorkspacesDir
	if dir == "" || strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if dir == "" {
			dir = filepath.Join(home, ".adcorr", "workspaces")
		} else {
			dir = strings.TrimPrefix(dir, "~")
			dir = strings.TrimPrefix(dir, string(os.PathSeparator))
			dir = strings.TrimPrefix(dir, "/")
			dir = filepath.Join(home, dir)
		}
	}
	dir = filepath.Clean(dir)
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveWorkspaceDir(name string) (string, error) {
	if name == "" {
		return "", errors.New("workspace name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid workspace name %q", name)
	}
	root, err := workspacesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

func openWorkspace(name string) (*workspace.Workspace, error) {
	dir, err := resolveWorkspaceDir(name)
	if err != nil {
		return nil, err
	}
	return workspace.Load(dir)
}

// locateWorkspace opens the named workspace, or the one enclosing the working
// directory when name is empty.
func locateWorkspace(name string) (*workspace.Workspace, error) {
	if name != "" {
		return openWorkspace(name)
	}
	root, err := utils.FindWorkspaceRoot("")
	if err != nil {
		return nil, errors.New("--workspace is required outside a workspace directory")
	}
	return workspace.Load(root)
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "workspace description")
	initCmd.Flags().StringVar(&initDateOrder, "date-order", "", "numeric date order for this workspace: dmy or mdy (default from config)")
	initCmd.Flags().StringVar(&initDecimal, "decimal", "", "decimal separator for this workspace: '.' or ',' (default from config)")
}
