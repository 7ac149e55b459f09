package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/adcorr-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set adcorr configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "workspaces_dir: %s\n", c.WorkspacesDir)
		fmt.Fprintf(out, "date_order: %s\n", c.DateOrder)
		fmt.Fprintf(out, "decimal_separator: %q\n", c.DecimalSeparator)
		fmt.Fprintf(out, "platforms: %s\n", strings.Join(c.Platforms, ", "))
		fmt.Fprintf(out, "default_metric: %s\n", c.DefaultMetric)
		if len(c.Aliases) > 0 {
			fmt.Fprintf(out, "aliases: %d extra entries\n", len(c.Aliases))
		}
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		fmt.Fprintf(out, "serve_addr: %s\n", c.ServeAddr)
		fmt.Fprintf(out, "max_upload_bytes: %d\n", c.MaxUploadBytes)
		fmt.Fprintf(out, "read_header_timeout_sec: %d\n", c.ReadHeaderTimeoutSec)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		next := *settings()
		switch key {
		case "workspaces_dir":
			next.WorkspacesDir = val
		case "date_order":
			next.DateOrder = strings.ToLower(val)
		case "decimal_separator":
			next.DecimalSeparator = val
		case "platforms":
			var ps []string
			for _, p := range strings.Split(val, ",") {
				if p = strings.TrimSpace(p); p != "" {
					ps = append(ps, p)
				}
			}
			next.Platforms = ps
		case "default_metric":
			next.DefaultMetric = val
		case "log_level":
			next.LogLevel = strings.ToLower(val)
		case "log_format":
			next.LogFormat = strings.ToLower(val)
		case "serve_addr":
			next.ServeAddr = val
		case "max_upload_bytes":
			i, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int for max_upload_bytes: %w", err)
			}
			next.MaxUploadBytes = i
		case "read_header_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for read_header_timeout_sec: %w", err)
			}
			next.ReadHeaderTimeoutSec = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		cfg = &next
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
