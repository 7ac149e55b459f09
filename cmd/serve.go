package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/adcorr-cli/internal/server"
	"github.com/KaramelBytes/adcorr-cli/internal/workspace"
)

var (
	serveAddr      string
	serveWorkspace string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve uploads, aligned data, and correlation reports over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		addr := c.ServeAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := server.NewMetrics(reg)

		var ws *workspace.Workspace
		if serveWorkspace != "" {
			var err error
			if ws, err = openWorkspace(serveWorkspace); err != nil {
				return err
			}
		}
		s, err := newSession(ingestOptions(ws), metrics.Observe)
		if err != nil {
			return err
		}
		if ws != nil {
			if err := ws.Restore(s); err != nil {
				return fmt.Errorf("restore workspace %s: %w", ws.Name, err)
			}
		}

		h := server.New(s, server.Options{MaxUploadBytes: c.MaxUploadBytes, Logger: log, Gatherer: reg})
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.Run(ctx, addr, h, time.Duration(c.ReadHeaderTimeoutSec)*time.Second, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config serve_addr)")
	serveCmd.Flags().StringVarP(&serveWorkspace, "workspace", "w", "", "preload a workspace into the served session")
}
