package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"research-terminal/internal/config"
	"research-terminal/internal/logging"
	"research-terminal/internal/proxy"
)

var listenAddr string

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Serve the backend /api routes through a local reverse proxy",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logging.InitWriter(os.Stderr, logging.ParseLevel(cfg.Log.Level))

		addr := cfg.Proxy.Listen
		if listenAddr != "" {
			addr = listenAddr
		}

		srv, err := proxy.New(cfg.BackendURL)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	proxyCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address (overrides proxy.listen)")
}
