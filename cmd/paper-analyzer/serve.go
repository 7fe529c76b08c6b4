// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-analyzer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes document upload, URL and DOI processing, paper search, and
synthesis over HTTP. Generated audio is served under /data/ and Prometheus
metrics under /metrics. The log level follows the config file while running.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if viper.ConfigFileUsed() != "" {
		viper.OnConfigChange(func(e fsnotify.Event) {
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				return
			}
			if err := a.log.SetLevel(viper.GetString("log.level")); err != nil {
				a.log.Warn("ignoring log level from config", zap.String("file", e.Name), zap.Error(err))
			}
		})
		viper.WatchConfig()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.pipeline, a.search, a.store, cfg, a.log.Logger)
	return srv.Run(ctx)
}
