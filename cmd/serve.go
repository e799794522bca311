package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	iris "github.com/damattl/db-iris-wrapper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the periodic import service",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		metrics := iris.NewMetrics()
		importer := newImporter(store, metrics)

		cfg := iris.ServiceConfig{
			StationsSrc:         os.Getenv("STATIONS_SRC"),
			StatusCodesSrc:      os.Getenv("STATUS_CODES_SRC"),
			SingleStation:       os.Getenv("SINGLE_STATION"),
			TickInterval:        envDuration("TICK_INTERVAL", iris.DefaultTickInterval),
			FullReloadInterval:  envDuration("FULL_RELOAD_INTERVAL", iris.DefaultFullReloadInterval),
			LookaheadHours:      envInt("LOOKAHEAD_HOURS", iris.DefaultLookaheadHours),
			FirstLookaheadHours: envInt("FIRST_LOOKAHEAD_HOURS", iris.DefaultFirstLookaheadHours),
		}

		service := iris.NewService(importer, cfg)
		if err := service.Start(context.Background()); err != nil {
			return err
		}

		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			go func() {
				slog.Info("serving metrics", "addr", addr)
				if err := http.ListenAndServe(addr, mux); err != nil {
					slog.Error("metrics server failed", "err", err)
				}
			}()
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		slog.Info("shutting down")
		service.Stop()
		return nil
	},
}
