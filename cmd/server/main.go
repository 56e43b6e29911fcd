/*
Package main implements the event viewer server.

The server loads a 5-minute OHLC series and a directory of detected
market-structure event records, then serves annotated chart payloads over a
REST API and a WebSocket push endpoint. Charts are rebuilt per request; the
series is loaded once at startup and shared read-only across builds.

Usage:

	go run main.go -config=config.yaml

Configuration can also come from environment variables (VIEWER_*) or a .env
file in the working directory.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"eventviewer/internal/chart"
	"eventviewer/internal/config"
	"eventviewer/internal/server"
	"eventviewer/internal/store"
	"eventviewer/internal/window"
)

// configPath locates the YAML configuration file.
var configPath = flag.String("config", "config.yaml", "Path to the YAML config file")

func main() {
	flag.Parse()

	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	setupLogging(cfg)

	// The OHLC series is required: nothing can be charted without it.
	series, err := store.LoadSeriesCSV(cfg.Data.OHLCPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data.OHLCPath).Msg("failed to load OHLC series")
	}
	log.Info().Int("bars", len(series)).Str("path", cfg.Data.OHLCPath).Msg("OHLC series loaded")

	events := store.NewEventSource(cfg.Data.EventsDir)
	builder := chart.NewBuilder(window.Config{
		Padding:        cfg.Padding(),
		ExtendBackward: cfg.Chart.ExtendBackward,
	})
	viewer := server.NewViewer(events, series, builder)

	handler := server.NewServer(viewer, server.Options{Password: cfg.Server.Password})
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown on interrupt signals.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("initiating graceful shutdown")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("shutdown did not complete cleanly")
		}
	}()

	log.Info().
		Str("addr", cfg.Server.Addr).
		Str("events_dir", cfg.Data.EventsDir).
		Bool("gated", cfg.Server.Password != "").
		Msg("server starting")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("failed to serve")
	}
	log.Info().Msg("server stopped")
}

// setupLogging configures the global zerolog logger: console output on
// stderr, plus a rotating log file when one is configured.
func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	var out io.Writer = console
	if cfg.Log.File != "" {
		out = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: 3,
		})
	}
	log.Logger = log.Output(out)
}
