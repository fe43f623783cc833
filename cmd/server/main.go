// Package main is the entry point for the click counter server.
//
// main stays small: load config, build the logger, hand both to
// internal/server. Everything else lives in internal/ packages.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/click-counter/internal/config"
	"github.com/sakif/click-counter/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// See internal/config for sources and precedence. Config errors are
	// reported with a bootstrap logger since log settings are part of it.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// Text for local development, JSON for log shippers.
	level, _ := cfg.SlogLevel() // validated by config.Load
	opts := &slog.HandlerOptions{Level: level}

	var logger *slog.Logger
	if cfg.Log.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	slog.SetDefault(logger)

	// === 3. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
