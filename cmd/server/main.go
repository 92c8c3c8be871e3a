// Command server runs the foodgram HTTP API.
//
// Configuration comes from foodgram.yaml and FOODGRAM_* variables; see
// internal/config. At minimum FOODGRAM_AUTH_JWT_SECRET must be set:
//
//	FOODGRAM_AUTH_JWT_SECRET=$(openssl rand -hex 32) go run ./cmd/server
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/foodgram/internal/config"
	"github.com/sakif/foodgram/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate already rejected unknown levels.
	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	if !cfg.Auth.GitHub.Enabled() {
		logger.Info("GitHub login disabled, set FOODGRAM_AUTH_GITHUB_CLIENT_ID and FOODGRAM_AUTH_GITHUB_CLIENT_SECRET to enable it")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
