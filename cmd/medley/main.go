package main

import (
	"os"
	"os/signal"
	"syscall"

	"medley/internal/config"
	"medley/internal/server"
	"medley/internal/store"
	"medley/pkg/models"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := "./config.toml"

	// Initialize basic logger for startup
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Load .env (if present) before reading environment overrides
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			logger.WithError(err).Warn("Could not load .env file")
		}
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}

	applyLoggingConfig(logger, cfg)

	// Make sure the data directory exists before the stores touch it
	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		logger.WithError(err).WithField("data_dir", cfg.Storage.DataDir).Fatal("Error creating data directory")
	}

	// Build both collection stores; tracks seed from the bundled library
	// file on first run
	tracks := store.New[models.Track](cfg.TracksPath(), logger, store.WithSeed[models.Track](cfg.Storage.SeedFile))
	tracks.Load()

	videos := store.New[models.Video](cfg.VideosPath(), logger)
	videos.Load()

	// Create and configure the media server
	mediaServer, err := server.NewMediaServer(cfg, tracks, videos, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error creating media server")
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := mediaServer.Start(); err != nil {
			logger.WithError(err).Fatal("Server error")
		}
	}()

	// Wait for shutdown signal
	<-c

	logger.Info("Received shutdown signal")
	mediaServer.Shutdown()
}

// applyLoggingConfig switches the startup logger to the configured level and
// format.
func applyLoggingConfig(logger *logrus.Logger, cfg *config.Config) {
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}
