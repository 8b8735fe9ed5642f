package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"medley/internal/config"
	"medley/internal/ngrok"
	"medley/internal/store"
	"medley/pkg/models"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// MediaServer serves the media library HTTP API. It owns the track and video
// stores and translates requests into store operations.
type MediaServer struct {
	config       *config.Config
	tracks       *store.Store[models.Track]
	videos       *store.Store[models.Video]
	logger       *logrus.Logger
	watcher      *fsnotify.Watcher
	ngrokService *ngrok.Service
	httpServer   *http.Server

	// Debounce state for collection file reloads
	reloadMu         sync.Mutex
	trackReloadTimer *time.Timer
	videoReloadTimer *time.Timer
}

// NewMediaServer creates a new media server instance
func NewMediaServer(cfg *config.Config, tracks *store.Store[models.Track], videos *store.Store[models.Video], logger *logrus.Logger) (*MediaServer, error) {
	// Create ngrok service
	ngrokSvc, err := ngrok.NewService(&cfg.Ngrok)
	if err != nil {
		logger.WithError(err).Warn("Ngrok service not available")
		ngrokSvc = nil
	}

	server := &MediaServer{
		config:       cfg,
		tracks:       tracks,
		videos:       videos,
		logger:       logger,
		ngrokService: ngrokSvc,
	}

	return server, nil
}

// Handler builds the route set wrapped in the middleware chain. Exposed so
// tests can drive the full stack without a listening socket.
func (ms *MediaServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// Track routes
	mux.HandleFunc("/tracks", ms.handleTracks)
	mux.HandleFunc("/tracks/", ms.handleTrackByID)

	// Video routes
	mux.HandleFunc("/videos", ms.handleVideos)
	mux.HandleFunc("/videos/", ms.handleVideoByID)

	// Artwork referenced by track records (written by the seed generator)
	mux.Handle("/artwork/", http.StripPrefix("/artwork/", http.FileServer(http.Dir(ms.config.ArtworkDir()))))

	mux.HandleFunc("/health", ms.handleHealthCheck) // Health check endpoint

	var handler http.Handler = mux
	handler = ms.corsMiddleware(handler)
	handler = ms.requestLoggingMiddleware(handler)
	handler = ms.panicRecoveryMiddleware(handler)
	return handler
}

// Start starts the media server
func (ms *MediaServer) Start() error {
	// Start file watcher if enabled
	if ms.config.Storage.WatchForChanges {
		if err := ms.startFileWatcher(); err != nil {
			ms.logger.WithError(err).Warn("Could not start file watcher")
		}
	}

	localAddress := fmt.Sprintf("http://%s", ms.config.GetAddress())

	ms.logger.WithFields(logrus.Fields{
		"port":   ms.config.Server.Port,
		"tracks": ms.tracks.Len(),
		"videos": ms.videos.Len(),
	}).Info("Medley server starting")
	ms.logger.Infof("Local access: %s", localAddress)

	// Start ngrok tunnel if enabled
	if ms.ngrokService != nil {
		ctx := context.Background()
		if err := ms.ngrokService.StartTunnel(ctx, localAddress); err != nil {
			ms.logger.WithError(err).Warn("Could not start ngrok tunnel")
		}
	}

	ms.httpServer = &http.Server{
		Addr:        ms.config.GetAddress(),
		Handler:     ms.Handler(),
		ReadTimeout: time.Duration(ms.config.Server.ReadTimeout) * time.Second,
	}

	if err := ms.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the media server
func (ms *MediaServer) Shutdown() {
	ms.logger.Info("Shutting down media server...")

	// Stop file watcher
	ms.stopFileWatcher()

	// Stop ngrok tunnel
	if ms.ngrokService != nil {
		ms.ngrokService.Stop()
	}

	if ms.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ms.httpServer.Shutdown(ctx); err != nil {
			ms.logger.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	ms.logger.Info("Media server shutdown complete")
}
