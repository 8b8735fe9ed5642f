package ngrok

import (
	"context"
	"fmt"
	"os"

	"medley/internal/config"

	"github.com/sirupsen/logrus"
	"golang.ngrok.com/ngrok/v2"
)

// Service exposes the local media service through an ngrok tunnel so a
// client outside the home network (typically the mobile app) can reach it.
type Service struct {
	config *config.NgrokConfig
	logger *logrus.Logger
	agent  ngrok.Agent
	tunnel ngrok.EndpointForwarder
}

// NewService creates a new ngrok service instance. Returns (nil, nil) when
// tunneling is disabled in configuration.
func NewService(cfg *config.NgrokConfig) (*Service, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Get auth token from environment variable if not set in config
	authToken := cfg.AuthToken
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
	}

	if authToken == "" {
		return nil, fmt.Errorf("ngrok auth token not found. Set NGROK_AUTHTOKEN or ngrok.auth_token in config")
	}

	// Create ngrok agent
	agent, err := ngrok.NewAgent(ngrok.WithAuthtoken(authToken))
	if err != nil {
		return nil, fmt.Errorf("failed to create ngrok agent: %w", err)
	}

	return &Service{
		config: cfg,
		logger: logger,
		agent:  agent,
	}, nil
}

// StartTunnel starts the ngrok tunnel
func (s *Service) StartTunnel(ctx context.Context, localAddress string) error {
	if s == nil {
		return nil // Service is disabled
	}

	s.logger.Info("Starting ngrok tunnel...")

	// Build endpoint options
	var endpointOpts []ngrok.EndpointOption
	if s.config.Domain != "" {
		endpointOpts = append(endpointOpts, ngrok.WithURL(s.config.Domain))
	}

	// Create the tunnel
	tunnel, err := s.agent.Forward(ctx, ngrok.WithUpstream(localAddress), endpointOpts...)
	if err != nil {
		return fmt.Errorf("failed to create ngrok tunnel: %w", err)
	}

	s.tunnel = tunnel

	s.logger.WithFields(logrus.Fields{
		"public_url": tunnel.URL().String(),
		"upstream":   localAddress,
	}).Info("Ngrok tunnel active")

	return nil
}

// GetPublicURL returns the public URL of the tunnel
func (s *Service) GetPublicURL() string {
	if s == nil || s.tunnel == nil {
		return ""
	}
	return s.tunnel.URL().String()
}

// Stop stops the ngrok tunnel
func (s *Service) Stop() error {
	if s == nil || s.tunnel == nil {
		return nil
	}

	s.logger.Info("Stopping ngrok tunnel...")
	return s.tunnel.Close()
}
