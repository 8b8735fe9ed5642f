package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	Ngrok   NgrokConfig   `toml:"ngrok"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port       string `toml:"port"`
	Host       string `toml:"host"`
	EnableCORS bool   `toml:"enable_cors"`
	// ReadTimeout is the HTTP read timeout in seconds; 0 disables it.
	ReadTimeout int `toml:"read_timeout_seconds"`
}

// StorageConfig contains collection persistence configuration
type StorageConfig struct {
	DataDir         string `toml:"data_dir"`
	TracksFile      string `toml:"tracks_file"`
	VideosFile      string `toml:"videos_file"`
	SeedFile        string `toml:"seed_file"`
	WatchForChanges bool   `toml:"watch_for_changes"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level          string `toml:"level"`
	Format         string `toml:"format"`
	RequestLogging bool   `toml:"request_logging"`
}

// NgrokConfig contains ngrok tunnel configuration
type NgrokConfig struct {
	Enabled   bool   `toml:"enabled"`
	AuthToken string `toml:"auth_token"`
	Domain    string `toml:"domain"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "3333",
			Host:        "0.0.0.0",
			EnableCORS:  true,
			ReadTimeout: 30,
		},
		Storage: StorageConfig{
			DataDir:         "./data",
			TracksFile:      "tracks.json",
			VideosFile:      "videos.json",
			SeedFile:        "./library.json",
			WatchForChanges: true,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			RequestLogging: true,
		},
		Ngrok: NgrokConfig{
			Enabled:   false,
			AuthToken: "",
			Domain:    "",
		},
	}
}

// LoadConfig loads configuration from a TOML file, creating it with defaults
// when it does not exist. The PORT environment variable, when set, overrides
// the configured port.
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create it with defaults
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		fmt.Printf("Created default configuration file at: %s\n", configPath)
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	// Load from file
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides layers environment settings over the file configuration.
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create or open file
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// Write header comment
	header := `# Medley Media Library Configuration
# This file contains all configuration options for the Medley media library service.
# Edit the values below to customize your server settings.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	// Encode configuration to TOML
	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout cannot be negative")
	}

	// Validate storage config
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage data dir cannot be empty")
	}
	if c.Storage.TracksFile == "" || c.Storage.VideosFile == "" {
		return fmt.Errorf("collection file names cannot be empty")
	}
	if c.Storage.TracksFile == c.Storage.VideosFile {
		return fmt.Errorf("tracks and videos cannot share one collection file")
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// GetAddress returns the full server address
func (c *Config) GetAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// TracksPath returns the absolute location of the tracks collection file.
func (c *Config) TracksPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.TracksFile)
}

// VideosPath returns the absolute location of the videos collection file.
func (c *Config) VideosPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.VideosFile)
}

// ArtworkDir returns the directory served under /artwork/.
func (c *Config) ArtworkDir() string {
	return filepath.Join(c.Storage.DataDir, "artwork")
}
