// Package config loads service settings from a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	Engine   EngineConfig   `toml:"engine"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port int `toml:"port"`
}

// DatabaseConfig holds storage settings. An empty path or ":memory:" keeps
// everything in memory.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// EngineConfig holds classification settings.
type EngineConfig struct {
	// Workers bounds concurrent unit analysis per report.
	Workers int `toml:"workers"`

	// DefaultRentAnalysis applies to imported properties that don't say.
	DefaultRentAnalysis bool `toml:"default_rent_analysis"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "compliance.db"},
		Log:      LogConfig{Level: "info"},
		Engine:   EngineConfig{Workers: 8},
	}
}

// Load reads the config file at path, returning defaults if it doesn't
// exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return cfg, fmt.Errorf("reading config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides file values with COMPLIANCE_DB and LOG_LEVEL.
func applyEnv(cfg *Config) {
	if db := os.Getenv("COMPLIANCE_DB"); db != "" {
		cfg.Database.Path = db
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = strings.ToLower(level)
	}
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("invalid engine.workers %d", c.Engine.Workers)
	}
	return nil
}

// InMemory reports whether the database setting selects the memory store.
func (c Config) InMemory() bool {
	return c.Database.Path == "" || c.Database.Path == ":memory:"
}

// Save writes the config to path.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}
