// Package config loads the relay and client configuration file.
//
// The file is YAML. Every field is optional; missing fields keep the values
// from Default. Command-line flags override file values.
//
//	addr: ":8080"
//	database: canco.db
//	allowed_origins: ["http://localhost:3000"]
//	write_timeout: 5s
//	advertise: true
//	instance: studio
//	history_limit: 50
//	log_level: info
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/canco/internal/history"
	"github.com/roach88/canco/internal/server"
)

// Config is the runtime configuration.
type Config struct {
	// Addr is the relay listen address.
	Addr string `yaml:"addr"`

	// Database is the journal path. Empty keeps rooms in memory only.
	Database string `yaml:"database"`

	// AllowedOrigins lists CORS origins; "*" allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// WriteTimeout bounds each websocket write.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Advertise announces the relay over mDNS.
	Advertise bool `yaml:"advertise"`

	// Instance is the mDNS instance name. Empty uses the hostname.
	Instance string `yaml:"instance"`

	// HistoryLimit bounds the undo log of editors started by the CLI.
	HistoryLimit int `yaml:"history_limit"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:           ":8080",
		AllowedOrigins: []string{"*"},
		WriteTimeout:   server.DefaultWriteTimeout,
		HistoryLimit:   history.DefaultLimit,
		LogLevel:       "info",
	}
}

// Load reads path over the defaults. Unknown fields are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("addr %q: %w", c.Addr, err)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive, got %s", c.WriteTimeout)
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history_limit must be at least 1, got %d", c.HistoryLimit)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Port returns the numeric port of Addr.
func (c Config) Port() (int, error) {
	_, port, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return 0, fmt.Errorf("addr %q: %w", c.Addr, err)
	}
	p, err := net.LookupPort("tcp", port)
	if err != nil {
		return 0, fmt.Errorf("addr %q: %w", c.Addr, err)
	}
	return p, nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
