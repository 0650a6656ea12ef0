// Package config holds the settings shared by the symrename commands.
//
// Settings come from an optional YAML file and are then overridden by
// command-line flags. The file is looked up at $SYMRENAME_CONFIG, or at
// symrename/config.yaml under the user's configuration directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidLogLevel = errors.New("invalid log level")

type Config struct {
	LogLevel string `yaml:"logLevel"`
	// LogFile receives the log; empty means stderr.
	LogFile string `yaml:"logFile"`
	// Textual makes renames update mentions in comments and strings.
	Textual bool `yaml:"textual"`
	// Dialect overrides the dialect guessed from file names for textual
	// matches.
	Dialect string `yaml:"dialect"`
	Server  Server `yaml:"server"`
}

type Server struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Server: Server{
			Name:    "symrename",
			Version: "0.1.0",
		},
	}
}

// DefaultPath returns where the configuration file is looked up.
func DefaultPath() (string, error) {
	if path := os.Getenv("SYMRENAME_CONFIG"); path != "" {
		return path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(dir, "symrename", "config.yaml"), nil
}

// Load reads the configuration file at path over the defaults. A missing file
// is not an error unless required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			slog.Debug("no config file", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decoding config %s: %w", path, err)
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		l = slog.LevelDebug
	case "info", "":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return l, nil
}
