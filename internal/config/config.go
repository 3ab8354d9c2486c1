// Package config handles loading and saving user configuration for aimpact.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file inside the config directory.
const FileName = "config.yaml"

// Config holds all user configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Client    ClientConfig    `yaml:"client"`
	Animation AnimationConfig `yaml:"animation"`
	UI        UIConfig        `yaml:"ui"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig configures `aimpact serve`.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	ModelPath      string   `yaml:"model_path"`
	HistoryDB      string   `yaml:"history_db"` // empty disables history
	AllowedOrigins []string `yaml:"allowed_origins"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// ClientConfig configures the TUI and `aimpact predict`.
type ClientConfig struct {
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AnimationConfig holds the results panel pacing in milliseconds.
type AnimationConfig struct {
	CounterMS        int `yaml:"counter_ms"`
	BarMS            int `yaml:"bar_ms"`
	BarDelayMS       int `yaml:"bar_delay_ms"`
	ImpactBarDelayMS int `yaml:"impact_bar_delay_ms"`
	FrameMS          int `yaml:"frame_ms"`
}

// UIConfig holds display settings.
type UIConfig struct {
	Font     string `yaml:"font"` // font file for the big score; empty searches the system
	BigScore bool   `yaml:"big_score"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // TUI log file used with --verbose
}

// Default returns the configuration used when nothing is set. Paths live
// under dir.
func Default(dir string) *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           "127.0.0.1:5000",
			ModelPath:      filepath.Join(dir, "model.yaml"),
			HistoryDB:      filepath.Join(dir, "history.db"),
			TimeoutSeconds: 30,
		},
		Client: ClientConfig{
			Endpoint:       "http://127.0.0.1:5000",
			TimeoutSeconds: 30,
		},
		Animation: AnimationConfig{
			CounterMS:        1200,
			BarMS:            600,
			BarDelayMS:       200,
			ImpactBarDelayMS: 400,
			FrameMS:          16,
		},
		UI: UIConfig{
			BigScore: true,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "aimpact.log"),
		},
	}
}

// Load reads the config file at path over the defaults for its directory.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating its directory.
func Save(path string, cfg *Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate rejects values the commands cannot run with.
func (c *Config) Validate() error {
	a := c.Animation
	for name, v := range map[string]int{
		"animation.counter_ms":          a.CounterMS,
		"animation.bar_ms":              a.BarMS,
		"animation.bar_delay_ms":        a.BarDelayMS,
		"animation.impact_bar_delay_ms": a.ImpactBarDelayMS,
		"server.timeout_seconds":        c.Server.TimeoutSeconds,
		"client.timeout_seconds":        c.Client.TimeoutSeconds,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if a.FrameMS <= 0 {
		return fmt.Errorf("animation.frame_ms must be positive")
	}
	return nil
}

// Counter returns the counter transition length.
func (a AnimationConfig) Counter() time.Duration { return ms(a.CounterMS) }

// Bar returns the bar fill transition length.
func (a AnimationConfig) Bar() time.Duration { return ms(a.BarMS) }

// BarDelay returns the score bar delay.
func (a AnimationConfig) BarDelay() time.Duration { return ms(a.BarDelayMS) }

// ImpactBarDelay returns the impact bar delay.
func (a AnimationConfig) ImpactBarDelay() time.Duration { return ms(a.ImpactBarDelayMS) }

// Frame returns the frame interval.
func (a AnimationConfig) Frame() time.Duration { return ms(a.FrameMS) }

// Timeout returns the request timeout.
func (s ServerConfig) Timeout() time.Duration { return time.Duration(s.TimeoutSeconds) * time.Second }

// Timeout returns the request timeout.
func (c ClientConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSeconds) * time.Second }

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// GetConfigDir returns the default configuration directory.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "aimpact"), nil
}

// EnsureConfigDir creates dir if it doesn't exist.
func EnsureConfigDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
