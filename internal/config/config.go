// Package config provides YAML-based configuration with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Limits  LimitsConfig  `yaml:"limits"`
	Session SessionConfig `yaml:"session"`
	Vision  VisionConfig  `yaml:"vision"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bindAddress"`
	EnableCORS   bool   `yaml:"enableCors"`
	AllowOrigins string `yaml:"allowOrigins"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
	BodyLimit    string `yaml:"bodyLimit"`
}

// LimitsConfig contains upload size policies.
type LimitsConfig struct {
	MaxFileSizeMB    int64 `yaml:"maxFileSizeMB"`
	MaxSessionSizeMB int64 `yaml:"maxSessionSizeMB"`
}

// SessionConfig contains session lifetime settings.
type SessionConfig struct {
	TTLMinutes           int `yaml:"ttlMinutes"`
	SweepIntervalSeconds int `yaml:"sweepIntervalSeconds"`
}

// VisionConfig controls the optional vision model pass over uploaded
// images. The API key is read from the environment only, never from the
// config file.
type VisionConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level                string `yaml:"level"`
	EnableRequestLogging bool   `yaml:"enableRequestLogging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8080,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
			BodyLimit:    "12M",
		},
		Limits: LimitsConfig{
			MaxFileSizeMB:    10,
			MaxSessionSizeMB: 50,
		},
		Session: SessionConfig{
			TTLMinutes:           15,
			SweepIntervalSeconds: 60,
		},
		Vision: VisionConfig{
			Enabled: false,
			Model:   "gpt-4o",
		},
		Logging: LoggingConfig{
			Level:                "info",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig reads the YAML config file, falling back to defaults when the
// file does not exist, then applies environment overrides.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if bind := os.Getenv("BIND_ADDRESS"); bind != "" {
		c.Server.BindAddress = bind
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if ttl := os.Getenv("SESSION_TTL_MINUTES"); ttl != "" {
		if m, err := strconv.Atoi(ttl); err == nil {
			c.Session.TTLMinutes = m
		}
	}
	if enabled := os.Getenv("VISION_ENABLED"); enabled != "" {
		c.Vision.Enabled = enabled == "true"
	}
	if model := os.Getenv("VISION_MODEL"); model != "" {
		c.Vision.Model = model
	}
}

// VisionAPIKey returns the vision provider key from the environment.
func (c *AppConfig) VisionAPIKey() string {
	if key := os.Getenv("VISION_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("OPENAI_API_KEY")
}

func (c *AppConfig) validate() error {
	if c.Limits.MaxFileSizeMB <= 0 || c.Limits.MaxSessionSizeMB <= 0 {
		return fmt.Errorf("size limits must be positive")
	}
	if c.Limits.MaxFileSizeMB > c.Limits.MaxSessionSizeMB {
		return fmt.Errorf("per-file limit cannot exceed session limit")
	}
	if c.Session.TTLMinutes <= 0 || c.Session.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("session ttl and sweep interval must be positive")
	}
	return nil
}

// GetServerAddr returns the listen address.
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// MaxFileSize returns the per-file cap in bytes.
func (c *AppConfig) MaxFileSize() int64 { return c.Limits.MaxFileSizeMB * 1024 * 1024 }

// MaxSessionSize returns the per-session cap in bytes.
func (c *AppConfig) MaxSessionSize() int64 { return c.Limits.MaxSessionSizeMB * 1024 * 1024 }

// SessionTTL returns the session time-to-live.
func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

// SweepInterval returns the expiry sweeper tick interval.
func (c *AppConfig) SweepInterval() time.Duration {
	return time.Duration(c.Session.SweepIntervalSeconds) * time.Second
}
