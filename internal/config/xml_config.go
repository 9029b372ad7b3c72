// Package config provides file-based configuration for the marker server.
// The file is XML by default; a .yaml or .yml path is read as YAML.
package config

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"AdbMarkers" yaml:"-"`

	// Server configuration
	Server ServerConfig `xml:"Server" yaml:"server"`

	// adb invocation
	Adb AdbConfig `xml:"Adb" yaml:"adb"`

	// In-memory capture store
	Captures CapturesConfig `xml:"Captures" yaml:"captures"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced" yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port" yaml:"port"`
	BindAddress  string `xml:"BindAddress" yaml:"bind_address"`
	EnableCORS   bool   `xml:"EnableCORS" yaml:"enable_cors"`
	AllowOrigins string `xml:"AllowOrigins" yaml:"allow_origins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds" yaml:"read_timeout_seconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds" yaml:"write_timeout_seconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds" yaml:"idle_timeout_seconds"`
	BodyLimit    string `xml:"BodyLimit" yaml:"body_limit"`
}

// AdbConfig contains settings for running the adb binary
type AdbConfig struct {
	Path                  string `xml:"Path" yaml:"path"`
	MaxOutputMB           int    `xml:"MaxOutputMB" yaml:"max_output_mb"`
	CommandTimeoutSeconds int    `xml:"CommandTimeoutSeconds" yaml:"command_timeout_seconds"`
	LogcatTail            int    `xml:"LogcatTail" yaml:"logcat_tail"`
}

// CapturesConfig contains capture retention settings
type CapturesConfig struct {
	MaxCaptures            int `xml:"MaxCaptures" yaml:"max_captures"`
	CaptureTimeoutMinutes  int `xml:"CaptureTimeoutMinutes" yaml:"capture_timeout_minutes"`
	MaxAgeMinutes          int `xml:"MaxAgeMinutes" yaml:"max_age_minutes"`
	CleanupIntervalMinutes int `xml:"CleanupIntervalMinutes" yaml:"cleanup_interval_minutes"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel" yaml:"log_level"`
	LogFormat            string `xml:"LogFormat" yaml:"log_format"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging" yaml:"enable_request_logging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         2222,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 120,
			IdleTimeout:  120,
			BodyLimit:    "256M",
		},
		Adb: AdbConfig{
			Path:                  "adb",
			MaxOutputMB:           50,
			CommandTimeoutSeconds: 60,
			LogcatTail:            1000,
		},
		Captures: CapturesConfig{
			MaxCaptures:            10,
			CaptureTimeoutMinutes:  2,
			MaxAgeMinutes:          30,
			CleanupIntervalMinutes: 5,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			LogFormat:            "text",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from file, writing the defaults there on
// first run. Environment variables override file values.
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Decode over the defaults so omitted elements keep their default value.
	config := DefaultConfig()
	if isYAML(configPath) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = xml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save writes the configuration in the format implied by the file extension
func (c *AppConfig) Save(configPath string) error {
	var content []byte
	if isYAML(configPath) {
		output, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		header := []byte("# adb markers server configuration\n# This file is auto-generated on first run\n\n")
		content = append(header, output...)
	} else {
		output, err := xml.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		header := []byte(xml.Header + "\n<!-- adb markers server configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
		content = append(header, output...)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects values the server cannot start with
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Adb.Path == "" {
		return errors.New("adb path must not be empty")
	}
	if c.Adb.MaxOutputMB <= 0 {
		return fmt.Errorf("invalid adb max output %d MB", c.Adb.MaxOutputMB)
	}
	if c.Captures.MaxCaptures <= 0 {
		return fmt.Errorf("invalid max captures %d", c.Captures.MaxCaptures)
	}
	if c.Captures.CleanupIntervalMinutes <= 0 {
		return fmt.Errorf("invalid cleanup interval %d minutes", c.Captures.CleanupIntervalMinutes)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// ADB_PATH override
	if path := os.Getenv("ADB_PATH"); path != "" {
		c.Adb.Path = path
	}

	// LOG_LEVEL override
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// AdbMaxOutput returns the adb stdout limit in bytes
func (c *AppConfig) AdbMaxOutput() int {
	return c.Adb.MaxOutputMB * 1024 * 1024
}

// AdbTimeout returns the per-command adb timeout, zero for none
func (c *AppConfig) AdbTimeout() time.Duration {
	return time.Duration(c.Adb.CommandTimeoutSeconds) * time.Second
}

// CaptureTimeout returns the bound on one device capture
func (c *AppConfig) CaptureTimeout() time.Duration {
	return time.Duration(c.Captures.CaptureTimeoutMinutes) * time.Minute
}

// CaptureMaxAge returns how long idle captures are kept
func (c *AppConfig) CaptureMaxAge() time.Duration {
	return time.Duration(c.Captures.MaxAgeMinutes) * time.Minute
}

// CleanupInterval returns the period of the capture cleanup ticker
func (c *AppConfig) CleanupInterval() time.Duration {
	return time.Duration(c.Captures.CleanupIntervalMinutes) * time.Minute
}
