package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// FileLoggingConfig represents file-based logging configuration
type FileLoggingConfig struct {
	Enabled    bool   `json:"enabled"`      // Whether file logging is enabled
	Filename   string `json:"filename"`     // Log file path (empty = XDG cache path)
	MaxSizeMB  int    `json:"max_size_mb"`  // Max file size in MB before rotation
	MaxBackups int    `json:"max_backups"`  // Max number of backup files to keep
	MaxAgeDays int    `json:"max_age_days"` // Max age in days before deletion
	Compress   bool   `json:"compress"`     // Whether to compress rotated files
}

// Config represents pcmflow configuration
type Config struct {
	TargetSampleRate int                `json:"target_sample_rate"`     // Destination sample rate in Hz
	TargetChannels   int                `json:"target_channels"`        // Destination channel count
	Backend          string             `json:"backend"`                // Conversion backend (auto, polyphase, beep)
	Quality          string             `json:"quality"`                // Resampling quality (quick, low, medium, high, veryhigh)
	FrameMs          int                `json:"frame_ms"`               // Source frame duration fed per conversion call
	LogLevel         string             `json:"log_level"`              // Log level (debug, info, warn, error)
	FileLogging      *FileLoggingConfig `json:"file_logging,omitempty"` // File logging configuration
}

// XDGInterface defines the interface for XDG directory operations
type XDGInterface interface {
	GetConfigPaths(filename string) []string
	GetCachePath(purpose string) string
	CreateCacheDir(purpose string) error
}

// Manager handles loading, saving, and validating configuration
type Manager struct {
	fs  afero.Fs
	xdg XDGInterface
}

// NewManager creates a configuration manager backed by the OS filesystem
func NewManager() *Manager {
	slog.Debug("creating new config manager")
	return &Manager{
		fs:  afero.NewOsFs(),
		xdg: NewXDGDirs(),
	}
}

// NewManagerWithFs creates a configuration manager over an injected
// filesystem, for tests
func NewManagerWithFs(fs afero.Fs) *Manager {
	return &Manager{
		fs:  fs,
		xdg: NewXDGDirs(),
	}
}

// DefaultConfig returns the default configuration
func (m *Manager) DefaultConfig() *Config {
	cfg := &Config{
		TargetSampleRate: 48000,
		TargetChannels:   2,
		Backend:          "auto",
		Quality:          "high",
		FrameMs:          20,
		LogLevel:         "warn",
		FileLogging: &FileLoggingConfig{
			Enabled:    false,
			Filename:   "",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}

	slog.Debug("generated default config",
		"target_sample_rate", cfg.TargetSampleRate,
		"target_channels", cfg.TargetChannels,
		"backend", cfg.Backend,
		"quality", cfg.Quality,
		"frame_ms", cfg.FrameMs,
		"log_level", cfg.LogLevel)

	return cfg
}

// LoadFromFile loads configuration from a specific file
func (m *Manager) LoadFromFile(filePath string) (*Config, error) {
	slog.Debug("loading config from file", "file_path", filePath)

	data, err := afero.ReadFile(m.fs, filePath)
	if err != nil {
		slog.Error("failed to read config file", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		slog.Error("failed to parse config JSON", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Partial files are fine: layer what the file sets over the defaults
	cfg := m.MergeConfigs(m.DefaultConfig(), &loaded)

	if err := m.Validate(cfg); err != nil {
		slog.Error("config validation failed", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	slog.Debug("config loaded successfully",
		"file_path", filePath,
		"target_sample_rate", cfg.TargetSampleRate,
		"target_channels", cfg.TargetChannels,
		"backend", cfg.Backend)

	return cfg, nil
}

// MergeConfigs merges two configurations, with override's non-zero
// fields taking precedence
func (m *Manager) MergeConfigs(base, override *Config) *Config {
	slog.Debug("merging configurations")

	merged := *base

	if override.TargetSampleRate != 0 {
		merged.TargetSampleRate = override.TargetSampleRate
		slog.Debug("merged sample rate override", "value", override.TargetSampleRate)
	}

	if override.TargetChannels != 0 {
		merged.TargetChannels = override.TargetChannels
		slog.Debug("merged channels override", "value", override.TargetChannels)
	}

	if override.Backend != "" {
		merged.Backend = override.Backend
		slog.Debug("merged backend override", "value", override.Backend)
	}

	if override.Quality != "" {
		merged.Quality = override.Quality
		slog.Debug("merged quality override", "value", override.Quality)
	}

	if override.FrameMs != 0 {
		merged.FrameMs = override.FrameMs
		slog.Debug("merged frame-ms override", "value", override.FrameMs)
	}

	if override.LogLevel != "" {
		merged.LogLevel = override.LogLevel
		slog.Debug("merged log level override", "value", override.LogLevel)
	}

	if override.FileLogging != nil {
		merged.FileLogging = override.FileLogging
		slog.Debug("merged file logging override", "enabled", override.FileLogging.Enabled)
	}

	return &merged
}

// SaveToFile saves configuration to a specific file
func (m *Manager) SaveToFile(cfg *Config, filePath string) error {
	slog.Debug("saving config to file", "file_path", filePath)

	if err := m.Validate(cfg); err != nil {
		slog.Error("cannot save invalid config", "error", err)
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := m.fs.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create config directory", "directory", dir, "error", err)
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		slog.Error("failed to marshal config", "error", err)
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(m.fs, filePath, data, 0644); err != nil {
		slog.Error("failed to write config file", "file_path", filePath, "error", err)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	slog.Info("config saved successfully", "file_path", filePath)
	return nil
}

// Load loads configuration using XDG path discovery, falling back to
// defaults when no config file exists, then applies environment
// overrides
func (m *Manager) Load() *Config {
	for _, path := range m.xdg.GetConfigPaths("config.json") {
		if _, err := m.fs.Stat(path); err != nil {
			continue
		}
		cfg, err := m.LoadFromFile(path)
		if err != nil {
			slog.Warn("skipping unreadable config file", "path", path, "error", err)
			continue
		}
		slog.Info("config discovered", "path", path)
		m.ApplyEnvOverrides(cfg)
		return cfg
	}

	slog.Debug("no config file found, using defaults")
	cfg := m.DefaultConfig()
	m.ApplyEnvOverrides(cfg)
	return cfg
}

// ApplyEnvOverrides applies PCMFLOW_* environment variables on top of
// the loaded configuration
func (m *Manager) ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PCMFLOW_RATE"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
			slog.Debug("env override", "target_sample_rate", rate)
			cfg.TargetSampleRate = rate
		} else {
			slog.Warn("ignoring invalid PCMFLOW_RATE", "value", v)
		}
	}
	if v := os.Getenv("PCMFLOW_CHANNELS"); v != "" {
		if channels, err := strconv.Atoi(v); err == nil && channels > 0 {
			slog.Debug("env override", "target_channels", channels)
			cfg.TargetChannels = channels
		} else {
			slog.Warn("ignoring invalid PCMFLOW_CHANNELS", "value", v)
		}
	}
	if v := os.Getenv("PCMFLOW_BACKEND"); v != "" {
		slog.Debug("env override", "backend", v)
		cfg.Backend = v
	}
	if v := os.Getenv("PCMFLOW_LOG_LEVEL"); v != "" {
		slog.Debug("env override", "log_level", v)
		cfg.LogLevel = strings.ToLower(v)
	}
}

// Validate checks configuration invariants
func (m *Manager) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.TargetSampleRate <= 0 {
		return fmt.Errorf("target_sample_rate must be positive, got %d", cfg.TargetSampleRate)
	}
	if cfg.TargetChannels <= 0 {
		return fmt.Errorf("target_channels must be positive, got %d", cfg.TargetChannels)
	}
	if cfg.FrameMs <= 0 {
		return fmt.Errorf("frame_ms must be positive, got %d", cfg.FrameMs)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", cfg.LogLevel)
	}

	switch cfg.Quality {
	case "quick", "low", "medium", "high", "veryhigh":
	default:
		return fmt.Errorf("invalid quality: %s", cfg.Quality)
	}

	if cfg.FileLogging != nil {
		if cfg.FileLogging.MaxSizeMB < 0 || cfg.FileLogging.MaxBackups < 0 || cfg.FileLogging.MaxAgeDays < 0 {
			return fmt.Errorf("file_logging limits must not be negative")
		}
	}

	return nil
}

// LogFilePath resolves the file logging destination, defaulting to the
// XDG cache directory
func (m *Manager) LogFilePath(cfg *Config) string {
	if cfg.FileLogging != nil && cfg.FileLogging.Filename != "" {
		return cfg.FileLogging.Filename
	}
	return filepath.Join(m.xdg.GetCachePath("logs"), "pcmflow.log")
}
