package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime settings for the issuance daemon.
type Config struct {
	ListenAddress string        `yaml:"listen"`
	Environment   string        `yaml:"environment"`
	ModuleConfig  string        `yaml:"module_config"`
	Auth          AuthConfig    `yaml:"auth"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
	Telemetry     Telemetry     `yaml:"telemetry"`
}

// AuthConfig lists the bearer tokens accepted by the API.
type AuthConfig struct {
	APITokens []string `yaml:"api_tokens"`
}

// StorageConfig locates the audit event store.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig tunes the optional rotated log file.
type LoggingConfig struct {
	FilePath   string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Telemetry toggles the OTLP exporters.
type Telemetry struct {
	Metrics bool `yaml:"metrics"`
	Traces  bool `yaml:"traces"`
}

// Load reads the YAML configuration from disk and validates the result.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddress: ":8475",
	}
	if strings.TrimSpace(path) == "" {
		return cfg, fmt.Errorf("config path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) normalize() {
	if cfg == nil {
		return
	}
	cfg.ListenAddress = strings.TrimSpace(cfg.ListenAddress)
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8475"
	}
	cfg.Environment = strings.TrimSpace(cfg.Environment)
	cfg.ModuleConfig = strings.TrimSpace(cfg.ModuleConfig)
	cfg.Storage.Path = strings.TrimSpace(cfg.Storage.Path)
	cfg.Logging.FilePath = strings.TrimSpace(cfg.Logging.FilePath)

	tokens := make([]string, 0, len(cfg.Auth.APITokens))
	for _, token := range cfg.Auth.APITokens {
		if trimmed := strings.TrimSpace(token); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	cfg.Auth.APITokens = tokens
}

func (cfg *Config) validate() error {
	if cfg == nil {
		return fmt.Errorf("configuration is missing")
	}
	if cfg.ModuleConfig == "" {
		return fmt.Errorf("module_config path required")
	}
	if len(cfg.Auth.APITokens) == 0 {
		return fmt.Errorf("auth: at least one api token must be configured")
	}
	if cfg.Storage.Path == "" {
		return fmt.Errorf("storage: path required")
	}
	return nil
}
