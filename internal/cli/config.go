// Package cli holds configuration and output helpers for the deskctl CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration file.
type Config struct {
	DefaultProfile string                   `yaml:"default_profile"`
	Profiles       map[string]ProfileConfig `yaml:"profiles"`
}

// ProfileConfig holds the connection settings for one deployment.
type ProfileConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".deskctl", "config.yaml"), nil
}

// LoadConfig loads the configuration from file. A missing file yields an
// empty config, not an error.
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{
				DefaultProfile: "default",
				Profiles:       make(map[string]ProfileConfig),
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes the configuration file, creating the directory if
// needed.
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ResolveProfile merges the config file with command-line overrides.
// Flag values win; the profile supplies whatever the flags leave empty.
func ResolveProfile(profile, baseURL, apiKey string) (ProfileConfig, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return ProfileConfig{}, err
	}

	if profile == "" {
		profile = cfg.DefaultProfile
	}
	resolved := cfg.Profiles[profile]

	if baseURL != "" {
		resolved.BaseURL = baseURL
	}
	if apiKey != "" {
		resolved.APIKey = apiKey
	}

	if resolved.BaseURL == "" {
		return ProfileConfig{}, fmt.Errorf("no base URL configured: set --base-url or add profile %q to the config file", profile)
	}
	return resolved, nil
}
