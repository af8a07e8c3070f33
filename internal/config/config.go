// Package config builds the process-wide configuration once at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the CLI and web layers need. It is constructed
// once and passed explicitly, never read from ambient state.
type Config struct {
	APIKey   string // refinement service credential, the one required secret
	Model    string // chat model name
	Endpoint string // chat-completions base URL; empty means the provider default
	Dev      bool   // human-readable debug logging
}

// fileConfig is the optional on-disk config at ~/.config/relatorio/config.yaml.
type fileConfig struct {
	APIKey   string `yaml:"api_key,omitempty"`
	Model    string `yaml:"model,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// Path returns the path to the config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "relatorio", "config.yaml"), nil
}

// Load assembles the configuration: a best-effort .env file, then the yaml
// config file, then real environment variables. Env always wins over file.
// A missing config file is not an error; a missing API key is reported by
// the interactive flow, not here.
func Load() (Config, error) {
	// .env is a developer convenience; its absence is expected.
	_ = godotenv.Load()

	cfg := Config{Model: "gpt-4o-mini"}

	fc, err := loadFile()
	if err != nil {
		return Config{}, err
	}
	if fc.APIKey != "" {
		cfg.APIKey = fc.APIKey
	}
	if fc.Model != "" {
		cfg.Model = fc.Model
	}
	if fc.Endpoint != "" {
		cfg.Endpoint = fc.Endpoint
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("RELATORIO_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("RELATORIO_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	cfg.Dev = os.Getenv("RELATORIO_DEV") == "true"

	return cfg, nil
}

// loadFile reads the yaml config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadFile() (fileConfig, error) {
	path, err := Path()
	if err != nil {
		return fileConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fileConfig{}, nil
	}
	if err != nil {
		return fileConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	return fc, nil
}
