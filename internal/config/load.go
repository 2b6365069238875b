package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	configFileName = "hiwar.json"
	envPrefix      = "HIWAR_"
	dotEnvFile     = ".env"
)

// Load finds and loads configuration from standard locations.
// Later sources win: defaults, the global file, the nearest project
// file, .env, then HIWAR_* environment variables.
func Load() (*Config, error) {
	cfg := NewConfig()

	if err := loadFile(GlobalConfigPath(), cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading global config: %w", err)
	}

	if projectPath := findProjectConfig(); projectPath != "" {
		if err := loadFile(projectPath, cfg); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return finish(cfg)
}

// LoadFromFile loads configuration from a specific file path instead
// of the standard locations. Environment overrides still apply.
func LoadFromFile(path string) (*Config, error) {
	cfg := NewConfig()

	if err := loadFile(path, cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", dotEnvFile, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := resolveValues(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func resolveValues(cfg *Config) error {
	baseURL, err := resolve(cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("resolving server.base_url: %w", err)
	}
	cfg.Server.BaseURL = baseURL

	for name, value := range cfg.Server.Headers {
		resolved, err := resolve(value)
		if err != nil {
			return fmt.Errorf("resolving header %s: %w", name, err)
		}
		cfg.Server.Headers[name] = resolved
	}

	password, err := resolve(cfg.Store.RedisPassword)
	if err != nil {
		return fmt.Errorf("resolving store.redis_password: %w", err)
	}
	cfg.Store.RedisPassword = password

	return nil
}

func loadFile(path string, cfg *Config) error {
	//nolint:gosec // G304: Path is from trusted config locations, not user input.
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		path := filepath.Join(dir, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		hiddenPath := filepath.Join(dir, "."+configFileName)
		if _, err := os.Stat(hiddenPath); err == nil {
			return hiddenPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// GlobalConfigPath returns the path to the global configuration file.
func GlobalConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, configFileName)
}
