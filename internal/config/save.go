package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes the configuration to the global config file.
func Save(cfg *Config) error {
	return SaveToFile(cfg, GlobalConfigPath())
}

// SaveToFile writes the configuration to a specific file path.
// Header values are written as given, so "$VAR" references should be
// kept in the Config passed here rather than resolved values.
func SaveToFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil { //nolint:gosec // Restrictive permissions for security.
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Settings returns the portable part of the configuration, the
// "settings" block of a backup.
func (c *Config) Settings() (json.RawMessage, error) {
	data, err := json.Marshal(c.Chat)
	if err != nil {
		return nil, fmt.Errorf("marshaling settings: %w", err)
	}
	return data, nil
}

// ApplySettings restores a backup's settings block onto c.
func (c *Config) ApplySettings(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	chat := c.Chat
	if err := json.Unmarshal(raw, &chat); err != nil {
		return fmt.Errorf("decoding settings: %w", err)
	}
	c.Chat = chat
	return nil
}
