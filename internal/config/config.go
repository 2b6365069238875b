// Package config provides configuration management for hiwar.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/tidwall/sjson"
)

const appName = "hiwar"

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Defaults applied before any file or environment is read.
const (
	DefaultBaseURL         = "http://localhost:8000"
	DefaultStreamPath      = "/stream-chat"
	DefaultStoreKey        = "chatSessions"
	DefaultRedisAddr       = "localhost:6379"
	DefaultStreamTimeoutMS = 300000
	DefaultLanguage        = "ar"
	DefaultTitleLimit      = 30
	DefaultDevAddr         = "127.0.0.1:8000"
)

var (
	// ErrUnknownKey is returned by SetConfigField for keys hiwar does not read.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrUnresolved is returned when a $VAR reference names an unset variable.
	ErrUnresolved = errors.New("environment variable not set")
)

// Server describes the chat server the client streams from.
type Server struct {
	Headers    map[string]string `json:"headers,omitempty" env:"HEADERS"`
	BaseURL    string            `json:"base_url,omitempty" env:"BASE_URL"`
	StreamPath string            `json:"stream_path,omitempty" env:"STREAM_PATH"`
}

// Store selects where sessions are persisted.
type Store struct {
	Backend       string `json:"backend,omitempty" env:"BACKEND"`
	Key           string `json:"key,omitempty" env:"KEY"`
	RedisAddr     string `json:"redis_addr,omitempty" env:"REDIS_ADDR"`
	RedisPassword string `json:"redis_password,omitempty" env:"REDIS_PASSWORD"`
	RedisDB       int    `json:"redis_db,omitempty" env:"REDIS_DB"`
}

// Chat holds controller and presentation settings.
type Chat struct {
	Language        string `json:"language,omitempty" env:"LANGUAGE"`
	StreamTimeoutMS int64  `json:"stream_timeout_ms,omitempty" env:"STREAM_TIMEOUT_MS"`
	TitleLimit      int    `json:"title_limit,omitempty" env:"TITLE_LIMIT"`
}

// Options holds optional configuration settings.
type Options struct {
	DataDir string `json:"data_dir,omitempty" env:"DATA_DIR"`
	Debug   bool   `json:"debug,omitempty" env:"DEBUG"`
}

// Dev configures the development stream server.
type Dev struct {
	Addr string `json:"addr,omitempty" env:"ADDR"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server  Server  `json:"server" envPrefix:"SERVER_"`
	Store   Store   `json:"store" envPrefix:"STORE_"`
	Chat    Chat    `json:"chat" envPrefix:"CHAT_"`
	Options Options `json:"options" envPrefix:"OPTIONS_"`
	Dev     Dev     `json:"dev" envPrefix:"DEV_"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Server: Server{
			BaseURL:    DefaultBaseURL,
			StreamPath: DefaultStreamPath,
		},
		Store: Store{
			Backend:   BackendFile,
			Key:       DefaultStoreKey,
			RedisAddr: DefaultRedisAddr,
		},
		Chat: Chat{
			Language:        DefaultLanguage,
			StreamTimeoutMS: DefaultStreamTimeoutMS,
			TitleLimit:      DefaultTitleLimit,
		},
		Dev: Dev{Addr: DefaultDevAddr},
	}
}

// StreamTimeout returns the per-turn safety timeout.
func (c *Config) StreamTimeout() time.Duration {
	return time.Duration(c.Chat.StreamTimeoutMS) * time.Millisecond
}

// StreamURL joins the base URL and the stream path.
func (c *Config) StreamURL() string {
	return strings.TrimRight(c.Server.BaseURL, "/") + "/" + strings.TrimLeft(c.Server.StreamPath, "/")
}

// DataDir returns the data directory path from configuration.
func (c *Config) DataDir() string {
	if c.Options.DataDir != "" {
		return c.Options.DataDir
	}
	return filepath.Join(xdg.DataHome, appName)
}

// DebugLogPath returns where --debug writes its log.
func (c *Config) DebugLogPath() string {
	return filepath.Join(xdg.StateHome, appName, "debug.log")
}

// Validate reports the first setting hiwar cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("store.backend %q: must be one of file, sqlite, redis, memory", c.Store.Backend)
	}
	if c.Store.Key == "" {
		return errors.New("store.key must not be empty")
	}
	switch c.Chat.Language {
	case "ar", "en":
	default:
		return fmt.Errorf("chat.language %q: must be ar or en", c.Chat.Language)
	}
	if c.Chat.StreamTimeoutMS <= 0 {
		return fmt.Errorf("chat.stream_timeout_ms must be positive, got %d", c.Chat.StreamTimeoutMS)
	}
	if c.Chat.TitleLimit <= 0 {
		return fmt.Errorf("chat.title_limit must be positive, got %d", c.Chat.TitleLimit)
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url %q is not an absolute URL", c.Server.BaseURL)
	}
	return nil
}

// Resolve expands a "$VAR" or "${VAR}" reference. Other values are
// returned unchanged.
func (c *Config) Resolve(value string) (string, error) {
	return resolve(value)
}

func resolve(value string) (string, error) {
	if !strings.HasPrefix(value, "$") {
		return value, nil
	}
	name := strings.TrimPrefix(value, "$")
	if strings.HasPrefix(name, "{") && strings.HasSuffix(name, "}") {
		name = name[1 : len(name)-1]
	}
	v, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnresolved, name)
	}
	return v, nil
}

// settableKeys are the paths `hiwar config set` accepts.
var settableKeys = map[string]bool{
	"server.base_url":        true,
	"server.stream_path":     true,
	"store.backend":          true,
	"store.key":              true,
	"store.redis_addr":       true,
	"store.redis_password":   true,
	"store.redis_db":         true,
	"chat.language":          true,
	"chat.stream_timeout_ms": true,
	"chat.title_limit":       true,
	"options.data_dir":       true,
	"options.debug":          true,
	"dev.addr":               true,
}

// IsSettable reports whether key may be written with SetConfigField.
// Header entries ("server.headers.<name>") are always settable.
func IsSettable(key string) bool {
	if strings.HasPrefix(key, "server.headers.") && len(key) > len("server.headers.") {
		return true
	}
	return settableKeys[key]
}

// SetConfigField updates a single field in the global config file
// using JSON path notation. Only the named field is modified.
func (c *Config) SetConfigField(key string, value any) error {
	return SetFileField(GlobalConfigPath(), key, value)
}

// SetFileField is SetConfigField against an explicit file.
func SetFileField(path, key string, value any) error {
	if !IsSettable(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	//nolint:gosec // G304: path is the config file chosen by the user.
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("reading config file: %w", err)
		}
		data = []byte("{}")
	}

	newData, err := sjson.Set(string(data), key, value)
	if err != nil {
		return fmt.Errorf("setting config field %q: %w", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	//nolint:gosec // 0o600 is intentionally restrictive for security.
	if err := os.WriteFile(path, []byte(newData), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
