package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
)

func writeJSON(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

// isolate points xdg and the working directory at fresh temp dirs.
func isolate(t *testing.T) (configHome, cwd string) {
	t.Helper()
	configHome = t.TempDir()
	cwd = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	t.Chdir(cwd)
	return configHome, cwd
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() on defaults error = %v", err)
	}
	if got := cfg.StreamTimeout(); got != 300000*time.Millisecond {
		t.Errorf("StreamTimeout() = %v, want %v", got, 300000*time.Millisecond)
	}
	if cfg.Store.Backend != BackendFile {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, BackendFile)
	}
	if cfg.Chat.Language != "ar" {
		t.Errorf("Chat.Language = %q, want ar", cfg.Chat.Language)
	}
	if got := cfg.StreamURL(); got != "http://localhost:8000/stream-chat" {
		t.Errorf("StreamURL() = %q", got)
	}
}

func TestStreamURLJoinsSlashes(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.BaseURL = "https://chat.example.com/api/"
	cfg.Server.StreamPath = "stream-chat"

	if got, want := cfg.StreamURL(), "https://chat.example.com/api/stream-chat"; got != want {
		t.Errorf("StreamURL() = %q, want %q", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "sqlite backend", mutate: func(c *Config) { c.Store.Backend = BackendSQLite }},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "s3" }, wantErr: true},
		{name: "empty key", mutate: func(c *Config) { c.Store.Key = "" }, wantErr: true},
		{name: "english", mutate: func(c *Config) { c.Chat.Language = "en" }},
		{name: "unsupported language", mutate: func(c *Config) { c.Chat.Language = "fr" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Chat.StreamTimeoutMS = 0 }, wantErr: true},
		{name: "negative title limit", mutate: func(c *Config) { c.Chat.TitleLimit = -1 }, wantErr: true},
		{name: "relative base url", mutate: func(c *Config) { c.Server.BaseURL = "localhost" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Setenv("HIWAR_TEST_TOKEN", "secret")

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "plain", want: "plain"},
		{in: "$HIWAR_TEST_TOKEN", want: "secret"},
		{in: "${HIWAR_TEST_TOKEN}", want: "secret"},
		{in: "$HIWAR_TEST_MISSING", wantErr: true},
		{in: "", want: ""},
	}

	cfg := NewConfig()
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := cfg.Resolve(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnresolved) {
					t.Errorf("Resolve(%q) error = %v, want ErrUnresolved", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadMergesGlobalAndProject(t *testing.T) {
	configHome, cwd := isolate(t)

	writeJSON(t, filepath.Join(configHome, appName, configFileName), `{
		"server": {"base_url": "https://global.example.com", "headers": {"X-Team": "ops"}},
		"chat": {"language": "en", "title_limit": 40}
	}`)
	writeJSON(t, filepath.Join(cwd, "."+configFileName), `{
		"server": {"headers": {"X-Project": "hiwar"}},
		"chat": {"title_limit": 20}
	}`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.BaseURL != "https://global.example.com" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Chat.Language != "en" {
		t.Errorf("Language = %q, want en", cfg.Chat.Language)
	}
	if cfg.Chat.TitleLimit != 20 {
		t.Errorf("TitleLimit = %d, want 20 (project wins)", cfg.Chat.TitleLimit)
	}
	if cfg.Server.Headers["X-Team"] != "ops" || cfg.Server.Headers["X-Project"] != "hiwar" {
		t.Errorf("Headers = %v, want both files merged", cfg.Server.Headers)
	}
	if cfg.Server.StreamPath != DefaultStreamPath {
		t.Errorf("StreamPath = %q, want default", cfg.Server.StreamPath)
	}
}

func TestLoadEnvironmentOverridesFiles(t *testing.T) {
	configHome, _ := isolate(t)
	writeJSON(t, filepath.Join(configHome, appName, configFileName), `{"store": {"backend": "sqlite"}}`)

	t.Setenv("HIWAR_STORE_BACKEND", "memory")
	t.Setenv("HIWAR_CHAT_STREAM_TIMEOUT_MS", "1500")
	t.Setenv("HIWAR_OPTIONS_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.StreamTimeout() != 1500*time.Millisecond {
		t.Errorf("StreamTimeout() = %v, want 1.5s", cfg.StreamTimeout())
	}
	if !cfg.Options.Debug {
		t.Error("Options.Debug = false, want true")
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	_, cwd := isolate(t)

	// Register restoration, then clear so .env is allowed to set it.
	t.Setenv("HIWAR_DEV_ADDR", "")
	if err := os.Unsetenv("HIWAR_DEV_ADDR"); err != nil {
		t.Fatalf("Unsetenv() error = %v", err)
	}
	writeJSON(t, filepath.Join(cwd, dotEnvFile), "HIWAR_DEV_ADDR=0.0.0.0:9999\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Dev.Addr != "0.0.0.0:9999" {
		t.Errorf("Dev.Addr = %q, want value from .env", cfg.Dev.Addr)
	}
}

func TestLoadResolvesHeaderReferences(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.json")
	writeJSON(t, path, `{"server": {"headers": {"Authorization": "$HIWAR_TEST_AUTH"}}}`)

	t.Setenv("HIWAR_TEST_AUTH", "Bearer abc")
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if got := cfg.Server.Headers["Authorization"]; got != "Bearer abc" {
		t.Errorf("Authorization = %q, want resolved value", got)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	if _, err := LoadFromFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("LoadFromFile(missing) error = nil")
	}

	bad := filepath.Join(dir, "bad.json")
	writeJSON(t, bad, `{"store": {"backend": "s3"}}`)
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("LoadFromFile(invalid backend) error = nil")
	}

	unresolved := filepath.Join(dir, "unresolved.json")
	writeJSON(t, unresolved, `{"server": {"headers": {"X-Key": "$HIWAR_TEST_NOT_SET"}}}`)
	if _, err := LoadFromFile(unresolved); !errors.Is(err, ErrUnresolved) {
		t.Errorf("LoadFromFile(unresolved) error = %v, want ErrUnresolved", err)
	}
}

func TestSetFileField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", configFileName)

	if err := SetFileField(path, "chat.language", "en"); err != nil {
		t.Fatalf("SetFileField() error = %v", err)
	}
	if err := SetFileField(path, "store.redis_db", 3); err != nil {
		t.Fatalf("SetFileField() error = %v", err)
	}
	if err := SetFileField(path, "server.headers.X-Trace", "1"); err != nil {
		t.Fatalf("SetFileField(header) error = %v", err)
	}
	if err := SetFileField(path, "models.large", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("SetFileField(unknown) error = %v, want ErrUnknownKey", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	cfg := NewConfig()
	if err := loadFile(path, cfg); err != nil {
		t.Fatalf("loadFile() error = %v", err)
	}
	if cfg.Chat.Language != "en" || cfg.Store.RedisDB != 3 || cfg.Server.Headers["X-Trace"] != "1" {
		t.Errorf("config after sets = %+v", cfg)
	}
}

func TestSaveToFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", configFileName)
	cfg := NewConfig()
	cfg.Store.Backend = BackendRedis
	cfg.Server.Headers = map[string]string{"Authorization": "$TOKEN"}

	if err := SaveToFile(cfg, path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	got := NewConfig()
	if err := loadFile(path, got); err != nil {
		t.Fatalf("loadFile() error = %v", err)
	}
	if got.Store.Backend != BackendRedis {
		t.Errorf("Store.Backend = %q, want redis", got.Store.Backend)
	}
	if got.Server.Headers["Authorization"] != "$TOKEN" {
		t.Errorf("header = %q, want unresolved reference kept", got.Server.Headers["Authorization"])
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.Chat.Language = "en"
	cfg.Chat.TitleLimit = 12

	raw, err := cfg.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("settings not JSON: %v", err)
	}

	restored := NewConfig()
	if err := restored.ApplySettings(raw); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}
	if restored.Chat != cfg.Chat {
		t.Errorf("Chat = %+v, want %+v", restored.Chat, cfg.Chat)
	}
	if err := restored.ApplySettings(nil); err != nil {
		t.Errorf("ApplySettings(nil) error = %v", err)
	}
}
