package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/guilhermegouw/hiwar/internal/chat"
	"github.com/guilhermegouw/hiwar/internal/config"
	"github.com/guilhermegouw/hiwar/internal/db"
	"github.com/guilhermegouw/hiwar/internal/debug"
	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/session"
	"github.com/guilhermegouw/hiwar/internal/telemetry"
	"github.com/guilhermegouw/hiwar/internal/transport"
)

// loadConfig reads the configuration and applies the global flags on
// top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("getting config flag: %w", err)
	}
	var cfg *config.Config
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if backend, _ := flags.GetString("store"); backend != "" {
		cfg.Store.Backend = backend
	}
	if ephemeral, _ := flags.GetBool("ephemeral"); ephemeral {
		cfg.Store.Backend = config.BackendMemory
	}
	if lang, _ := flags.GetString("lang"); lang != "" {
		cfg.Chat.Language = lang
	}
	if dbg, _ := flags.GetBool("debug"); dbg {
		cfg.Options.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// enableDebug turns on the debug log when configured and returns the
// function that turns it off.
func enableDebug(cmd *cobra.Command, cfg *config.Config) func() {
	if !cfg.Options.Debug {
		return func() {}
	}
	logPath := cfg.DebugLogPath()
	if err := debug.Enable(logPath); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Failed to enable debug logging: %v\n", err)
		return func() {}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Debug: %s\n", logPath)
	return debug.Disable
}

// catalog returns the message catalog for the configured language.
func catalog(cfg *config.Config) i18n.Catalog {
	return i18n.New(i18n.Match(cfg.Chat.Language))
}

// openStore opens the configured session store. The returned function
// releases its connections.
func openStore(ctx context.Context, cfg *config.Config) (session.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Backend {
	case config.BackendMemory:
		return session.NewMemoryStore(), noop, nil

	case config.BackendSQLite:
		database, err := db.Open(filepath.Join(cfg.DataDir(), db.FileName))
		if err != nil {
			return nil, nil, fmt.Errorf("opening session database: %w", err)
		}
		return session.NewSQLiteStore(database), database.Close, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Store.RedisAddr, err)
		}
		return session.NewRedisStore(client, cfg.Store.Key), client.Close, nil

	default:
		return session.NewFileStore(cfg.DataDir(), cfg.Store.Key), noop, nil
	}
}

// app is a controller wired to the configured store and server.
type app struct {
	cfg   *config.Config
	cat   i18n.Catalog
	store session.Store
	ctrl  *chat.Controller
	close func() error
}

func newApp(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) (*app, error) {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cat := catalog(cfg)
	ctrl := chat.New(chat.Config{
		Store:      store,
		Transport:  transport.NewSSE(cfg.StreamURL(), transport.WithHeaders(cfg.Server.Headers)),
		Metrics:    metrics,
		Catalog:    cat,
		Timeout:    cfg.StreamTimeout(),
		TitleLimit: cfg.Chat.TitleLimit,
	})

	return &app{cfg: cfg, cat: cat, store: store, ctrl: ctrl, close: closeStore}, nil
}

// watch reports external changes for stores that can detect them.
func (a *app) watch(ctx context.Context) (<-chan struct{}, error) {
	fs, ok := a.store.(*session.FileStore)
	if !ok {
		return nil, nil
	}
	return fs.Watch(ctx)
}

// Close cancels any turn, shuts the hub down and releases the store.
func (a *app) Close() {
	a.ctrl.Close()
	a.ctrl.Hub().Shutdown()
	if err := a.close(); err != nil {
		debug.Error("cmd", err, "closing session store")
	}
}

// storeOnly opens the store without a controller, for commands that
// never stream.
func storeOnly(cmd *cobra.Command) (*config.Config, session.Store, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	store, closeStore, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, store, func() {
		if err := closeStore(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: closing session store: %v\n", err)
		}
	}, nil
}
