package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/hiwar/internal/config"
	"github.com/guilhermegouw/hiwar/internal/session"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, store backend and history totals",
		Long: `Display the current hiwar status including:
  - Chat server stream URL
  - Session store backend and location
  - Interface language and stream timeout
  - Session counts`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, store, done, err := storeOnly(cmd)
	if err != nil {
		return err
	}
	defer done()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "hiwar Status")
	fmt.Fprintln(out, strings.Repeat("─", 40))
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Server:   %s\n", cfg.StreamURL())
	if len(cfg.Server.Headers) > 0 {
		fmt.Fprintf(out, "Headers:  %d configured\n", len(cfg.Server.Headers))
	}
	fmt.Fprintf(out, "Language: %s\n", cfg.Chat.Language)
	fmt.Fprintf(out, "Timeout:  %s\n", cfg.StreamTimeout())
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Store:    %s\n", describeStore(cfg, store))
	list, err := store.ReadAll(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "  unavailable: %v\n", err)
	} else {
		st := session.ComputeStats(list, time.Now())
		fmt.Fprintf(out, "  %s chats, %s today, %s messages\n",
			session.FormatCount(st.Total), session.FormatCount(st.Today), session.FormatCount(st.Messages))
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Config File: %s\n", configPath(cmd))
	return nil
}

func describeStore(cfg *config.Config, store session.Store) string {
	switch s := store.(type) {
	case *session.FileStore:
		return "file " + s.Path()
	case *session.RedisStore:
		return fmt.Sprintf("redis %s key %s", cfg.Store.RedisAddr, s.Key())
	case *session.SQLiteStore:
		return "sqlite " + cfg.DataDir()
	case *session.MemoryStore:
		return "memory (not saved)"
	}
	return cfg.Store.Backend
}
