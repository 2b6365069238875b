package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/hiwar/internal/config"
	"github.com/guilhermegouw/hiwar/internal/i18n"
	"github.com/guilhermegouw/hiwar/internal/session"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session", "s"},
		Short:   "Manage the stored chat history",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, newest first",
		Args:  cobra.NoArgs,
		RunE:  runSessionsList,
	}
	list.Flags().String("search", "", "Only sessions whose title or messages contain this text")
	list.Flags().Bool("json", false, "Print the stored JSON instead of a table")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a session as markdown",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsShow,
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsDelete,
	}

	rename := &cobra.Command{
		Use:   "rename <id> <title...>",
		Short: "Rename a session",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runSessionsRename,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored session",
		Args:  cobra.NoArgs,
		RunE:  runSessionsClear,
	}
	clearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	export := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a session as markdown",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsShow,
	}
	export.Flags().StringP("output", "o", "", "Write to this file instead of stdout")

	backup := &cobra.Command{
		Use:   "backup",
		Short: "Write the whole history and chat settings as a backup file",
		Args:  cobra.NoArgs,
		RunE:  runSessionsBackup,
	}
	backup.Flags().StringP("output", "o", "", "Write to this file instead of stdout")

	restore := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the history with a backup",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsRestore,
	}
	restore.Flags().Bool("settings", true, "Also restore the chat settings block")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show history totals",
		Args:  cobra.NoArgs,
		RunE:  runSessionsStats,
	}

	cmd.AddCommand(list, show, del, rename, clearCmd, export, backup, restore, stats)
	return cmd
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	cfg, store, done, err := storeOnly(cmd)
	if err != nil {
		return err
	}
	defer done()

	list, err := store.ReadAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading sessions: %w", err)
	}
	if keyword, _ := cmd.Flags().GetString("search"); keyword != "" {
		list = session.Search(list, keyword)
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := session.MarshalList(list)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	printSessions(out, list, catalog(cfg), time.Now())
	return nil
}

func printSessions(out io.Writer, list []session.Session, cat i18n.Catalog, now time.Time) {
	if len(list) == 0 {
		fmt.Fprintln(out, cat.T(i18n.NoHistory))
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tMESSAGES\tCREATED")
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Title, len(s.Messages), cat.RelativeTime(s.CreatedAt, now))
	}
	_ = w.Flush()
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	cfg, store, done, err := storeOnly(cmd)
	if err != nil {
		return err
	}
	defer done()

	s, err := session.Get(cmd.Context(), store, args[0])
	if err != nil {
		return err
	}
	doc, err := session.ExportMarkdown(s.Title, s.Messages, time.Now(), catalog(cfg))
	if err != nil {
		return err
	}
	return writeOutput(cmd, []byte(doc))
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ctrl.DeleteSession(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("deleting session %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runSessionsRename(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	title := strings.Join(args[1:], " ")
	if err := a.ctrl.RenameSession(cmd.Context(), args[0], title); err != nil {
		return fmt.Errorf("renaming session %s: %w", args[0], err)
	}
	return nil
}

func runSessionsClear(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), catalog(cfg).T(i18n.ConfirmClear)) {
		return nil
	}

	a, err := newApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.ctrl.ClearHistory(cmd.Context())
}

// confirm asks prompt and reports whether the answer was yes.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt+" ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "ن", "نعم":
		return true
	}
	return false
}

func runSessionsBackup(cmd *cobra.Command, _ []string) error {
	cfg, store, done, err := storeOnly(cmd)
	if err != nil {
		return err
	}
	defer done()

	list, err := store.ReadAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading sessions: %w", err)
	}
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	data, err := session.MarshalBackup(session.Backup{
		Settings:   settings,
		Sessions:   list,
		ExportDate: time.Now(),
	})
	if err != nil {
		return err
	}
	return writeOutput(cmd, data)
}

func runSessionsRestore(cmd *cobra.Command, args []string) error {
	cfg, store, done, err := storeOnly(cmd)
	if err != nil {
		return err
	}
	defer done()

	//nolint:gosec // G304: the backup file is chosen by the user.
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading backup: %w", err)
	}
	b, err := session.UnmarshalBackup(data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if b.HasSessions() {
		if err := store.WriteAll(cmd.Context(), b.Sessions); err != nil {
			return fmt.Errorf("writing sessions: %w", err)
		}
		fmt.Fprintf(out, "Restored %d sessions\n", len(b.Sessions))
	}

	if withSettings, _ := cmd.Flags().GetBool("settings"); withSettings && len(b.Settings) > 0 {
		if err := restoreSettings(cmd, cfg, b); err != nil {
			return err
		}
		fmt.Fprintln(out, "Restored chat settings")
	}
	return nil
}

// restoreSettings writes the backup's chat block into the config file
// in use, one field at a time.
func restoreSettings(cmd *cobra.Command, cfg *config.Config, b session.Backup) error {
	if err := cfg.ApplySettings(b.Settings); err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.GlobalConfigPath()
	}
	fields := map[string]any{
		"chat.language":          cfg.Chat.Language,
		"chat.stream_timeout_ms": cfg.Chat.StreamTimeoutMS,
		"chat.title_limit":       cfg.Chat.TitleLimit,
	}
	for key, value := range fields {
		if err := config.SetFileField(path, key, value); err != nil {
			return err
		}
	}
	return nil
}

func runSessionsStats(cmd *cobra.Command, _ []string) error {
	_, store, done, err := storeOnly(cmd)
	if err != nil {
		return err
	}
	defer done()

	list, err := store.ReadAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading sessions: %w", err)
	}
	st := session.ComputeStats(list, time.Now())

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Chats:    %s\n", session.FormatCount(st.Total))
	fmt.Fprintf(out, "Today:    %s\n", session.FormatCount(st.Today))
	fmt.Fprintf(out, "Messages: %s\n", session.FormatCount(st.Messages))
	return nil
}

// writeOutput writes data to --output when set, else to stdout.
func writeOutput(cmd *cobra.Command, data []byte) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}
