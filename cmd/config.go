package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/hiwar/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and edit the configuration file",
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one field in the config file",
		Long: `Set one field in the config file, leaving the rest untouched.

Keys use dotted paths such as chat.language or server.headers.Authorization.
Numbers and booleans are stored as JSON numbers and booleans.`,
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the global config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configPath(cmd))
		},
	}

	cmd.AddCommand(set, path)
	return cmd
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	if err := config.SetFileField(configPath(cmd), key, parseValue(raw)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, raw)
	return nil
}

// configPath is --config when given, else the global file.
func configPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	return config.GlobalConfigPath()
}

// parseValue turns "42" and "true" into JSON numbers and booleans.
func parseValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
