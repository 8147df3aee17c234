// Command boardgen generates, stores and serves procedural property-trading boards.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/talgya/boardgen/internal/client"
	"github.com/talgya/boardgen/internal/persistence"
)

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:          "boardgen",
		Short:        "Procedural board generator for property-trading games",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}))
			slog.SetDefault(logger)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(templatesCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

// openDB opens the local map store, creating its directory.
func openDB() (*persistence.DB, error) {
	path := envOrDefault("BOARDGEN_DB", "data/boardgen.db")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}
	db, err := persistence.Open(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("database opened", "path", path)
	return db, nil
}

// remote returns a client when --server or BOARDGEN_SERVER names an API.
func remote(server string) *client.Client {
	if server == "" {
		server = os.Getenv("BOARDGEN_SERVER")
	}
	if server == "" {
		return nil
	}
	c := client.New(server)
	c.Token = os.Getenv("BOARDGEN_ADMIN_KEY")
	return c
}
