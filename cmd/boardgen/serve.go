package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/boardgen/internal/api"
	"github.com/talgya/boardgen/internal/persistence"
)

func serveCmd() *cobra.Command {
	var (
		port      int
		noStorage bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generation API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var db *persistence.DB
			if !noStorage {
				var err error
				if db, err = openDB(); err != nil {
					return err
				}
				defer db.Close()
			}

			adminKey := os.Getenv("BOARDGEN_ADMIN_KEY")
			if adminKey == "" {
				slog.Warn("BOARDGEN_ADMIN_KEY not set, DELETE endpoints will be disabled")
			}

			srv := api.NewServer(db, port, adminKey)
			srv.GenerateLimit = limit

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "API: http://localhost:%d/api/v1/status\n", port)
			if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", envIntOrDefault("BOARDGEN_PORT", 8080), "HTTP server port")
	cmd.Flags().BoolVar(&noStorage, "no-storage", false, "serve without the map database")
	cmd.Flags().IntVar(&limit, "rate", envIntOrDefault("BOARDGEN_RATE_LIMIT", 60), "generations per client per hour")
	return cmd
}
