package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/ncruces/go-strftime"
	"github.com/spf13/cobra"

	"github.com/talgya/boardgen/internal/api"
	"github.com/talgya/boardgen/internal/mapgen"
	"github.com/talgya/boardgen/internal/persistence"
	"github.com/talgya/boardgen/internal/preview"
)

const timeLayout = "%Y-%m-%d %H:%M"

func templatesCmd() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the board templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := loadTemplates(cmd.Context(), server)
			if err != nil {
				return err
			}
			return writeTemplates(cmd.OutOrStdout(), infos)
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "query a remote API (default $BOARDGEN_SERVER)")
	return cmd
}

func loadTemplates(ctx context.Context, server string) ([]api.TemplateInfo, error) {
	if c := remote(server); c != nil {
		return c.Templates(ctx)
	}
	return api.Templates(), nil
}

func writeTemplates(w io.Writer, infos []api.TemplateInfo) error {
	width := 0
	for _, t := range infos {
		width = max(width, runewidth.StringWidth(t.ID))
	}
	for _, t := range infos {
		_, err := fmt.Fprintf(w, "%d  %s  rings %d  bridges %d  big parcels %d-%d  %s\n",
			t.Index, runewidth.FillRight(t.ID, width), t.Rings, t.Bridges,
			t.Quotas.BigCount[0], t.Quotas.BigCount[1], t.Name)
		if err != nil {
			return err
		}
	}
	return nil
}

func listCmd() *cobra.Command {
	var (
		server string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored boards, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var list []persistence.Summary
			if c := remote(server); c != nil {
				var err error
				if list, err = c.List(cmd.Context(), limit); err != nil {
					return err
				}
			} else {
				db, err := openDB()
				if err != nil {
					return err
				}
				defer db.Close()
				if list, err = db.List(cmd.Context(), limit); err != nil {
					return err
				}
			}
			return writeList(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "query a remote API (default $BOARDGEN_SERVER)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum boards to list")
	return cmd
}

func writeList(w io.Writer, list []persistence.Summary) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no stored boards")
		return err
	}
	for _, s := range list {
		label := s.Template
		if label == "" {
			label = "-"
		}
		created := s.Created()
		_, err := fmt.Fprintf(w, "%s  %s (%s)  seed %-10d  %-16s %-28s %3dx%-3d  parcels %s  streets %d\n",
			s.ID, strftime.Format(timeLayout, created), humanize.Time(created),
			s.Seed, s.Mode, label, s.Width, s.Height, humanize.Comma(int64(s.Parcels)), s.Streets)
		if err != nil {
			return err
		}
	}
	return nil
}

func showCmd() *cobra.Command {
	var (
		server string
		verify bool
		draw   bool
		asJSON bool
		latest bool
		groups bool
	)
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a stored board and check it regenerates identically",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !latest {
				return fmt.Errorf("an id or --latest is required")
			}
			rec, err := loadRecord(cmd.Context(), server, args, latest)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, rec)
			}
			fmt.Fprintf(out, "%s  saved %s\n", rec.ID, strftime.Format(timeLayout, rec.Created()))
			if err := writeSummary(out, api.Summarize("", rec.Result)); err != nil {
				return err
			}
			if groups {
				gs, err := loadGroups(cmd.Context(), server, rec.ID)
				if err != nil {
					return err
				}
				writeGroups(out, gs)
			}
			if draw {
				if err := preview.Render(out, rec.Result, preview.ForWriter(out)); err != nil {
					return err
				}
			}
			if verify {
				if err := verifyRecord(cmd.Context(), rec); err != nil {
					return err
				}
				fmt.Fprintln(out, "regenerated from stored params: statistics match")
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&server, "server", "", "query a remote API (default $BOARDGEN_SERVER)")
	f.BoolVar(&verify, "verify", true, "regenerate from the stored params and compare statistics")
	f.BoolVar(&draw, "preview", true, "draw the board")
	f.BoolVar(&asJSON, "json", false, "print the stored record as JSON")
	f.BoolVar(&latest, "latest", false, "show the most recently saved board")
	f.BoolVar(&groups, "groups", false, "count stored parcels per colour group")
	return cmd
}

func loadRecord(ctx context.Context, server string, args []string, latest bool) (*persistence.Record, error) {
	if c := remote(server); c != nil {
		if latest {
			return c.Latest(ctx)
		}
		return c.Get(ctx, args[0])
	}
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if latest {
		return db.Latest(ctx)
	}
	return db.Get(ctx, args[0])
}

func loadGroups(ctx context.Context, server, id string) ([]persistence.GroupCount, error) {
	if c := remote(server); c != nil {
		return c.Groups(ctx, id)
	}
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.ParcelGroups(ctx, id)
}

func writeGroups(w io.Writer, gs []persistence.GroupCount) {
	width := 0
	for _, g := range gs {
		width = max(width, runewidth.StringWidth(g.Group))
	}
	for _, g := range gs {
		fmt.Fprintf(w, "  %s %3d parcels\n", runewidth.FillRight(g.Group, width), g.Count)
	}
}

// verifyRecord regenerates a stored board and compares statistics.
func verifyRecord(ctx context.Context, rec *persistence.Record) error {
	res, err := mapgen.Generate(ctx, rec.Params)
	if err != nil {
		return fmt.Errorf("regenerating %s: %w", rec.ID, err)
	}
	fresh, err := json.Marshal(res.Stats)
	if err != nil {
		return err
	}
	stored, err := json.Marshal(rec.Stats)
	if err != nil {
		return err
	}
	if !bytes.Equal(fresh, stored) {
		slog.Debug("statistics differ", "fresh", string(fresh), "stored", string(stored))
		return fmt.Errorf("board %s does not regenerate identically from seed %d", rec.ID, rec.Seed)
	}
	return nil
}
