package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/talgya/boardgen/internal/api"
	"github.com/talgya/boardgen/internal/client"
	"github.com/talgya/boardgen/internal/mapgen"
	"github.com/talgya/boardgen/internal/preview"
)

type generateOptions struct {
	config  string
	preset  string
	out     string
	save    bool
	preview bool
	server  string
	stream  bool

	p mapgen.Params // flag targets; applied only when set
}

func generateCmd() *cobra.Command {
	o := &generateOptions{p: mapgen.DefaultParams()}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a board and write it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := o.params(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return o.run(ctx, cmd.OutOrStdout(), p)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.config, "config", "c", "", "YAML parameter file")
	f.StringVar(&o.preset, "preset", "", "parameter preset (small, medium, large, classic)")
	f.StringVarP(&o.out, "out", "o", "", "write the board JSON to this file (- for stdout)")
	f.BoolVar(&o.save, "save", false, "store the board in the map database")
	f.BoolVar(&o.preview, "preview", false, "draw the board on stdout")
	f.StringVar(&o.server, "server", "", "generate on a remote API (default $BOARDGEN_SERVER)")
	f.BoolVar(&o.stream, "stream", false, "with --server, report phases over the websocket stream")

	f.StringVar((*string)(&o.p.Mode), "mode", string(o.p.Mode), "classic-template or free-form")
	f.IntVar(&o.p.Width, "width", o.p.Width, "grid width")
	f.IntVar(&o.p.Height, "height", o.p.Height, "grid height")
	f.Int64Var(&o.p.Seed, "seed", 0, "random seed (0 = time based)")
	f.StringVar(&o.p.Template, "template", "", "template id (classic-template mode; empty picks from the seed)")
	f.StringVar((*string)(&o.p.Roads), "roads", string(o.p.Roads), "free-form road strategy (path, classic, growth, loop)")
	f.Float64Var(&o.p.RoadDensity, "density", o.p.RoadDensity, "road density")
	f.Float64Var(&o.p.ParcelRatio, "parcel-ratio", o.p.ParcelRatio, "parcel ratio cap")
	f.Float64Var(&o.p.TwoByTwoRatio, "two-by-two", o.p.TwoByTwoRatio, "share of 2x2 parcels")
	f.IntVar(&o.p.MinSpacing, "spacing", o.p.MinSpacing, "minimum free ring around parcels")
	f.Float64Var(&o.p.SpecialRatio, "special-ratio", o.p.SpecialRatio, "cap on special tiles per road cell")
	f.IntVar(&o.p.TrafficRounds, "rounds", o.p.TrafficRounds, "traffic simulation rounds")

	cmd.MarkFlagsMutuallyExclusive("config", "preset")
	return cmd
}

// flagFields maps flag names onto the Params fields they set.
var flagFields = map[string]func(dst, src *mapgen.Params){
	"mode":          func(d, s *mapgen.Params) { d.Mode = s.Mode },
	"width":         func(d, s *mapgen.Params) { d.Width = s.Width },
	"height":        func(d, s *mapgen.Params) { d.Height = s.Height },
	"seed":          func(d, s *mapgen.Params) { d.Seed = s.Seed },
	"template":      func(d, s *mapgen.Params) { d.Template = s.Template },
	"roads":         func(d, s *mapgen.Params) { d.Roads = s.Roads },
	"density":       func(d, s *mapgen.Params) { d.RoadDensity = s.RoadDensity },
	"parcel-ratio":  func(d, s *mapgen.Params) { d.ParcelRatio = s.ParcelRatio },
	"two-by-two":    func(d, s *mapgen.Params) { d.TwoByTwoRatio = s.TwoByTwoRatio },
	"spacing":       func(d, s *mapgen.Params) { d.MinSpacing = s.MinSpacing },
	"special-ratio": func(d, s *mapgen.Params) { d.SpecialRatio = s.SpecialRatio },
	"rounds":        func(d, s *mapgen.Params) { d.TrafficRounds = s.TrafficRounds },
}

// params layers explicitly set flags over the config file, preset or defaults.
func (o *generateOptions) params(flags *pflag.FlagSet) (mapgen.Params, error) {
	p := mapgen.DefaultParams()
	var err error
	switch {
	case o.config != "":
		p, err = mapgen.LoadParams(o.config)
	case o.preset != "":
		p, err = mapgen.Preset(o.preset)
	}
	if err != nil {
		return p, err
	}
	flags.Visit(func(f *pflag.Flag) {
		if set, ok := flagFields[f.Name]; ok {
			set(&p, &o.p)
		}
	})
	return p, nil
}

func (o *generateOptions) run(ctx context.Context, stdout io.Writer, p mapgen.Params) error {
	if c := remote(o.server); c != nil {
		return o.runRemote(ctx, c, stdout, p)
	}

	res, err := mapgen.Generate(ctx, p, mapgen.WithProgress(func(ph mapgen.Phase) {
		slog.Debug("phase complete", "phase", ph)
	}))
	if err != nil {
		return err
	}

	id := ""
	if o.save {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		if id, err = db.Save(ctx, res); err != nil {
			return err
		}
	}
	return o.emit(stdout, id, res)
}

func (o *generateOptions) runRemote(ctx context.Context, c *client.Client, stdout io.Writer, p mapgen.Params) error {
	if o.stream {
		sum, err := c.Stream(ctx, p, o.save, func(ev api.PhaseEvent) {
			slog.Info("remote phase", "phase", ev.Phase, "step", fmt.Sprintf("%d/%d", ev.Index, ev.Total))
		})
		if err != nil {
			return err
		}
		return writeSummary(stdout, *sum)
	}

	resp, err := c.Generate(ctx, p, o.save)
	if err != nil {
		return err
	}
	return o.emit(stdout, resp.ID, resp.Result)
}

// emit writes the board JSON and preview as requested, then a one-line summary.
func (o *generateOptions) emit(stdout io.Writer, id string, res *mapgen.Result) error {
	switch o.out {
	case "":
	case "-":
		if err := writeJSON(stdout, res); err != nil {
			return err
		}
	default:
		f, err := os.Create(o.out)
		if err != nil {
			return err
		}
		if err := writeJSON(f, res); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		slog.Info("board written", "path", o.out)
	}

	if o.preview {
		if err := preview.Render(stdout, res, preview.ForWriter(stdout)); err != nil {
			return err
		}
	}
	if o.out != "-" {
		return writeSummary(stdout, api.Summarize(id, res))
	}
	return nil
}

func writeSummary(w io.Writer, s api.BoardSummary) error {
	label := s.Template
	if label == "" {
		label = s.Shape
	}
	_, err := fmt.Fprintf(w, "seed %d  %s %s  %dx%d  roads %s  parcels %s  specials %s  streets %d\n",
		s.Seed, s.Mode, label, s.Width, s.Height,
		humanize.Comma(int64(s.Stats.RoadCells)),
		humanize.Comma(int64(s.Stats.Parcels)),
		humanize.Comma(int64(s.Stats.SpecialTiles)),
		s.Stats.Streets.Total)
	if err == nil && s.ID != "" {
		_, err = fmt.Fprintf(w, "saved as %s\n", s.ID)
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
