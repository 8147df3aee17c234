package mapgen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talgya/boardgen/internal/entropy"
	"github.com/talgya/boardgen/internal/parcels"
	"github.com/talgya/boardgen/internal/roads"
	"github.com/talgya/boardgen/internal/specials"
	"github.com/talgya/boardgen/internal/streets"
	"github.com/talgya/boardgen/internal/templates"
	"github.com/talgya/boardgen/internal/traffic"
	"github.com/talgya/boardgen/internal/world"
)

// Phase names a completed pipeline step.
type Phase string

const (
	PhaseValidated Phase = "validated"
	PhaseRoads     Phase = "roads"
	PhaseParcels   Phase = "parcels"
	PhaseSpecials  Phase = "specials"
	PhaseSegmented Phase = "segmented"
	PhaseTraffic   Phase = "traffic"
	PhaseAssembled Phase = "assembled"
)

// Phases lists every phase in pipeline order.
var Phases = []Phase{PhaseValidated, PhaseRoads, PhaseParcels, PhaseSpecials, PhaseSegmented, PhaseTraffic, PhaseAssembled}

// Option adjusts a single Generate call.
type Option func(*options)

type options struct {
	progress func(Phase)
}

// WithProgress registers a callback invoked after each phase.
func WithProgress(fn func(Phase)) Option {
	return func(o *options) { o.progress = fn }
}

// Result is a complete generated board, owned by the caller.
//
// Network is the full road graph: cells carrying a special tile stay in
// Network.Roads so the graph stays connected, while Tiles tags them as
// SpecialTile only. PlainRoads returns the road cells without specials.
type Result struct {
	Params   Params           `json:"params"`
	Seed     int64            `json:"seed"`
	Mode     Mode             `json:"mode"`
	Template string           `json:"template,omitempty"`
	Shape    string           `json:"shape,omitempty"`
	Width    int              `json:"width"`
	Height   int              `json:"height"`
	Tiles    Tiles            `json:"tiles"`
	Parcels  []parcels.Parcel `json:"parcels"`
	Specials []specials.Tile  `json:"special_tiles"`
	Network  *roads.Network   `json:"road_network"`
	Regions  []streets.Region `json:"streets"`
	Traffic  *traffic.Result  `json:"traffic"`
	Stats    Stats            `json:"statistics"`
}

// Bounds returns the board size.
func (r *Result) Bounds() world.Bounds {
	return world.Bounds{W: r.Width, H: r.Height}
}

// PlainRoads returns the road cells that carry no special tile, in network order.
func (r *Result) PlainRoads() []world.Cell {
	special := world.NewCellSet()
	for _, s := range r.Specials {
		special.Add(s.Cell)
	}
	return r.Network.Roads.Difference(special).Cells()
}

// Generate runs the whole pipeline on one random stream. The only error is an
// unknown template id, or ctx being cancelled between phases.
func Generate(ctx context.Context, p Params, opts ...Option) (*Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	g := &generator{ctx: ctx, opts: o}
	return g.run(p)
}

type generator struct {
	ctx  context.Context
	opts options
}

func (g *generator) done(ph Phase) error {
	if err := g.ctx.Err(); err != nil {
		return err
	}
	if g.opts.progress != nil {
		g.opts.progress(ph)
	}
	return nil
}

func (g *generator) run(p Params) (*Result, error) {
	for _, n := range p.Normalize() {
		slog.Warn("parameter clamped", "detail", n)
	}
	rng := entropy.New(p.Seed)
	p.Seed = rng.Seed()
	b := p.Bounds()

	res := &Result{Params: p, Seed: p.Seed, Mode: p.Mode, Width: b.W, Height: b.H}

	var tpl templates.Template
	if p.Mode == ModeTemplate {
		if p.Template == "" {
			tpl = templates.Pick(p.Seed)
		} else {
			var err error
			if tpl, err = templates.ByID(p.Template); err != nil {
				return nil, fmt.Errorf("resolving template: %w", err)
			}
		}
		res.Template = tpl.ID
	}
	if err := g.done(PhaseValidated); err != nil {
		return nil, err
	}

	// Roads and the placer that fits them.
	var placer parcels.Placer
	if p.Mode == ModeTemplate {
		build := templates.NewBuilder(b, rng).Build(tpl.Scaled(b))
		res.Network = roads.FromTemplate(b, build)
		if outer := build.Outer(); outer != nil {
			placer = parcels.NewRingPlacer(b, res.Network.Roads, *outer, tpl.Quotas)
		}
	} else {
		res.Network, res.Shape = freeFormRoads(p, rng)
	}
	if placer == nil {
		placer = parcels.NewRandomPlacer(b, res.Network.Roads, parcels.RandomConfig{
			TwoByTwoRatio: p.TwoByTwoRatio,
			ParcelRatio:   p.ParcelRatio,
			MinSpacing:    p.MinSpacing,
		})
	}
	slog.Debug("roads built", "cells", res.Network.Len(), "intersections", res.Network.Intersections.Len())
	if err := g.done(PhaseRoads); err != nil {
		return nil, err
	}

	res.Parcels = placer.Place(rng)
	footprints := parcels.FootprintSet(res.Parcels)
	slog.Debug("parcels placed", "placer", placer.Name(), "count", len(res.Parcels))
	if err := g.done(PhaseParcels); err != nil {
		return nil, err
	}

	free := res.Network.Roads.Difference(footprints).Cells()
	res.Specials = specials.Place(free, p.SpecialRatio, rng)
	if err := g.done(PhaseSpecials); err != nil {
		return nil, err
	}

	res.Regions = streets.Segment(b, res.Network.Roads, res.Parcels)
	if err := g.done(PhaseSegmented); err != nil {
		return nil, err
	}

	res.Traffic = traffic.Analyze(res.Network, traffic.Config{
		Rounds: p.TrafficRounds,
		Starts: p.StartPositions,
	}, rng)
	for i := range res.Parcels {
		res.Parcels[i].Price = res.Traffic.At(res.Parcels[i].Anchor).Coefficient
	}
	streets.AssignNames(res.Regions, rng)
	if err := g.done(PhaseTraffic); err != nil {
		return nil, err
	}

	res.Tiles = assemble(res, world.NewScenerySampler(p.Seed))
	res.Stats = computeStats(res)
	if err := g.done(PhaseAssembled); err != nil {
		return nil, err
	}

	slog.Info("board generated",
		"seed", res.Seed,
		"mode", res.Mode,
		"template", res.Template,
		"size", b,
		"roads", res.Stats.RoadCells,
		"parcels", res.Stats.Parcels,
		"specials", res.Stats.SpecialTiles,
		"streets", res.Stats.Streets.Total,
	)
	return res, nil
}

// freeFormRoads runs the configured road strategy.
func freeFormRoads(p Params, rng *entropy.Stream) (*roads.Network, string) {
	b := p.Bounds()
	switch p.Roads {
	case RoadsPath:
		path := roads.NewPathGenerator(b, rng).Generate()
		return roads.FromPath(b, path), string(path.Shape)
	case RoadsGrowth:
		return roads.Growth(b, p.RoadDensity, rng), ""
	case RoadsLoop:
		return roads.Loop(b, rng), ""
	default:
		return roads.Classic(b, p.RoadDensity, rng), ""
	}
}

// assemble tags every cell exactly once, row-major, with priority
// special > parcel > road > empty.
func assemble(res *Result, scenery *world.ScenerySampler) Tiles {
	b := res.Bounds()
	special := make(map[world.Cell]specials.Tile, len(res.Specials))
	for _, s := range res.Specials {
		special[s.Cell] = s
	}
	parcelAt := make(map[world.Cell]int)
	for i, p := range res.Parcels {
		for _, c := range p.Footprint() {
			parcelAt[c] = i
		}
	}
	regionAt := make(map[world.Cell]int)
	for _, r := range res.Regions {
		for _, c := range r.Cells {
			regionAt[c] = r.ID
		}
	}

	tiles := make(Tiles, 0, b.Area())
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			c := world.C(x, y)
			if s, ok := special[c]; ok {
				tiles = append(tiles, SpecialTile{Cell: c, Category: s.Category, Payload: s.Payload})
				continue
			}
			if i, ok := parcelAt[c]; ok {
				p := res.Parcels[i]
				tiles = append(tiles, ParcelTile{Cell: c, Parcel: i, Anchor: p.Anchor, Size: p.Size, Group: p.Group, Price: p.Price})
				continue
			}
			if res.Network.Has(c) {
				tiles = append(tiles, RoadTile{
					Cell:         c,
					Main:         res.Network.Main.Has(c),
					Intersection: res.Network.Intersections.Has(c),
					Hotness:      res.Traffic.At(c).Hotness,
				})
				continue
			}
			region, ok := regionAt[c]
			if !ok {
				region = parcels.NoRegion
			}
			tiles = append(tiles, EmptyTile{Cell: c, Region: region, Scenery: scenery.At(c)})
		}
	}
	return tiles
}
