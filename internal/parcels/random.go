package parcels

import (
	"log/slog"

	"github.com/talgya/boardgen/internal/entropy"
	"github.com/talgya/boardgen/internal/world"
)

// RandomConfig tunes the free placer.
type RandomConfig struct {
	TwoByTwoRatio float64 // chance a candidate tries a 2x2 first
	ParcelRatio   float64 // cap on parcels per non-road cell
	MinSpacing    int     // empty ring kept around every footprint
}

// DefaultRandomConfig matches the classic free placement rules.
func DefaultRandomConfig() RandomConfig {
	return RandomConfig{TwoByTwoRatio: 0.15, ParcelRatio: 0.5}
}

// RandomPlacer scatters parcels on shuffled road-adjacent cells of any network.
type RandomPlacer struct {
	bounds world.Bounds
	roads  *world.CellSet
	cfg    RandomConfig

	occupied *world.CellSet
}

// NewRandomPlacer creates a free placer over roads.
func NewRandomPlacer(b world.Bounds, roads *world.CellSet, cfg RandomConfig) *RandomPlacer {
	return &RandomPlacer{bounds: b, roads: roads, cfg: cfg}
}

func (p *RandomPlacer) Name() string { return "random" }

// Place shuffles the candidates, draws a target of roads*U(0.3,0.5) and walks
// the candidates until the target is met.
func (p *RandomPlacer) Place(rng *entropy.Stream) []Parcel {
	p.occupied = world.NewCellSet()

	var candidates []world.Cell
	p.bounds.Each(func(c world.Cell) {
		if p.bounds.Interior(c) && !p.roads.Has(c) && p.roads.Touches(c) {
			candidates = append(candidates, c)
		}
	})
	entropy.Shuffle(rng, candidates)

	target := int(float64(p.roads.Len()) * rng.Uniform(0.3, 0.5))
	if capped := int(float64(p.bounds.Area()-p.roads.Len()) * p.cfg.ParcelRatio); target > capped {
		target = capped
	}

	var out []Parcel
	for _, c := range candidates {
		if len(out) >= target {
			break
		}
		if p.occupied.Has(c) {
			continue
		}

		if rng.Chance(p.cfg.TwoByTwoRatio) {
			if p.fits2x2(c) {
				out = append(out, p.take(c, Size2x2, rng))
				continue
			}
			slog.Debug("2x2 rejected, trying 1x1", "anchor", c)
		}
		if p.spaced(c, Size1x1) {
			out = append(out, p.take(c, Size1x1, rng))
		}
	}
	return out
}

func (p *RandomPlacer) taken(c world.Cell) bool {
	return p.roads.Has(c) || p.occupied.Has(c)
}

func (p *RandomPlacer) fits2x2(anchor world.Cell) bool {
	if !CanPlace2x2(p.bounds, anchor, p.taken) {
		return false
	}
	access := false
	for _, c := range footprint2x2(anchor) {
		if p.roads.Touches(c) {
			access = true
			break
		}
	}
	return access && p.spaced(anchor, Size2x2)
}

// spaced reports whether no placed footprint lies within MinSpacing of the block.
func (p *RandomPlacer) spaced(anchor world.Cell, size Size) bool {
	s, n := p.cfg.MinSpacing, int(size)
	for dx := -s; dx <= n+s-1; dx++ {
		for dy := -s; dy <= n+s-1; dy++ {
			if dx >= 0 && dx < n && dy >= 0 && dy < n {
				continue
			}
			if p.occupied.Has(world.C(anchor.X+dx, anchor.Y+dy)) {
				return false
			}
		}
	}
	return true
}

func (p *RandomPlacer) take(anchor world.Cell, size Size, rng *entropy.Stream) Parcel {
	parcel := newParcel(anchor, size)
	p.occupied.AddAll(parcel.Footprint())
	parcel.Value = 500 + rng.Intn(3500)
	return parcel
}
