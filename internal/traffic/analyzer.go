// Package traffic runs Monte-Carlo walks over the road graph and turns the
// visit counts into per-cell hotness, percentile and price coefficient.
package traffic

import (
	"log/slog"
	"sort"

	"github.com/talgya/boardgen/internal/entropy"
	"github.com/talgya/boardgen/internal/roads"
	"github.com/talgya/boardgen/internal/world"
)

// Simulation constants.
const (
	MaxHops        = 100
	nearbyRadius   = 3
	mainBoost      = 1.2
	junctionBoost  = 1.3
	hotPercentile  = 0.9
	coldPercentile = 0.1
)

// Coefficient bounds.
const (
	MinCoefficient = 0.5
	MaxCoefficient = 2.0
)

// Config controls the simulation.
type Config struct {
	Rounds int          `json:"rounds" yaml:"rounds"`
	Starts []world.Cell `json:"start_positions" yaml:"start_positions"`
}

// Result holds dense per-cell layers indexed y*W+x.
type Result struct {
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Visits      []int        `json:"visits"`
	Hotness     []float64    `json:"hotness"`
	Percentile  []float64    `json:"percentile"`
	Coefficient []float64    `json:"price_coefficient"`
	HotSpots    []world.Cell `json:"hot_spots"`
	ColdSpots   []world.Cell `json:"cold_spots"`
}

// Sample is the analysis of a single cell.
type Sample struct {
	Visits      int     `json:"visits"`
	Hotness     float64 `json:"hotness"`
	Percentile  float64 `json:"percentile"`
	Coefficient float64 `json:"price_coefficient"`
}

// Bounds returns the board the layers cover.
func (r *Result) Bounds() world.Bounds {
	return world.Bounds{W: r.Width, H: r.Height}
}

// At returns the layers for c. Off-board cells read as cold.
func (r *Result) At(c world.Cell) Sample {
	b := r.Bounds()
	if !b.Contains(c) {
		return Sample{Coefficient: MinCoefficient}
	}
	i := b.Index(c)
	return Sample{
		Visits:      r.Visits[i],
		Hotness:     r.Hotness[i],
		Percentile:  r.Percentile[i],
		Coefficient: r.Coefficient[i],
	}
}

// AverageHotness is the mean hotness over every cell.
func (r *Result) AverageHotness() float64 {
	if len(r.Hotness) == 0 {
		return 0
	}
	sum := 0.0
	for _, h := range r.Hotness {
		sum += h
	}
	return sum / float64(len(r.Hotness))
}

// Coefficient maps a percentile in [0,1) to a price multiplier in [0.5,2.0).
func Coefficient(p float64) float64 {
	return MinCoefficient + p*(MaxCoefficient-MinCoefficient)
}

// Analyzer walks one road network.
type Analyzer struct {
	net    *roads.Network
	cfg    Config
	roads  []world.Cell
	visits []int
}

// NewAnalyzer prepares an analyzer. An empty start list means the origin.
func NewAnalyzer(net *roads.Network, cfg Config) *Analyzer {
	if len(cfg.Starts) == 0 {
		cfg.Starts = []world.Cell{{}}
	}
	return &Analyzer{
		net:    net,
		cfg:    cfg,
		roads:  net.Roads.Cells(),
		visits: make([]int, net.Bounds.Area()),
	}
}

// Analyze runs the simulation on the given stream and derives every layer.
func Analyze(net *roads.Network, cfg Config, rng *entropy.Stream) *Result {
	return NewAnalyzer(net, cfg).Run(rng)
}

// Run simulates cfg.Rounds walks and builds the result.
func (a *Analyzer) Run(rng *entropy.Stream) *Result {
	for round := 0; round < a.cfg.Rounds; round++ {
		start := entropy.Pick(rng, a.cfg.Starts)
		if len(a.roads) == 0 {
			continue
		}
		target := entropy.Pick(rng, a.roads)
		a.walk(start, target, rng)
	}

	b := a.net.Bounds
	res := &Result{
		Width:       b.W,
		Height:      b.H,
		Visits:      a.visits,
		Hotness:     a.hotness(),
		Percentile:  make([]float64, b.Area()),
		Coefficient: make([]float64, b.Area()),
	}
	a.rank(res)
	slog.Debug("traffic analysed", "rounds", a.cfg.Rounds, "hot", len(res.HotSpots), "cold", len(res.ColdSpots))
	return res
}

// walk performs one trial from the road nearest to start.
func (a *Analyzer) walk(start, target world.Cell, rng *entropy.Stream) {
	current := a.nearestRoad(start)
	visited := make(map[world.Cell]bool)
	for hop := 0; hop < MaxHops; hop++ {
		if a.net.Bounds.Contains(current) {
			a.visits[a.net.Bounds.Index(current)]++
		}
		visited[current] = true
		if current == target {
			return
		}
		all := a.net.Neighbors(current)
		if len(all) == 0 {
			return
		}
		fresh := make([]world.Cell, 0, len(all))
		for _, nb := range all {
			if !visited[nb] {
				fresh = append(fresh, nb)
			}
		}
		if len(fresh) == 0 {
			fresh = all
		}
		current = step(fresh, target, rng)
	}
}

// step picks a neighbour by roulette, favouring those closer to target.
func step(options []world.Cell, target world.Cell, rng *entropy.Stream) world.Cell {
	maxDist := 0
	for _, c := range options {
		maxDist = max(maxDist, world.Manhattan(c, target))
	}
	weights := make([]float64, len(options))
	total := 0.0
	for i, c := range options {
		w := float64(maxDist-world.Manhattan(c, target)+1) * (0.5 + rng.Float())
		weights[i] = w
		total += w
	}
	pick := rng.Float() * total
	for i, w := range weights {
		pick -= w
		if pick <= 0 {
			return options[i]
		}
	}
	return options[0]
}

func (a *Analyzer) nearestRoad(from world.Cell) world.Cell {
	if len(a.roads) == 0 {
		return from
	}
	best, bestDist := a.roads[0], world.Manhattan(from, a.roads[0])
	for _, r := range a.roads[1:] {
		if d := world.Manhattan(from, r); d < bestDist {
			best, bestDist = r, d
		}
	}
	return best
}

func (a *Analyzer) maxVisits() int {
	m := 0
	for _, v := range a.visits {
		m = max(m, v)
	}
	return m
}

// hotness normalises road visits and spreads them onto nearby land.
func (a *Analyzer) hotness() []float64 {
	b := a.net.Bounds
	out := make([]float64, b.Area())
	peak := a.maxVisits()
	if peak == 0 {
		return out
	}
	b.Each(func(c world.Cell) {
		var h float64
		if a.net.Has(c) {
			h = float64(a.visits[b.Index(c)]) / float64(peak)
		} else {
			h = a.nearby(c, peak)
		}
		if a.net.Main.Has(c) {
			h = min(1, h*mainBoost)
		}
		if a.net.Intersections.Has(c) {
			h = min(1, h*junctionBoost)
		}
		out[b.Index(c)] = h
	})
	return out
}

// nearby is the 1/(d+1) weighted mean of road visits within nearbyRadius.
func (a *Analyzer) nearby(c world.Cell, peak int) float64 {
	b := a.net.Bounds
	var sum, weight float64
	for dx := -nearbyRadius; dx <= nearbyRadius; dx++ {
		for dy := -nearbyRadius; dy <= nearbyRadius; dy++ {
			n := world.C(c.X+dx, c.Y+dy)
			if !a.net.Has(n) {
				continue
			}
			w := 1 / float64(max(abs(dx), abs(dy))+1)
			if b.Contains(n) {
				sum += float64(a.visits[b.Index(n)]) * w
			}
			weight += w
		}
	}
	if weight == 0 {
		return 0
	}
	return min(1, sum/weight/float64(peak))
}

// rank fills percentile, coefficient and the spot lists. A cell's percentile
// is the share of positive hotness values strictly below its own.
func (a *Analyzer) rank(res *Result) {
	var positive []float64
	for _, h := range res.Hotness {
		if h > 0 {
			positive = append(positive, h)
		}
	}
	sort.Float64s(positive)

	b := res.Bounds()
	b.Each(func(c world.Cell) {
		i := b.Index(c)
		p := 0.0
		if h := res.Hotness[i]; h > 0 {
			p = float64(sort.SearchFloat64s(positive, h)) / float64(len(positive))
		}
		res.Percentile[i] = p
		res.Coefficient[i] = Coefficient(p)
		switch {
		case p >= hotPercentile:
			res.HotSpots = append(res.HotSpots, c)
		case p <= coldPercentile:
			res.ColdSpots = append(res.ColdSpots, c)
		}
	})
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
