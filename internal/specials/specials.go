// Package specials scatters event tiles (hospital, chance, news, bonus, fee,
// card) over the road cells left free by parcels.
package specials

import (
	"github.com/talgya/boardgen/internal/entropy"
	"github.com/talgya/boardgen/internal/world"
)

// Category is the kind of event a special tile triggers.
type Category string

const (
	Hospital Category = "hospital"
	Chance   Category = "chance"
	News     Category = "news"
	Bonus    Category = "bonus"
	Fee      Category = "fee"
	Card     Category = "card"
)

// Categories is the fixed category order used for draws and reports.
var Categories = []Category{Hospital, Chance, News, Bonus, Fee, Card}

// MaxRatio is the upper bound of the share of free road cells that become special.
const MaxRatio = 0.2

// Tile is one placed special tile.
type Tile struct {
	Cell     world.Cell `json:"cell"`
	Category Category   `json:"category"`
	Payload  int        `json:"payload"`
}

// Place draws a count of len(free)*min(U(0.1,0.2), ratio), shuffles the free
// cells and turns the prefix into special tiles.
func Place(free []world.Cell, ratio float64, rng *entropy.Stream) []Tile {
	share := min(rng.Uniform(0.1, MaxRatio), ratio)
	count := int(float64(len(free)) * share)
	if count <= 0 {
		return nil
	}

	cells := append([]world.Cell(nil), free...)
	entropy.Shuffle(rng, cells)

	tiles := make([]Tile, count)
	for i, c := range cells[:count] {
		cat := entropy.Pick(rng, Categories)
		tiles[i] = Tile{Cell: c, Category: cat, Payload: payload(cat, rng)}
	}
	return tiles
}

// payload draws the category-specific amount.
func payload(c Category, rng *entropy.Stream) int {
	switch c {
	case Fee:
		return rng.Range(100, 500)
	case Bonus:
		return rng.Range(200, 1000)
	default:
		return 0
	}
}

// CategoryCount pairs a category with how many tiles carry it.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// Distribution counts tiles per category in the fixed category order.
func Distribution(tiles []Tile) []CategoryCount {
	counts := make(map[Category]int, len(Categories))
	for _, t := range tiles {
		counts[t.Category]++
	}
	out := make([]CategoryCount, len(Categories))
	for i, c := range Categories {
		out[i] = CategoryCount{Category: c, Count: counts[c]}
	}
	return out
}

// Quadrants counts tiles per board quadrant: south-west, south-east,
// north-east, north-west.
type Quadrants [4]int

// QuadrantBalance splits the board at its centre and counts tiles per quadrant.
func QuadrantBalance(b world.Bounds, tiles []Tile) Quadrants {
	var q Quadrants
	cx, cy := float64(b.W)/2, float64(b.H)/2
	for _, t := range tiles {
		x, y := float64(t.Cell.X), float64(t.Cell.Y)
		switch {
		case x < cx && y < cy:
			q[0]++
		case x >= cx && y < cy:
			q[1]++
		case x >= cx && y >= cy:
			q[2]++
		default:
			q[3]++
		}
	}
	return q
}

// Balanced reports whether every quadrant holds at least half its even share.
func (q Quadrants) Balanced() bool {
	total := q[0] + q[1] + q[2] + q[3]
	floor := float64(total/4) * 0.5
	for _, n := range q {
		if float64(n) < floor {
			return false
		}
	}
	return true
}
