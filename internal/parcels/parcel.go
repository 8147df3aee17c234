// Package parcels places purchasable 1x1 and 2x2 parcels beside the road network.
package parcels

import (
	"fmt"

	"github.com/talgya/boardgen/internal/entropy"
	"github.com/talgya/boardgen/internal/world"
)

// Size is a parcel's side length in cells.
type Size int

const (
	Size1x1 Size = 1
	Size2x2 Size = 2
)

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", int(s), int(s))
}

// Default price coefficients before traffic analysis overwrites them.
const (
	DefaultPrice1x1 = 1.0
	DefaultPrice2x2 = 1.2
)

// NoRegion marks a parcel not yet assigned to a street region.
const NoRegion = -1

// Parcel is one purchasable footprint. Anchor is the bottom-left cell.
type Parcel struct {
	Anchor world.Cell `json:"anchor"`
	Size   Size       `json:"size"`
	Value  int        `json:"value"`
	Price  float64    `json:"price_coefficient"`
	Region int        `json:"region"`
	Group  string     `json:"color_group,omitempty"`
}

func newParcel(anchor world.Cell, size Size) Parcel {
	price := DefaultPrice1x1
	if size == Size2x2 {
		price = DefaultPrice2x2
	}
	return Parcel{Anchor: anchor, Size: size, Price: price, Region: NoRegion}
}

// Footprint returns the cells the parcel covers.
func (p Parcel) Footprint() []world.Cell {
	if p.Size != Size2x2 {
		return []world.Cell{p.Anchor}
	}
	return footprint2x2(p.Anchor)
}

func footprint2x2(a world.Cell) []world.Cell {
	return []world.Cell{a, a.Add(world.North), a.Add(world.East), a.Add(world.East).Add(world.North)}
}

// Placer is a parcel placement strategy.
type Placer interface {
	Name() string
	Place(rng *entropy.Stream) []Parcel
}

// CanPlace2x2 reports whether the 2x2 block anchored at its bottom-left cell
// lies on the board and avoids every taken cell.
func CanPlace2x2(b world.Bounds, anchor world.Cell, taken func(world.Cell) bool) bool {
	for _, c := range footprint2x2(anchor) {
		if !b.Contains(c) || taken(c) {
			return false
		}
	}
	return true
}

// FootprintSet collects every footprint cell of ps.
func FootprintSet(ps []Parcel) *world.CellSet {
	s := world.NewCellSet()
	for _, p := range ps {
		s.AddAll(p.Footprint())
	}
	return s
}

// assignValues draws 500 + floor(U*3500) for each parcel in order.
func assignValues(ps []Parcel, rng *entropy.Stream) {
	for i := range ps {
		ps[i].Value = 500 + rng.Intn(3500)
	}
}
