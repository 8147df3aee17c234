// Package roads builds the board's road network. Every strategy (template rings,
// free-form paths, classic ring-and-spokes, organic growth, perimeter loop) ends in
// Finish, which repairs connectivity and derives intersections and adjacency.
package roads

import (
	"log/slog"

	"github.com/zyedidia/generic/stack"

	"github.com/talgya/boardgen/internal/world"
)

// Network is a classified set of road cells. Main and Side are disjoint and
// together equal Roads.
type Network struct {
	Bounds        world.Bounds                `json:"bounds"`
	Roads         *world.CellSet              `json:"roads"`
	Main          *world.CellSet              `json:"main_roads"`
	Side          *world.CellSet              `json:"side_roads"`
	Intersections *world.CellSet              `json:"intersections"`
	Adjacency     map[world.Cell][]world.Cell `json:"adjacency"`
}

// NewNetwork creates an empty network for a board.
func NewNetwork(b world.Bounds) *Network {
	return &Network{
		Bounds:        b,
		Roads:         world.NewCellSet(),
		Main:          world.NewCellSet(),
		Side:          world.NewCellSet(),
		Intersections: world.NewCellSet(),
		Adjacency:     make(map[world.Cell][]world.Cell),
	}
}

// Add inserts a road cell. A main classification wins over side.
func (n *Network) Add(c world.Cell, main bool) {
	n.Roads.Add(c)
	if main {
		n.Main.Add(c)
		n.Side.Remove(c)
		return
	}
	if !n.Main.Has(c) {
		n.Side.Add(c)
	}
}

// Has reports whether c is a road.
func (n *Network) Has(c world.Cell) bool {
	return n.Roads.Has(c)
}

// Len returns the number of road cells.
func (n *Network) Len() int {
	return n.Roads.Len()
}

// Finish repairs connectivity, then derives intersections and adjacency.
func (n *Network) Finish() *Network {
	n.repair()
	n.detectIntersections()
	n.buildAdjacency()
	return n
}

// Components returns the 4-connected components of the road set, discovered
// by stack-based DFS seeded in insertion order.
func (n *Network) Components() [][]world.Cell {
	visited := make(map[world.Cell]bool, n.Roads.Len())
	var comps [][]world.Cell

	n.Roads.Each(func(start world.Cell) {
		if visited[start] {
			return
		}
		var comp []world.Cell
		st := stack.New[world.Cell]()
		st.Push(start)
		for st.Size() > 0 {
			c := st.Pop()
			if visited[c] {
				continue
			}
			visited[c] = true
			comp = append(comp, c)
			for _, nb := range c.Neighbors() {
				if n.Roads.Has(nb) && !visited[nb] {
					st.Push(nb)
				}
			}
		}
		comps = append(comps, comp)
	})
	return comps
}

// repair stitches every component to the largest one through its nearest
// cell pair.
func (n *Network) repair() {
	comps := n.Components()
	if len(comps) <= 1 {
		return
	}
	largest := 0
	for i, c := range comps {
		if len(c) > len(comps[largest]) {
			largest = i
		}
	}
	slog.Debug("stitching road components", "components", len(comps), "largest", len(comps[largest]))

	for i, comp := range comps {
		if i == largest {
			continue
		}
		best := -1
		var from, to world.Cell
		for _, a := range comp {
			for _, b := range comps[largest] {
				if d := world.Manhattan(a, b); best < 0 || d < best {
					best, from, to = d, a, b
				}
			}
		}
		n.Connect(from, to, false)
	}
}

// Connect lays road from a towards b, x first then y. b itself is not added.
func (n *Network) Connect(a, b world.Cell, main bool) {
	cur := a
	for cur != b {
		n.Add(cur, main)
		if cur.X != b.X {
			cur.X += world.Sign(b.X - cur.X)
		} else {
			cur.Y += world.Sign(b.Y - cur.Y)
		}
	}
}

// Stitch lays road from a to b inclusive, x first then y.
func (n *Network) Stitch(a, b world.Cell, main bool) {
	n.Connect(a, b, main)
	n.Add(b, main)
}

func (n *Network) detectIntersections() {
	n.Intersections = world.NewCellSet()
	n.Roads.Each(func(c world.Cell) {
		if n.Roads.CountNeighbors(c) >= 3 {
			n.Intersections.Add(c)
		}
	})
}

func (n *Network) buildAdjacency() {
	n.Adjacency = make(map[world.Cell][]world.Cell, n.Roads.Len())
	n.Roads.Each(func(c world.Cell) {
		nbs := []world.Cell{}
		for _, nb := range c.Neighbors() {
			if n.Roads.Has(nb) {
				nbs = append(nbs, nb)
			}
		}
		n.Adjacency[c] = nbs
	})
}

// Neighbors returns the road neighbours of c in canonical order.
func (n *Network) Neighbors(c world.Cell) []world.Cell {
	return n.Adjacency[c]
}

// AdjacentToRoad reports whether any neighbour of c is a road.
func (n *Network) AdjacentToRoad(c world.Cell) bool {
	return n.Roads.Touches(c)
}
