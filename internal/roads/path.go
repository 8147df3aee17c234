package roads

import (
	"github.com/talgya/boardgen/internal/entropy"
	"github.com/talgya/boardgen/internal/world"
)

// Shape names a free-form path layout.
type Shape string

const (
	ShapeSquare Shape = "square"
	ShapeDouble Shape = "double"
	ShapeSnake  Shape = "snake"
)

var shapes = []Shape{ShapeSquare, ShapeDouble, ShapeSnake}

// Path is the output of PathGenerator: a deduplicated cell set with its main
// path, side paths and turning points.
type Path struct {
	Shape   Shape
	Cells   *world.CellSet
	Main    *world.CellSet
	Side    *world.CellSet
	Corners []world.Cell
}

func newPath(s Shape) *Path {
	return &Path{Shape: s, Cells: world.NewCellSet(), Main: world.NewCellSet(), Side: world.NewCellSet()}
}

func (p *Path) add(c world.Cell, main bool) {
	p.Cells.Add(c)
	if main {
		p.Main.Add(c)
	} else if !p.Main.Has(c) {
		p.Side.Add(c)
	}
}

// PathGenerator draws one of three free-form shapes.
type PathGenerator struct {
	bounds world.Bounds
	rng    *entropy.Stream
}

// NewPathGenerator creates a generator drawing from rng.
func NewPathGenerator(b world.Bounds, rng *entropy.Stream) *PathGenerator {
	return &PathGenerator{bounds: b, rng: rng}
}

// Generate picks a shape uniformly and draws it.
func (g *PathGenerator) Generate() *Path {
	return g.GenerateShape(entropy.Pick(g.rng, shapes))
}

// GenerateShape draws a specific shape.
func (g *PathGenerator) GenerateShape(s Shape) *Path {
	switch s {
	case ShapeDouble:
		return g.double()
	case ShapeSnake:
		return g.snake()
	default:
		return g.square()
	}
}

// square walks four edges between corners inset by 5-10 cells. Each edge is
// sampled in 8-12 steps and every sample is nudged by up to one cell.
func (g *PathGenerator) square() *Path {
	p := newPath(ShapeSquare)
	m := min(g.rng.Range(5, 10), (min(g.bounds.W, g.bounds.H)-5)/2)
	corners := []world.Cell{
		world.C(m, m), world.C(g.bounds.W-1-m, m),
		world.C(g.bounds.W-1-m, g.bounds.H-1-m), world.C(m, g.bounds.H-1-m),
	}
	for i := range corners {
		corners[i] = g.bounds.ClampInterior(corners[i])
	}

	var waypoints []world.Cell
	for i, a := range corners {
		b := corners[(i+1)%len(corners)]
		steps := g.rng.Range(8, 12)
		for k := 0; k < steps; k++ {
			pt := world.C(a.X+(b.X-a.X)*k/steps, a.Y+(b.Y-a.Y)*k/steps)
			pt = world.C(pt.X+g.rng.Range(-1, 1), pt.Y+g.rng.Range(-1, 1))
			waypoints = append(waypoints, g.bounds.ClampInterior(pt))
		}
	}
	for i, a := range waypoints {
		g.route(p, a, waypoints[(i+1)%len(waypoints)], true)
	}
	p.Corners = turns(p.Main.Cells(), p.Main)
	return p
}

// double draws two concentric rectangles and 2-3 bridges leaving one side of
// the outer ring.
func (g *PathGenerator) double() *Path {
	p := newPath(ShapeDouble)
	short := min(g.bounds.W, g.bounds.H)
	outer := g.rng.Range(5, 7)
	inner := g.rng.Range(12, 15)
	inner = min(inner, (short-1)/2-2)

	outerRing := g.rect(outer)
	for _, c := range outerRing {
		p.add(c, true)
	}
	p.Corners = append(p.Corners, rectCorners(g.bounds, outer)...)
	if inner <= outer+1 {
		return p
	}

	innerRing := g.rect(inner)
	for _, c := range innerRing {
		p.add(c, false)
	}
	p.Corners = append(p.Corners, rectCorners(g.bounds, inner)...)

	side := g.rng.Intn(4)
	sideCells := rectSide(g.bounds, outer, side)
	bridges := g.rng.Range(2, 3)
	for i := 0; i < bridges; i++ {
		start := sideCells[g.rng.Intn(len(sideCells))]
		to := nearest(start, innerRing)
		from := nearest(to, outerRing)
		g.route(p, from, to, false)
	}
	return p
}

// snake runs 3-5 straight legs of 8-15 cells from (2,2), turning a quarter
// each leg.
func (g *PathGenerator) snake() *Path {
	p := newPath(ShapeSnake)
	dirs := []world.Cell{world.East, world.North, world.West, world.South}
	cur := g.bounds.ClampInterior(world.C(2, 2))
	p.add(cur, true)

	legs := g.rng.Range(3, 5)
	for i := 0; i < legs; i++ {
		d := dirs[i%len(dirs)]
		length := g.rng.Range(8, 15)
		for s := 0; s < length; s++ {
			cur = g.bounds.ClampInterior(cur.Add(d))
			p.add(cur, true)
		}
		if i < legs-1 {
			p.Corners = append(p.Corners, cur)
		}
	}
	return p
}

// route connects a to b x first then y, inclusive.
func (g *PathGenerator) route(p *Path, a, b world.Cell, main bool) {
	cur := a
	for {
		p.add(cur, main)
		if cur == b {
			return
		}
		if cur.X != b.X {
			cur.X += world.Sign(b.X - cur.X)
		} else {
			cur.Y += world.Sign(b.Y - cur.Y)
		}
	}
}

// rect returns the perimeter of the rectangle inset by m, clockwise from the
// bottom-left corner without repeating it.
func (g *PathGenerator) rect(m int) []world.Cell {
	l, r := m, g.bounds.W-1-m
	bt, t := m, g.bounds.H-1-m
	var out []world.Cell
	for x := l; x <= r; x++ {
		out = append(out, world.C(x, bt))
	}
	for y := bt + 1; y <= t; y++ {
		out = append(out, world.C(r, y))
	}
	for x := r - 1; x >= l; x-- {
		out = append(out, world.C(x, t))
	}
	for y := t - 1; y > bt; y-- {
		out = append(out, world.C(l, y))
	}
	return out
}

func rectCorners(b world.Bounds, m int) []world.Cell {
	l, r, bt, t := m, b.W-1-m, m, b.H-1-m
	return []world.Cell{world.C(l, bt), world.C(r, bt), world.C(r, t), world.C(l, t)}
}

// rectSide returns one side of the inset rectangle: 0 bottom, 1 right, 2 top, 3 left.
func rectSide(b world.Bounds, m, side int) []world.Cell {
	l, r, bt, t := m, b.W-1-m, m, b.H-1-m
	var out []world.Cell
	switch side {
	case 0:
		for x := l; x <= r; x++ {
			out = append(out, world.C(x, bt))
		}
	case 1:
		for y := bt; y <= t; y++ {
			out = append(out, world.C(r, y))
		}
	case 2:
		for x := l; x <= r; x++ {
			out = append(out, world.C(x, t))
		}
	default:
		for y := bt; y <= t; y++ {
			out = append(out, world.C(l, y))
		}
	}
	return out
}

// nearest returns the first cell of cells with the smallest Manhattan distance to c.
func nearest(c world.Cell, cells []world.Cell) world.Cell {
	best, bestDist := cells[0], -1
	for _, o := range cells {
		if d := world.Manhattan(c, o); bestDist < 0 || d < bestDist {
			best, bestDist = o, d
		}
	}
	return best
}

// turns returns the cells of path where the direction changes.
func turns(path []world.Cell, set *world.CellSet) []world.Cell {
	var out []world.Cell
	for _, c := range path {
		horiz := set.Has(c.Add(world.East)) || set.Has(c.Add(world.West))
		vert := set.Has(c.Add(world.North)) || set.Has(c.Add(world.South))
		if horiz && vert && set.CountNeighbors(c) == 2 {
			out = append(out, c)
		}
	}
	return out
}

// FromPath turns a free-form path into a finished network.
func FromPath(b world.Bounds, p *Path) *Network {
	n := NewNetwork(b)
	p.Cells.Each(func(c world.Cell) {
		n.Add(c, p.Main.Has(c))
	})
	return n.Finish()
}
