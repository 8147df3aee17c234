package roads

import (
	"github.com/talgya/boardgen/internal/entropy"
	"github.com/talgya/boardgen/internal/world"
)

// Loop lays a single perimeter loop inset from the board edge, decorates each
// edge with rectangular bulges and sometimes adds long shortcuts.
func Loop(b world.Bounds, rng *entropy.Stream) *Network {
	n := NewNetwork(b)
	short := min(b.W, b.H)
	margin := max(2, short*8/100)

	left, right := margin, b.W-1-margin
	bottom, top := margin, b.H-1-margin

	if right-left < 2 || top-bottom < 2 {
		for x := 0; x < b.W; x++ {
			n.Add(world.C(x, 0), true)
			n.Add(world.C(x, b.H-1), true)
		}
		for y := 0; y < b.H; y++ {
			n.Add(world.C(0, y), true)
			n.Add(world.C(b.W-1, y), true)
		}
		return n.Finish()
	}

	for x := left; x <= right; x++ {
		n.Add(world.C(x, bottom), true)
	}
	for y := bottom + 1; y <= top-1; y++ {
		n.Add(world.C(right, y), true)
	}
	for x := right; x >= left; x-- {
		n.Add(world.C(x, top), true)
	}
	for y := top - 1; y >= bottom+1; y-- {
		n.Add(world.C(left, y), true)
	}

	type edge struct {
		start, end, axis world.Cell
		normals          [2]world.Cell
	}
	edges := []edge{
		{world.C(left, bottom), world.C(right, bottom), world.East, [2]world.Cell{world.South, world.North}},
		{world.C(right, bottom), world.C(right, top), world.North, [2]world.Cell{world.East, world.West}},
		{world.C(right, top), world.C(left, top), world.West, [2]world.Cell{world.North, world.South}},
		{world.C(left, top), world.C(left, bottom), world.South, [2]world.Cell{world.West, world.East}},
	}
	maxDepth := max(1, min(3, short*6/100))
	for _, e := range edges {
		addBulges(n, e.start, e.end, e.axis, e.normals, maxDepth, rng)
	}

	if rng.Chance(0.6) {
		count := 1
		if rng.Chance(0.4) {
			count = 2
		}
		addShortcuts(n, count, rng)
	}
	return n.Finish()
}

func addBulges(n *Network, start, end, axis world.Cell, normals [2]world.Cell, maxDepth int, rng *entropy.Stream) {
	const (
		minLen, maxLen = 3, 6
		minGap         = 4
	)
	bulges := rng.Range(3, 5)
	axisLen := world.Manhattan(start, end)
	if axisLen < 8 {
		return
	}

	var anchors []int
	for tries := 0; len(anchors) < bulges && tries < 20; tries++ {
		a := 1 + rng.Intn(axisLen-2)
		ok := true
		for _, o := range anchors {
			if abs(o-a) < minGap {
				ok = false
				break
			}
		}
		if ok {
			anchors = append(anchors, a)
		}
	}

	for _, a := range anchors {
		length := rng.Range(minLen, maxLen)
		depth := rng.Range(1, maxDepth)
		normal := normals[rng.Intn(len(normals))]

		anchor := start.Add(axis.Scale(a))
		p1 := anchor.Add(normal.Scale(depth))
		p2 := p1.Add(axis.Scale(length))
		p3 := p2.Add(normal.Neg().Scale(depth))
		if inBounds(n.Bounds, anchor, p1) && inBounds(n.Bounds, p1, p2) && inBounds(n.Bounds, p2, p3) {
			n.Stitch(anchor, p1, false)
			n.Stitch(p1, p2, false)
			n.Stitch(p2, p3, false)
		}
	}
}

// addShortcuts joins random road cells to distant road cells.
func addShortcuts(n *Network, count int, rng *entropy.Stream) {
	cells := n.Roads.Cells()
	if len(cells) < 12 {
		return
	}
	for i := 0; i < count; i++ {
		p1 := cells[rng.Intn(len(cells))]
		best, bestDist := p1, 0
		for j := 0; j < 30; j++ {
			p2 := cells[rng.Intn(len(cells))]
			if p2 == p1 {
				continue
			}
			if d := world.Manhattan(p1, p2); d > bestDist {
				best, bestDist = p2, d
			}
		}
		if best != p1 && bestDist > 6 {
			n.Connect(p1, best, false)
		}
	}
}

// inBounds reports whether an axis-aligned segment lies on the board; the
// board is convex, so its ends decide.
func inBounds(b world.Bounds, from, to world.Cell) bool {
	return b.Contains(from) && b.Contains(to)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
