package parcels

import (
	"log/slog"
	"math"

	"github.com/talgya/boardgen/internal/entropy"
	"github.com/talgya/boardgen/internal/templates"
	"github.com/talgya/boardgen/internal/world"
)

// Ring placement rules.
const (
	longSegment      = 7 // segments this long keep a one-cell end buffer
	shortCornerLimit = 5 // a pure turn between segments at most this long keeps its close pair
	smallGap         = 2 // same-side small parcels stay at least this many indices apart
)

const (
	sideOut = 0
	sideIn  = 1
)

// Segment is a maximal straight run of the ring path. Start and End index the
// closed path and End is the corner shared with the next segment.
type Segment struct {
	Start, End int
	Dir        world.Cell
	Normal     world.Cell // points away from the ring's centre
}

// Len returns the number of cells in the run, both corners included.
func (s Segment) Len() int {
	return s.End - s.Start + 1
}

// smallSlot is one accepted 1x1 placement.
type smallSlot struct {
	seg, side, idx int
	cell           world.Cell
	removed        bool
}

// RingPlacer follows a template's outer ring: 2x2 parcels on long straight runs
// outside the ring, then 1x1 parcels on both sides at a randomized stride.
type RingPlacer struct {
	bounds world.Bounds
	roads  *world.CellSet
	ring   templates.BuiltRing
	quotas templates.Quotas

	path     []world.Cell
	segments []Segment
	occupied *world.CellSet
	blocked  [2]map[int]bool
	accepted [2]map[int]bool
	small    []smallSlot
}

// NewRingPlacer creates a rule-based placer for the outer ring of a template build.
func NewRingPlacer(b world.Bounds, roads *world.CellSet, outer templates.BuiltRing, q templates.Quotas) *RingPlacer {
	return &RingPlacer{bounds: b, roads: roads, ring: outer, quotas: q}
}

func (p *RingPlacer) Name() string { return "ring" }

// Place runs the 2x2 pass, the 1x1 pass, corner correction, and when the 1x1
// count is short of its minimum, the booster followed by another correction.
func (p *RingPlacer) Place(rng *entropy.Stream) []Parcel {
	p.occupied = world.NewCellSet()
	p.blocked = [2]map[int]bool{{}, {}}
	p.accepted = [2]map[int]bool{{}, {}}
	p.small = nil

	p.path, p.segments = Segments(p.ring.Path, p.ring.BBox)
	if len(p.segments) == 0 {
		return nil
	}
	ringLen := len(p.ring.Path)

	out := p.placeBig(rng)

	target := int(float64(ringLen) * rng.Uniform(p.quotas.SmallRatio[0], p.quotas.SmallRatio[1]))
	minimum := int(float64(ringLen) * p.quotas.SmallRatio[0])
	p.placeSmall(rng, target)
	p.correctCorners()

	if p.smallCount() < minimum {
		slog.Debug("boosting small parcels", "have", p.smallCount(), "minimum", minimum)
		p.boost(minimum, false)
		if p.smallCount() < minimum {
			p.boost(minimum, true)
		}
		p.correctCorners()
	}

	for _, s := range p.small {
		if !s.removed {
			out = append(out, newParcel(s.cell, Size1x1))
		}
	}
	assignValues(out, rng)
	return out
}

// Segments rotates a closed ring path to start on a corner, closes it by
// repeating the first cell, and splits it into straight runs.
func Segments(path []world.Cell, bb templates.BBox) ([]world.Cell, []Segment) {
	n := len(path)
	if n < 2 {
		return nil, nil
	}
	dir := func(i int) world.Cell {
		a, b := path[i%n], path[(i+1)%n]
		return world.C(b.X-a.X, b.Y-a.Y)
	}
	rot := 0
	for i := 0; i < n; i++ {
		if dir(i+n-1) != dir(i) {
			rot = i
			break
		}
	}
	closed := make([]world.Cell, 0, n+1)
	closed = append(closed, path[rot:]...)
	closed = append(closed, path[:rot]...)
	closed = append(closed, closed[0])

	var segs []Segment
	step := func(i int) world.Cell {
		return world.C(closed[i+1].X-closed[i].X, closed[i+1].Y-closed[i].Y)
	}
	start, d := 0, step(0)
	for i := 1; i < n; i++ {
		if s := step(i); s != d {
			segs = append(segs, Segment{Start: start, End: i, Dir: d})
			start, d = i, s
		}
	}
	segs = append(segs, Segment{Start: start, End: n, Dir: d})
	for i := range segs {
		segs[i].Normal = outwardNormal(closed[segs[i].Start], segs[i].Dir, bb)
	}
	return closed, segs
}

// outwardNormal picks the side of a run facing away from the ring's centre,
// using the bounding box edges first.
func outwardNormal(c, dir world.Cell, bb templates.BBox) world.Cell {
	if dir.X != 0 {
		switch {
		case c.Y == bb.MinY:
			return world.South
		case c.Y == bb.MaxY:
			return world.North
		case 2*c.Y < bb.MinY+bb.MaxY:
			return world.South
		default:
			return world.North
		}
	}
	switch {
	case c.X == bb.MinX:
		return world.West
	case c.X == bb.MaxX:
		return world.East
	case 2*c.X < bb.MinX+bb.MaxX:
		return world.West
	default:
		return world.East
	}
}

func (p *RingPlacer) taken(c world.Cell) bool {
	return !p.bounds.Interior(c) || p.roads.Has(c) || p.occupied.Has(c)
}

func (p *RingPlacer) normal(seg Segment, side int) world.Cell {
	if side == sideIn {
		return seg.Normal.Neg()
	}
	return seg.Normal
}

// placeBig scans the interior of every long straight run for 2x2 anchors one
// cell outside the ring.
func (p *RingPlacer) placeBig(rng *entropy.Stream) []Parcel {
	target := rng.Range(p.quotas.BigCount[0], p.quotas.BigCount[1])
	minStraight := max(3, p.quotas.MinStraight)
	var out []Parcel
	var placed []int

	for _, seg := range p.segments {
		if seg.Len() < minStraight {
			continue
		}
		for i := seg.Start + 1; i <= seg.End-2 && len(out) < target; i++ {
			if tooClose(placed, i, p.quotas.MinBigSpacing) {
				continue
			}
			n := seg.Normal
			a, b := p.path[i], p.path[i+1]
			cells := []world.Cell{a.Add(n), b.Add(n), a.Add(n.Scale(2)), b.Add(n.Scale(2))}
			anchor := cells[0]
			for _, c := range cells[1:] {
				anchor = world.C(min(anchor.X, c.X), min(anchor.Y, c.Y))
			}
			if !CanPlace2x2(p.bounds, anchor, p.taken) {
				continue
			}
			parcel := newParcel(anchor, Size2x2)
			p.occupied.AddAll(parcel.Footprint())
			out = append(out, parcel)
			placed = append(placed, i)
			for j := i - 1; j <= i+2; j++ {
				p.blocked[sideOut][j] = true
			}
		}
	}
	return out
}

func tooClose(placed []int, i, spacing int) bool {
	for _, j := range placed {
		if abs(j-i) < spacing {
			return true
		}
	}
	return false
}

// placeSmall walks both sides of every segment at a stride redrawn after each
// accepted parcel, from a random phase. The target is shared out per segment and
// side in proportion to segment length; segments of four or more cells get at
// least one parcel per side wherever a free index remains.
func (p *RingPlacer) placeSmall(rng *entropy.Stream, target int) {
	lo, hi := p.quotas.SmallStride[0], p.quotas.SmallStride[1]
	ringLen := len(p.ring.Path)
	last := [2]int{-smallGap, -smallGap}
	for si, seg := range p.segments {
		buf := 0
		if seg.Len() >= longSegment {
			buf = 1
		}
		budget := int(math.Round(float64(target) * float64(seg.Len()-1) / float64(2*ringLen)))
		if seg.Len() >= 4 {
			budget = max(budget, 1)
		}
		for side := sideOut; side <= sideIn; side++ {
			placed := 0
			stride := rng.Range(lo, hi)
			i := seg.Start + buf + rng.Intn(stride)
			for i <= seg.End-1-buf && placed < budget {
				if abs(i-last[side]) >= smallGap && p.tryPlace(si, side, i) {
					last[side] = i
					placed++
					stride = rng.Range(lo, hi)
					i += stride
					continue
				}
				i++
			}
			if placed == 0 && budget > 0 {
				for i := seg.Start + buf; i <= seg.End-1-buf; i++ {
					if abs(i-last[side]) >= smallGap && p.tryPlace(si, side, i) {
						last[side] = i
						break
					}
				}
			}
		}
	}
}

// tryPlace checks the buffer, anti-mirroring and occupancy rules for index i.
func (p *RingPlacer) tryPlace(si, side, i int) bool {
	if p.blocked[side][i] || p.accepted[1-side][i] {
		return false
	}
	c := p.path[i].Add(p.normal(p.segments[si], side))
	if p.taken(c) {
		return false
	}
	p.occupied.Add(c)
	p.accepted[side][i] = true
	p.small = append(p.small, smallSlot{seg: si, side: side, idx: i, cell: c})
	return true
}

func (p *RingPlacer) smallCount() int {
	n := 0
	for _, s := range p.small {
		if !s.removed {
			n++
		}
	}
	return n
}

// boost rescans short segments at stride 1. The first level keeps a one-cell
// end buffer on segments of four or more cells; the relaxed level drops it.
func (p *RingPlacer) boost(minimum int, relaxed bool) {
	for side := sideOut; side <= sideIn; side++ {
		for si, seg := range p.segments {
			if seg.Len() >= longSegment {
				continue
			}
			buf := 0
			if !relaxed && seg.Len() >= 4 {
				buf = 1
			}
			for i := seg.Start + buf; i <= seg.End-1-buf; i++ {
				if p.smallCount() >= minimum {
					return
				}
				if p.spacedFromSide(side, i) {
					p.tryPlace(si, side, i)
				}
			}
		}
	}
}

// spacedFromSide checks i against every accepted index on the side.
func (p *RingPlacer) spacedFromSide(side, i int) bool {
	for j := range p.accepted[side] {
		if abs(i-j) < smallGap {
			return false
		}
	}
	return true
}

// correctCorners removes the outgoing parcel of any pair hugging a corner. A
// pure right-angle turn between two short segments keeps its pair.
func (p *RingPlacer) correctCorners() {
	if len(p.segments) < 2 {
		return
	}
	for k, in := range p.segments {
		outIdx := (k + 1) % len(p.segments)
		out := p.segments[outIdx]

		inSlot := p.nearestToCorner(k, func(s smallSlot) int { return in.End - s.idx })
		outSlot := p.nearestToCorner(outIdx, func(s smallSlot) int { return s.idx - out.Start })
		if inSlot < 0 || outSlot < 0 {
			continue
		}
		dist := (in.End - p.small[inSlot].idx) + (p.small[outSlot].idx - out.Start)
		if dist > 1 {
			continue
		}
		corner := p.path[in.End]
		if in.Len() <= shortCornerLimit && out.Len() <= shortCornerLimit &&
			p.roads.CountNeighbors(corner) == 2 {
			continue
		}
		p.remove(outSlot)
	}
}

// nearestToCorner returns the live slot of segment seg with the smallest offset.
func (p *RingPlacer) nearestToCorner(seg int, offset func(smallSlot) int) int {
	best := -1
	for i, s := range p.small {
		if s.removed || s.seg != seg {
			continue
		}
		if best < 0 || offset(s) < offset(p.small[best]) {
			best = i
		}
	}
	return best
}

func (p *RingPlacer) remove(i int) {
	s := &p.small[i]
	s.removed = true
	p.occupied.Remove(s.cell)
	delete(p.accepted[s.side], s.idx)
	slog.Debug("corner parcel removed", "cell", s.cell)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
