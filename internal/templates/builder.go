package templates

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/talgya/boardgen/internal/entropy"
	"github.com/talgya/boardgen/internal/world"
)

// Anti-parallel pass thresholds.
const (
	parallelGap     = 2 // centre distance between runs that get a bump
	parallelMinRun  = 7 // minimum overlap length
	anchorQuartiles = 4
)

// Builder turns a template into road cells on a concrete board.
type Builder struct {
	bounds world.Bounds
	rng    *entropy.Stream
}

// NewBuilder creates a builder drawing from rng.
func NewBuilder(bounds world.Bounds, rng *entropy.Stream) *Builder {
	return &Builder{bounds: bounds, rng: rng}
}

// Build jitters and routes every ring, routes the bridges, then breaks up long
// outer/inner parallels. The template must already be scaled to the board.
func (b *Builder) Build(t Template) *Build {
	out := &Build{
		Roads:     world.NewCellSet(),
		RingIndex: make(map[world.Cell]int),
	}

	for idx, ring := range t.Rings {
		verts := make([]world.Cell, len(ring.Verts))
		for i, v := range ring.Verts {
			verts[i] = b.bounds.ClampInterior(b.jitter(v, ring.Jitter))
		}

		var path []world.Cell
		for i := range verts {
			seg := b.manhattan(verts[i], verts[(i+1)%len(verts)])
			if len(path) > 0 && len(seg) > 0 && path[len(path)-1] == seg[0] {
				seg = seg[1:]
			}
			path = append(path, seg...)
		}
		if len(path) > 1 && path[len(path)-1] == path[0] {
			path = path[:len(path)-1]
		}

		for _, c := range path {
			out.Roads.Add(c)
			out.RingIndex[c] = idx
		}
		out.Rings = append(out.Rings, BuiltRing{Kind: ring.Kind, Path: path, BBox: bboxOf(path)})
	}

	for _, br := range t.Bridges {
		from, ok1 := anchor(out.Rings, br.From)
		to, ok2 := anchor(out.Rings, br.To)
		if !ok1 || !ok2 {
			slog.Debug("bridge skipped", "template", t.ID, "from", br.From, "to", br.To)
			continue
		}
		out.Roads.AddAll(b.manhattan(from, to))
	}

	b.breakParallels(out)
	return out
}

func (b *Builder) jitter(v world.Cell, j [2]int) world.Cell {
	if j[1] <= 0 {
		return v
	}
	jx := b.rng.Range(j[0], j[1]) * b.rng.Sign()
	jy := b.rng.Range(j[0], j[1]) * b.rng.Sign()
	return world.C(v.X+jx, v.Y+jy)
}

// manhattan routes a to b with two legs; a coin flip picks horizontal first.
func (b *Builder) manhattan(from, to world.Cell) []world.Cell {
	var mid world.Cell
	if b.rng.Float() < 0.5 {
		mid = world.C(to.X, from.Y)
	} else {
		mid = world.C(from.X, to.Y)
	}
	pts := b.line(from, mid)
	tail := b.line(mid, to)
	if len(pts) > 0 && len(tail) > 0 && pts[len(pts)-1] == tail[0] {
		tail = tail[1:]
	}
	return append(pts, tail...)
}

// line walks an axis-aligned segment including both ends, clamping every
// point to the interior and dropping repeats the clamp creates.
func (b *Builder) line(from, to world.Cell) []world.Cell {
	var pts []world.Cell
	cur := from
	for {
		p := b.bounds.ClampInterior(cur)
		if len(pts) == 0 || pts[len(pts)-1] != p {
			pts = append(pts, p)
		}
		if cur == to {
			return pts
		}
		if cur.X != to.X {
			cur.X += world.Sign(to.X - cur.X)
		} else {
			cur.Y += world.Sign(to.Y - cur.Y)
		}
	}
}

// anchor resolves "kind@slot" against the first ring of that kind.
func anchor(rings []BuiltRing, ref string) (world.Cell, bool) {
	kind, slotStr, _ := strings.Cut(ref, "@")
	slot, err := strconv.Atoi(slotStr)
	if err != nil {
		slot = 1
	}
	slot = max(1, min(anchorQuartiles, slot))
	for _, r := range rings {
		if string(r.Kind) != kind || len(r.Path) == 0 {
			continue
		}
		i := (slot * len(r.Path) / anchorQuartiles) % len(r.Path)
		return r.Path[i], true
	}
	return world.Cell{}, false
}

func bboxOf(path []world.Cell) BBox {
	if len(path) == 0 {
		return BBox{}
	}
	bb := BBox{MinX: path[0].X, MaxX: path[0].X, MinY: path[0].Y, MaxY: path[0].Y}
	for _, c := range path[1:] {
		bb.MinX = min(bb.MinX, c.X)
		bb.MaxX = max(bb.MaxX, c.X)
		bb.MinY = min(bb.MinY, c.Y)
		bb.MaxY = max(bb.MaxY, c.Y)
	}
	return bb
}

// run is a maximal straight stretch of a path.
type run struct {
	pts []world.Cell
	dir world.Cell
}

func runsOf(path []world.Cell) []run {
	if len(path) < 2 {
		return nil
	}
	dirAt := func(i int) world.Cell {
		return world.C(path[i+1].X-path[i].X, path[i+1].Y-path[i].Y)
	}
	var runs []run
	start, dir := 0, dirAt(0)
	for i := 1; i < len(path)-1; i++ {
		if d := dirAt(i); d != dir {
			runs = append(runs, run{pts: path[start : i+1], dir: dir})
			start, dir = i, d
		}
	}
	return append(runs, run{pts: path[start:], dir: dir})
}

// overlap returns the shared span of two coordinate ranges.
func overlap(a, b []int) (start, length int) {
	aMin, aMax := minMax(a)
	bMin, bMax := minMax(b)
	start = max(aMin, bMin)
	return start, min(aMax, bMax) - start + 1
}

func minMax(xs []int) (lo, hi int) {
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	return lo, hi
}

func xsOf(pts []world.Cell) []int {
	out := make([]int, len(pts))
	for i, p := range pts {
		out[i] = p.X
	}
	return out
}

func ysOf(pts []world.Cell) []int {
	out := make([]int, len(pts))
	for i, p := range pts {
		out[i] = p.Y
	}
	return out
}

// breakParallels adds a detour on the inner run wherever an outer and an inner
// run travel side by side two cells apart for at least parallelMinRun cells.
func (b *Builder) breakParallels(out *Build) {
	outerIdx, innerIdx := -1, -1
	for i, r := range out.Rings {
		if r.Kind == RingOuter && outerIdx < 0 {
			outerIdx = i
		}
		if r.Kind == RingInner && innerIdx < 0 {
			innerIdx = i
		}
	}
	if outerIdx < 0 || innerIdx < 0 {
		return
	}

	outerRuns := runsOf(out.Rings[outerIdx].Path)
	innerRuns := runsOf(out.Rings[innerIdx].Path)
	for _, a := range outerRuns {
		for _, r := range innerRuns {
			if a.dir.Y == 0 && r.dir.Y == 0 {
				dy := r.pts[0].Y - a.pts[0].Y
				if dy == parallelGap || dy == -parallelGap {
					start, n := overlap(xsOf(a.pts), xsOf(r.pts))
					if n >= parallelMinRun {
						base := world.C(start+n/2, r.pts[0].Y)
						b.bump(out.Roads, base, world.East, world.C(0, world.Sign(dy)), b.rng.Range(2, 3))
					}
				}
			}
			if a.dir.X == 0 && r.dir.X == 0 {
				dx := r.pts[0].X - a.pts[0].X
				if dx == parallelGap || dx == -parallelGap {
					start, n := overlap(ysOf(a.pts), ysOf(r.pts))
					if n >= parallelMinRun {
						base := world.C(r.pts[0].X, start+n/2)
						b.bump(out.Roads, base, world.North, world.C(world.Sign(dx), 0), b.rng.Range(2, 3))
					}
				}
			}
		}
	}
}

// bump steps one cell along normal, length cells along axis, and back.
func (b *Builder) bump(roads *world.CellSet, base, axis, normal world.Cell, length int) {
	p1 := base.Add(normal)
	p2 := p1.Add(axis.Scale(length))
	p3 := p2.Add(normal.Neg())
	roads.AddAll(b.line(base, p1))
	roads.AddAll(b.line(p1, p2))
	roads.AddAll(b.line(p2, p3))
}
