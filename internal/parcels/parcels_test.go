package parcels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/boardgen/internal/entropy"
	"github.com/talgya/boardgen/internal/roads"
	"github.com/talgya/boardgen/internal/templates"
	"github.com/talgya/boardgen/internal/world"
)

var board = world.Bounds{W: 40, H: 40}

func nothingTaken(world.Cell) bool { return false }

func TestCanPlace2x2_RejectsTopRightCorner(t *testing.T) {
	for _, b := range []world.Bounds{{W: 20, H: 20}, {W: 40, H: 33}, {W: 100, H: 100}} {
		assert.False(t, CanPlace2x2(b, world.C(b.W-1, b.H-1), nothingTaken))
		assert.True(t, CanPlace2x2(b, world.C(b.W-2, b.H-2), nothingTaken))
	}
}

func TestCanPlace2x2_RespectsTaken(t *testing.T) {
	blocked := world.NewCellSet(world.C(6, 6))
	assert.False(t, CanPlace2x2(board, world.C(5, 5), blocked.Has))
	assert.True(t, CanPlace2x2(board, world.C(7, 7), blocked.Has))
}

func TestFootprint(t *testing.T) {
	assert.Len(t, newParcel(world.C(3, 3), Size1x1).Footprint(), 1)
	assert.ElementsMatch(t,
		[]world.Cell{world.C(3, 3), world.C(4, 3), world.C(3, 4), world.C(4, 4)},
		newParcel(world.C(3, 3), Size2x2).Footprint())
	assert.Equal(t, "2x2", Size2x2.String())
}

func assertPlacementValid(t *testing.T, ps []Parcel, roadSet *world.CellSet) {
	t.Helper()
	seen := world.NewCellSet()
	for _, p := range ps {
		require.GreaterOrEqual(t, p.Value, 500)
		require.Less(t, p.Value, 4000)
		require.Equal(t, NoRegion, p.Region)
		for _, c := range p.Footprint() {
			require.True(t, board.Contains(c), "footprint %v off board", c)
			require.False(t, roadSet.Has(c), "footprint %v on road", c)
			require.True(t, seen.Add(c), "footprint %v overlaps", c)
		}
	}
}

func TestRandomPlacer(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		net := roads.Classic(board, 0.2, entropy.New(seed))
		placer := NewRandomPlacer(board, net.Roads, DefaultRandomConfig())
		ps := placer.Place(entropy.New(seed))

		assertPlacementValid(t, ps, net.Roads)
		assert.LessOrEqual(t, len(ps), net.Len()/2)
		assert.NotEmpty(t, ps)
		for _, p := range ps {
			access := false
			for _, c := range p.Footprint() {
				access = access || net.Roads.Touches(c)
			}
			assert.True(t, access, "parcel %v has no road access", p.Anchor)
			assert.True(t, board.Interior(p.Anchor))
		}
	}
}

func TestRandomPlacer_MinSpacing(t *testing.T) {
	net := roads.Loop(board, entropy.New(3))
	cfg := DefaultRandomConfig()
	cfg.MinSpacing = 1
	ps := NewRandomPlacer(board, net.Roads, cfg).Place(entropy.New(3))
	require.NotEmpty(t, ps)

	for i, a := range ps {
		for j, b := range ps {
			if i == j {
				continue
			}
			for _, ca := range a.Footprint() {
				for _, cb := range b.Footprint() {
					require.Greater(t, world.Chebyshev(ca, cb), 1)
				}
			}
		}
	}
}

func TestRandomPlacer_NoRoads(t *testing.T) {
	ps := NewRandomPlacer(board, world.NewCellSet(), DefaultRandomConfig()).Place(entropy.New(1))
	assert.Empty(t, ps)
}

func TestRandomPlacer_Deterministic(t *testing.T) {
	net := roads.Growth(board, 0.25, entropy.New(21))
	a := NewRandomPlacer(board, net.Roads, DefaultRandomConfig()).Place(entropy.New(21))
	b := NewRandomPlacer(board, net.Roads, DefaultRandomConfig()).Place(entropy.New(21))
	assert.Equal(t, a, b)
}

// rectPath is the ring around (x0,y0)-(x1,y1) starting bottom-left,
// counter-clockwise.
func rectPath(x0, y0, x1, y1 int) []world.Cell {
	var path []world.Cell
	for x := x0; x <= x1; x++ {
		path = append(path, world.C(x, y0))
	}
	for y := y0 + 1; y <= y1; y++ {
		path = append(path, world.C(x1, y))
	}
	for x := x1 - 1; x >= x0; x-- {
		path = append(path, world.C(x, y1))
	}
	for y := y1 - 1; y > y0; y-- {
		path = append(path, world.C(x0, y))
	}
	return path
}

// squarePath is the 5x5 ring (5,5)-(9,9).
func squarePath() []world.Cell {
	return rectPath(5, 5, 9, 9)
}

func TestSegments(t *testing.T) {
	path := squarePath()
	closed, segs := Segments(path, templates.BBox{MinX: 5, MaxX: 9, MinY: 5, MaxY: 9})

	require.Len(t, closed, len(path)+1)
	assert.Equal(t, closed[0], closed[len(closed)-1])
	require.Len(t, segs, 4)
	assert.Equal(t, Segment{Start: 0, End: 4, Dir: world.East, Normal: world.South}, segs[0])
	assert.Equal(t, Segment{Start: 4, End: 8, Dir: world.North, Normal: world.East}, segs[1])
	assert.Equal(t, Segment{Start: 8, End: 12, Dir: world.West, Normal: world.North}, segs[2])
	assert.Equal(t, Segment{Start: 12, End: 16, Dir: world.South, Normal: world.West}, segs[3])
	for _, s := range segs {
		assert.Equal(t, 5, s.Len())
	}
}

func TestSegments_RotatesToCorner(t *testing.T) {
	path := squarePath()
	shifted := append(append([]world.Cell{}, path[2:]...), path[:2]...)
	closed, segs := Segments(shifted, templates.BBox{MinX: 5, MaxX: 9, MinY: 5, MaxY: 9})
	assert.Equal(t, world.C(9, 5), closed[0], "rotated to the first corner")
	assert.Len(t, segs, 4)
}

// cornerFixture places a close pair at the (9,5) and (9,9) corners of the
// square ring, with extra road cells added to the network.
func cornerFixture(t *testing.T, extraRoads ...world.Cell) *RingPlacer {
	t.Helper()
	path := squarePath()
	ring := templates.BuiltRing{Kind: templates.RingOuter, Path: path, BBox: templates.BBox{MinX: 5, MaxX: 9, MinY: 5, MaxY: 9}}
	roadSet := world.NewCellSet(path...)
	roadSet.AddAll(extraRoads)
	p := NewRingPlacer(world.Bounds{W: 20, H: 20}, roadSet, ring, templates.Quotas{})
	p.path, p.segments = Segments(path, ring.BBox)
	p.occupied = world.NewCellSet()
	p.blocked = [2]map[int]bool{{}, {}}
	p.accepted = [2]map[int]bool{{}, {}}

	require.True(t, p.tryPlace(0, sideOut, 3)) // (8,4)
	require.True(t, p.tryPlace(1, sideOut, 4)) // (10,5)
	require.True(t, p.tryPlace(1, sideIn, 7))  // (8,8)
	require.True(t, p.tryPlace(2, sideOut, 8)) // (9,10)
	return p
}

func TestCorrectCorners_KeepsEveryPurePair(t *testing.T) {
	p := cornerFixture(t)
	p.correctCorners()

	assert.Equal(t, 4, p.smallCount())
	assert.True(t, p.occupied.Has(world.C(10, 5)))
	assert.True(t, p.occupied.Has(world.C(9, 10)))
}

func TestCorrectCorners_RemovesPairAtJunction(t *testing.T) {
	p := cornerFixture(t, world.C(10, 9))
	p.correctCorners()

	assert.Equal(t, 3, p.smallCount())
	assert.True(t, p.occupied.Has(world.C(10, 5)), "pure corner keeps its pair")
	assert.False(t, p.occupied.Has(world.C(9, 10)), "corner with a third road neighbour loses its outgoing parcel")
	assert.False(t, p.accepted[sideOut][8])
}

func TestTryPlace_AntiMirror(t *testing.T) {
	path := squarePath()
	ring := templates.BuiltRing{Kind: templates.RingOuter, Path: path, BBox: templates.BBox{MinX: 5, MaxX: 9, MinY: 5, MaxY: 9}}
	p := NewRingPlacer(world.Bounds{W: 20, H: 20}, world.NewCellSet(path...), ring, templates.Quotas{})
	p.path, p.segments = Segments(path, ring.BBox)
	p.occupied = world.NewCellSet()
	p.blocked = [2]map[int]bool{{}, {}}
	p.accepted = [2]map[int]bool{{}, {}}

	require.True(t, p.tryPlace(0, sideOut, 2))
	assert.False(t, p.tryPlace(0, sideIn, 2), "mirrored index is taken on the other side")
	assert.True(t, p.tryPlace(0, sideIn, 3))
}

func TestRingPlacer_Templates(t *testing.T) {
	for _, tpl := range templates.List() {
		t.Run(tpl.ID, func(t *testing.T) {
			for seed := int64(1); seed <= 6; seed++ {
				rng := entropy.New(seed)
				build := templates.NewBuilder(board, rng).Build(tpl.Scaled(board))
				net := roads.FromTemplate(board, build)
				outer := build.Outer()
				require.NotNil(t, outer)

				ps := NewRingPlacer(board, net.Roads, *outer, tpl.Quotas).Place(rng)
				assertPlacementValid(t, ps, net.Roads)

				for _, p := range ps {
					for _, c := range p.Footprint() {
						require.True(t, board.Interior(c))
					}
				}
			}
		})
	}
}

func TestRingPlacer_BigParcelsOutsideSquareRing(t *testing.T) {
	tpl, err := templates.ByID(templates.SquareRing)
	require.NoError(t, err)
	rng := entropy.New(5)
	build := templates.NewBuilder(board, rng).Build(tpl.Scaled(board))
	outer := build.Outer()
	ps := NewRingPlacer(board, build.Roads, *outer, tpl.Quotas).Place(rng)

	bigs, smalls := 0, 0
	for _, p := range ps {
		if p.Size == Size2x2 {
			bigs++
			for _, c := range p.Footprint() {
				outside := c.X < outer.BBox.MinX || c.X > outer.BBox.MaxX || c.Y < outer.BBox.MinY || c.Y > outer.BBox.MaxY
				assert.True(t, outside, "2x2 cell %v inside ring", c)
			}
			assert.Equal(t, DefaultPrice2x2, p.Price)
		} else {
			smalls++
		}
	}
	assert.GreaterOrEqual(t, bigs, tpl.Quotas.BigCount[0]-1)
	assert.LessOrEqual(t, bigs, tpl.Quotas.BigCount[1])
	assert.Greater(t, smalls, 0)
}

func TestRingPlacer_Deterministic(t *testing.T) {
	tpl, _ := templates.ByID(templates.DoubleRingTwoBridges)
	run := func() []Parcel {
		rng := entropy.New(99)
		build := templates.NewBuilder(board, rng).Build(tpl.Scaled(board))
		return NewRingPlacer(board, build.Roads, *build.Outer(), tpl.Quotas).Place(rng)
	}
	assert.Equal(t, run(), run())
}

// sideCounts tallies live small parcels per segment and side.
func sideCounts(p *RingPlacer) map[int][2]int {
	counts := make(map[int][2]int)
	for _, s := range p.small {
		if s.removed {
			continue
		}
		c := counts[s.seg]
		c[s.side]++
		counts[s.seg] = c
	}
	return counts
}

func TestRingPlacer_SmallParcelsOnBothSides(t *testing.T) {
	for _, tpl := range templates.List() {
		t.Run(tpl.ID, func(t *testing.T) {
			for seed := int64(1); seed <= 10; seed++ {
				rng := entropy.New(seed)
				build := templates.NewBuilder(board, rng).Build(tpl.Scaled(board))
				net := roads.FromTemplate(board, build)
				p := NewRingPlacer(board, net.Roads, *build.Outer(), tpl.Quotas)
				p.Place(rng)

				counts := sideCounts(p)
				for si, seg := range p.segments {
					if seg.Len() < longSegment {
						continue
					}
					for side := sideOut; side <= sideIn; side++ {
						if counts[si][side] == 0 {
							assert.Negative(t, placeableIndex(p, si, side),
								"seed %d segment %d side %d left empty", seed, si, side)
						}
					}
				}
			}
		})
	}
}

// placeableIndex returns an index of the segment where a small parcel could
// still go on the given side, or -1.
func placeableIndex(p *RingPlacer, si, side int) int {
	seg := p.segments[si]
	for i := seg.Start + 1; i <= seg.End-2; i++ {
		if p.blocked[side][i] || p.accepted[1-side][i] || !p.spacedFromSide(side, i) {
			continue
		}
		if !p.taken(p.path[i].Add(p.normal(seg, side))) {
			return i
		}
	}
	return -1
}

func TestRingPlacer_SquareRingSidesBalanced(t *testing.T) {
	tpl, err := templates.ByID(templates.SquareRing)
	require.NoError(t, err)
	for seed := int64(1); seed <= 10; seed++ {
		rng := entropy.New(seed)
		build := templates.NewBuilder(board, rng).Build(tpl.Scaled(board))
		p := NewRingPlacer(board, build.Roads, *build.Outer(), tpl.Quotas)
		p.Place(rng)

		var out, in int
		for _, c := range sideCounts(p) {
			out += c[sideOut]
			in += c[sideIn]
		}
		assert.Positive(t, in, "seed %d", seed)
		assert.GreaterOrEqual(t, 2*in, out, "seed %d: outer %d inner %d", seed, out, in)
		assert.GreaterOrEqual(t, 2*out, in, "seed %d: outer %d inner %d", seed, out, in)
	}
}

func TestBoost_SkipsLongSegments(t *testing.T) {
	path := rectPath(5, 5, 13, 9)
	bb := templates.BBox{MinX: 5, MaxX: 13, MinY: 5, MaxY: 9}
	ring := templates.BuiltRing{Kind: templates.RingOuter, Path: path, BBox: bb}
	p := NewRingPlacer(world.Bounds{W: 20, H: 20}, world.NewCellSet(path...), ring, templates.Quotas{})
	p.path, p.segments = Segments(path, bb)
	p.occupied = world.NewCellSet()
	p.blocked = [2]map[int]bool{{}, {}}
	p.accepted = [2]map[int]bool{{}, {}}
	require.Len(t, p.segments, 4)
	require.Equal(t, 9, p.segments[0].Len())
	require.Equal(t, 5, p.segments[1].Len())

	p.boost(100, false)
	level1 := len(p.small)
	p.boost(100, true)
	require.Greater(t, level1, 0)
	assert.Greater(t, len(p.small), level1, "relaxed level reaches the end cells")
	for _, s := range p.small {
		assert.Contains(t, []int{1, 3}, s.seg, "long segment %d rescanned", s.seg)
	}
}
