package templates

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/boardgen/internal/entropy"
	"github.com/talgya/boardgen/internal/world"
)

func TestCatalogIDs(t *testing.T) {
	assert.Equal(t, []string{
		"DoubleRing+2Bridges",
		"SingleRing",
		"LargeOuter+SmallInner+3Bridges",
		"IrregularDoubleRing",
		"SquareRing",
	}, IDs())
}

func TestByID_NotFound(t *testing.T) {
	_, err := ByID("Nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Nope", nf.ID)
}

func TestByID_Found(t *testing.T) {
	tpl, err := ByID(SingleRing)
	require.NoError(t, err)
	assert.Equal(t, SingleRing, tpl.ID)
	assert.Len(t, tpl.Rings, 1)
}

func TestCatalogReturnsCopies(t *testing.T) {
	a, _ := ByID(SquareRing)
	a.Rings[0].Verts[0] = world.C(99, 99)
	b, _ := ByID(SquareRing)
	assert.Equal(t, world.C(8, 8), b.Rings[0].Verts[0])
}

func TestPickIndex(t *testing.T) {
	assert.Equal(t, int((1*9301+49297)%233280%5), PickIndex(1))
	for seed := int64(-50); seed < 50; seed++ {
		i := PickIndex(seed)
		require.GreaterOrEqual(t, i, 0)
		require.Less(t, i, Count)
	}
	assert.Equal(t, ByIndex(-7).ID, ByIndex(7).ID)
}

func TestScaled(t *testing.T) {
	tpl, _ := ByID(SquareRing)
	s := tpl.Scaled(world.Bounds{W: 80, H: 20})
	assert.Equal(t, world.C(16, 4), s.Rings[0].Verts[0])
	assert.Equal(t, world.C(62, 15), s.Rings[0].Verts[2])
	assert.Equal(t, world.C(8, 8), tpl.Rings[0].Verts[0], "source template must not change")
}

func TestBuild_SquareRingIsClosedLoop(t *testing.T) {
	b := world.Bounds{W: 40, H: 40}
	tpl, _ := ByID(SquareRing)
	built := NewBuilder(b, entropy.New(3)).Build(tpl.Scaled(b))

	require.Len(t, built.Rings, 1)
	ring := built.Rings[0]
	// 24x24 square perimeter.
	assert.Len(t, ring.Path, 4*23)
	assert.Equal(t, BBox{MinX: 8, MaxX: 31, MinY: 8, MaxY: 31}, ring.BBox)

	for i, c := range ring.Path {
		next := ring.Path[(i+1)%len(ring.Path)]
		require.Equal(t, 1, world.Manhattan(c, next), "path must be 4-connected at %d", i)
	}
	for _, c := range ring.Path {
		assert.Equal(t, 0, built.RingIndex[c])
	}
	assert.Equal(t, len(ring.Path), built.Roads.Len())
}

func TestBuild_Deterministic(t *testing.T) {
	b := world.Bounds{W: 50, H: 45}
	for _, tpl := range List() {
		t.Run(tpl.ID, func(t *testing.T) {
			x := NewBuilder(b, entropy.New(77)).Build(tpl.Scaled(b))
			y := NewBuilder(b, entropy.New(77)).Build(tpl.Scaled(b))
			assert.Equal(t, x.Roads.Cells(), y.Roads.Cells())
			x.Roads.Each(func(c world.Cell) {
				require.True(t, b.Interior(c), "road %v outside interior", c)
			})
		})
	}
}

func TestBuild_MissingBridgeKindSkipped(t *testing.T) {
	b := world.Bounds{W: 40, H: 40}
	tpl := Template{
		ID:      "custom",
		Rings:   []Ring{{Kind: RingOuter, Verts: rect(5, 5, 30, 30)}},
		Bridges: []Bridge{{From: "outer@1", To: "inner@2"}},
	}
	built := NewBuilder(b, entropy.New(1)).Build(tpl)
	assert.Equal(t, len(built.Rings[0].Path), built.Roads.Len())
}

func TestAnchorQuartiles(t *testing.T) {
	path := make([]world.Cell, 20)
	for i := range path {
		path[i] = world.C(i, 0)
	}
	rings := []BuiltRing{{Kind: RingOuter, Path: path}}

	c, ok := anchor(rings, "outer@1")
	require.True(t, ok)
	assert.Equal(t, world.C(5, 0), c)

	c, _ = anchor(rings, "outer@4")
	assert.Equal(t, world.C(0, 0), c)

	c, _ = anchor(rings, "outer@9")
	assert.Equal(t, world.C(0, 0), c, "slot clamps to 4")

	_, ok = anchor(rings, "inner@1")
	assert.False(t, ok)
}

func TestBreakParallels_AddsDetour(t *testing.T) {
	b := world.Bounds{W: 40, H: 40}
	tpl := Template{
		ID: "parallel",
		Rings: []Ring{
			{Kind: RingOuter, Verts: rect(5, 5, 30, 30)},
			{Kind: RingInner, Verts: rect(7, 7, 28, 28)},
		},
	}
	built := NewBuilder(b, entropy.New(11)).Build(tpl)
	ringCells := len(built.RingIndex)
	assert.Greater(t, built.Roads.Len(), ringCells, "bumps add cells beyond both rings")
}
