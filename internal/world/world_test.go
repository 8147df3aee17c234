package world

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_KeyRoundTrip(t *testing.T) {
	c := C(12, 7)
	assert.Equal(t, "12_7", c.Key())

	parsed, err := ParseCell("12_7")
	require.NoError(t, err)
	assert.Equal(t, c, parsed)

	_, err = ParseCell("12-7")
	assert.Error(t, err)
}

func TestCell_JSONMapKey(t *testing.T) {
	m := map[Cell][]Cell{C(1, 2): {C(2, 2), C(1, 3)}}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1_2":["2_2","1_3"]}`, string(b))

	var back map[Cell][]Cell
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, m, back)
}

func TestCell_NeighborOrder(t *testing.T) {
	n := C(5, 5).Neighbors()
	assert.Equal(t, [4]Cell{C(6, 5), C(4, 5), C(5, 6), C(5, 4)}, n)
}

func TestDistances(t *testing.T) {
	assert.Equal(t, 7, Manhattan(C(0, 0), C(3, -4)))
	assert.Equal(t, 4, Chebyshev(C(0, 0), C(3, -4)))
}

func TestBounds(t *testing.T) {
	b := Bounds{W: 20, H: 10}
	assert.True(t, b.Contains(C(0, 0)))
	assert.False(t, b.Contains(C(20, 0)))
	assert.False(t, b.Interior(C(0, 5)))
	assert.True(t, b.Interior(C(18, 8)))
	assert.Equal(t, C(1, 8), b.ClampInterior(C(-4, 30)))
	assert.Equal(t, 200, b.Area())

	count := 0
	b.Each(func(Cell) { count++ })
	assert.Equal(t, 200, count)
}

func TestCellSet_OrderAndMembership(t *testing.T) {
	s := NewCellSet(C(3, 3), C(1, 1), C(3, 3), C(2, 2))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []Cell{C(3, 3), C(1, 1), C(2, 2)}, s.Cells())
	assert.True(t, s.Has(C(1, 1)))

	s.Remove(C(1, 1))
	assert.False(t, s.Has(C(1, 1)))
	assert.Equal(t, []Cell{C(3, 3), C(2, 2)}, s.Cells())

	assert.False(t, s.Add(C(2, 2)))
	assert.True(t, s.Add(C(2, 3)))
	assert.Equal(t, 2, s.CountNeighbors(C(2, 2).Add(East)))
	assert.False(t, s.Touches(C(9, 9)))
}

func TestCellSet_Difference(t *testing.T) {
	a := NewCellSet(C(0, 0), C(1, 0), C(2, 0))
	b := NewCellSet(C(1, 0))
	assert.Equal(t, []Cell{C(0, 0), C(2, 0)}, a.Difference(b).Cells())
}

func TestCellSet_JSON(t *testing.T) {
	s := NewCellSet(C(4, 1), C(0, 9))
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["4_1","0_9"]`, string(b))

	var back CellSet
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, s.Cells(), back.Cells())
	assert.True(t, back.Has(C(0, 9)))
}

func TestScenery_Deterministic(t *testing.T) {
	a := NewScenerySampler(42)
	b := NewScenerySampler(42)
	for x := 0; x < 30; x++ {
		for y := 0; y < 30; y++ {
			require.Equal(t, a.At(C(x, y)), b.At(C(x, y)))
		}
	}
}
