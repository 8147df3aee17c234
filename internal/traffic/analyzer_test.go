package traffic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/boardgen/internal/entropy"
	"github.com/talgya/boardgen/internal/roads"
	"github.com/talgya/boardgen/internal/world"
)

func newTestStream() *entropy.Stream { return entropy.New(2024) }

// lineNetwork is a single main road along y=2 from x=0 to x=9 on a 10x10 board.
func lineNetwork() *roads.Network {
	net := roads.NewNetwork(world.Bounds{W: 10, H: 10})
	for x := 0; x < 10; x++ {
		net.Add(world.C(x, 2), x < 5)
	}
	return net.Finish()
}

func TestCoefficient_BoundsAndMonotonic(t *testing.T) {
	assert.Equal(t, 0.5, Coefficient(0))
	assert.InDelta(t, 2.0, Coefficient(1), 1e-9)
	prev := Coefficient(0)
	for p := 0.01; p < 1; p += 0.01 {
		c := Coefficient(p)
		require.GreaterOrEqual(t, c, prev)
		require.Less(t, c, MaxCoefficient)
		prev = c
	}
}

func TestAnalyze_LayersInRange(t *testing.T) {
	b := world.Bounds{W: 30, H: 30}
	net := roads.Loop(b, entropy.New(6))
	res := Analyze(net, Config{Rounds: 300, Starts: []world.Cell{{}, world.C(29, 29)}}, newTestStream())

	require.Len(t, res.Hotness, b.Area())
	hot := world.NewCellSet(res.HotSpots...)
	for _, c := range res.ColdSpots {
		require.False(t, hot.Has(c), "%v is both hot and cold", c)
	}
	b.Each(func(c world.Cell) {
		s := res.At(c)
		require.GreaterOrEqual(t, s.Hotness, 0.0)
		require.LessOrEqual(t, s.Hotness, 1.0)
		require.GreaterOrEqual(t, s.Percentile, 0.0)
		require.Less(t, s.Percentile, 1.0)
		require.GreaterOrEqual(t, s.Coefficient, MinCoefficient)
		require.Less(t, s.Coefficient, MaxCoefficient)
		if s.Hotness == 0 {
			require.Equal(t, MinCoefficient, s.Coefficient)
		}
		if !net.Has(c) {
			require.Zero(t, s.Visits)
		}
	})
	assert.NotEmpty(t, res.HotSpots)
	assert.Greater(t, res.AverageHotness(), 0.0)
}

func TestAnalyze_CoefficientFollowsHotness(t *testing.T) {
	net := lineNetwork()
	res := Analyze(net, Config{Rounds: 200}, newTestStream())
	b := res.Bounds()

	b.Each(func(a world.Cell) {
		b.Each(func(c world.Cell) {
			if res.At(a).Hotness < res.At(c).Hotness {
				require.LessOrEqual(t, res.At(a).Coefficient, res.At(c).Coefficient)
			}
		})
	})
}

func TestAnalyze_WalkStartsAtNearestRoad(t *testing.T) {
	net := lineNetwork()
	res := Analyze(net, Config{Rounds: 50, Starts: []world.Cell{world.C(9, 9)}}, newTestStream())
	assert.Equal(t, 50, res.At(world.C(9, 2)).Visits, "every walk begins on the road cell nearest to the start")
}

func TestAnalyze_FarLandIsCold(t *testing.T) {
	res := Analyze(lineNetwork(), Config{Rounds: 100}, newTestStream())
	assert.Zero(t, res.At(world.C(4, 9)).Hotness)
	assert.Greater(t, res.At(world.C(4, 4)).Hotness, 0.0)
	assert.Equal(t, Sample{Coefficient: MinCoefficient}, res.At(world.C(-1, 0)))
}

func TestAnalyze_NoRoads(t *testing.T) {
	net := roads.NewNetwork(world.Bounds{W: 8, H: 8}).Finish()
	res := Analyze(net, Config{Rounds: 100}, newTestStream())
	for _, c := range res.Coefficient {
		require.Equal(t, MinCoefficient, c)
	}
	assert.Empty(t, res.HotSpots)
	assert.Len(t, res.ColdSpots, 64)
}

func TestAnalyze_Deterministic(t *testing.T) {
	net := roads.Classic(world.Bounds{W: 24, H: 24}, 0.2, entropy.New(3))
	a := Analyze(net, Config{Rounds: 150}, entropy.New(77))
	b := Analyze(net, Config{Rounds: 150}, entropy.New(77))
	assert.Equal(t, a, b)
}
