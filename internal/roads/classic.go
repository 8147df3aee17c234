package roads

import (
	"math"

	"github.com/talgya/boardgen/internal/entropy"
	"github.com/talgya/boardgen/internal/world"
)

// Ring-and-spokes geometry.
const (
	ringSamples    = 60
	ringRadius     = 0.35
	spokeCount     = 8
	spokeRadius    = 0.45
	spokeMainShare = 0.6
)

// Classic lays a sampled ring road around the centre, eight radial spokes and a
// density top-up of side roads, then finishes the network.
func Classic(b world.Bounds, density float64, rng *entropy.Stream) *Network {
	n := NewNetwork(b)
	cx, cy := float64(b.W)/2, float64(b.H)/2
	short := float64(min(b.W, b.H))

	sample := func(angle, r float64) world.Cell {
		c := world.C(int(math.Floor(cx+r*math.Cos(angle))), int(math.Floor(cy+r*math.Sin(angle))))
		return world.C(min(max(c.X, 0), b.W-1), min(max(c.Y, 0), b.H-1))
	}

	ring := make([]world.Cell, ringSamples)
	for i := range ring {
		ring[i] = sample(2*math.Pi*float64(i)/ringSamples, short*ringRadius)
	}
	for i := range ring {
		n.Stitch(ring[i], ring[(i+1)%len(ring)], true)
	}

	radius := short * spokeRadius
	steps := int(math.Ceil(radius))
	for k := 0; k < spokeCount; k++ {
		angle := 2 * math.Pi * float64(k) / spokeCount
		prev := sample(angle, 0)
		n.Add(prev, true)
		for s := 1; s <= steps; s++ {
			t := float64(s) / float64(steps)
			next := sample(angle, t*radius)
			n.Stitch(prev, next, t <= spokeMainShare)
			prev = next
		}
	}

	topUp(n, density, rng)
	return n.Finish()
}

// topUp makes target-current attempts at random cells, keeping those next to
// an existing road.
func topUp(n *Network, density float64, rng *entropy.Stream) {
	target := int(float64(n.Bounds.Area()) * density)
	attempts := target - n.Len()
	for i := 0; i < attempts; i++ {
		c := world.C(rng.Intn(n.Bounds.W), rng.Intn(n.Bounds.H))
		if !n.Has(c) && n.AdjacentToRoad(c) {
			n.Add(c, false)
		}
	}
}
