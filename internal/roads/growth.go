package roads

import (
	"github.com/zyedidia/generic/queue"

	"github.com/talgya/boardgen/internal/entropy"
	"github.com/talgya/boardgen/internal/world"
)

// Growth scatters 5-10 seeds and grows each outward with a randomized BFS
// until its share of the density budget is spent.
func Growth(b world.Bounds, density float64, rng *entropy.Stream) *Network {
	n := NewNetwork(b)
	target := float64(b.Area()) * density

	numSeeds := rng.Range(5, 10)
	seeds := make([]world.Cell, numSeeds)
	for i := range seeds {
		x := rng.Intn(b.W)
		y := rng.Intn(b.H)
		seeds[i] = world.C(x, y)
	}

	budget := target / float64(numSeeds)
	for _, s := range seeds {
		grow(n, s, budget, rng)
	}
	return n.Finish()
}

func grow(n *Network, seed world.Cell, budget float64, rng *entropy.Stream) {
	q := queue.New[world.Cell]()
	q.Enqueue(seed)
	length := 0

	for !q.Empty() && float64(length) < budget {
		cur := q.Dequeue()
		if n.Has(cur) || !n.Bounds.Contains(cur) {
			continue
		}
		n.Add(cur, false)
		length++

		var valid []world.Cell
		for _, nb := range cur.Neighbors() {
			if n.Bounds.Contains(nb) && !n.Has(nb) {
				valid = append(valid, nb)
			}
		}
		if len(valid) == 0 {
			continue
		}
		expand := 1
		if !rng.Chance(0.7) {
			expand = 2
		}
		for i := 0; i < expand && len(valid) > 0; i++ {
			idx := rng.Intn(len(valid))
			q.Enqueue(valid[idx])
			valid = append(valid[:idx], valid[idx+1:]...)
		}
	}
}
