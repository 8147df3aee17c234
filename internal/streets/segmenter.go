// Package streets splits the non-road land into street regions and hands out
// the colour groups that decide monopolies.
package streets

import (
	"log/slog"
	"sort"

	"github.com/zyedidia/generic/queue"

	"github.com/talgya/boardgen/internal/parcels"
	"github.com/talgya/boardgen/internal/world"
)

// MinRegionSize is the smallest region that survives the merge pass.
const MinRegionSize = 5

// Palette is the fixed colour-group order.
var Palette = []string{"brown", "lightblue", "pink", "orange", "red", "yellow", "green", "darkblue"}

// Region is a 4-connected block of non-road cells.
type Region struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	Cells    []world.Cell `json:"cells"`
	Centroid world.Cell   `json:"centroid"`
	Parcels  []int        `json:"parcels"` // indices into the parcel list
	Group    string       `json:"color_group"`
}

// Segment flood-fills every non-road cell into regions, merges regions under
// MinRegionSize into the nearest large one, renumbers them and assigns colour
// groups. Parcel Region and Group fields are updated in place.
func Segment(b world.Bounds, roads *world.CellSet, ps []parcels.Parcel) []Region {
	regions := floodRegions(b, roads)
	attachParcels(regions, ps)
	regions = merge(regions)
	for i := range regions {
		regions[i].ID = i
	}
	assignGroups(regions)

	for _, r := range regions {
		for _, pi := range r.Parcels {
			ps[pi].Region = r.ID
			ps[pi].Group = r.Group
		}
	}
	return regions
}

func floodRegions(b world.Bounds, roads *world.CellSet) []Region {
	visited := make(map[world.Cell]bool, b.Area())
	var regions []Region

	b.Each(func(start world.Cell) {
		if roads.Has(start) || visited[start] {
			return
		}
		var cells []world.Cell
		q := queue.New[world.Cell]()
		q.Enqueue(start)
		for !q.Empty() {
			c := q.Dequeue()
			if visited[c] || roads.Has(c) || !b.Contains(c) {
				continue
			}
			visited[c] = true
			cells = append(cells, c)
			for _, nb := range c.Neighbors() {
				if !visited[nb] && !roads.Has(nb) {
					q.Enqueue(nb)
				}
			}
		}
		regions = append(regions, Region{Cells: cells, Centroid: centroid(cells)})
	})
	return regions
}

// centroid is the floored integer mean of the cells.
func centroid(cells []world.Cell) world.Cell {
	if len(cells) == 0 {
		return world.Cell{}
	}
	sx, sy := 0, 0
	for _, c := range cells {
		sx += c.X
		sy += c.Y
	}
	return world.C(floorDiv(sx, len(cells)), floorDiv(sy, len(cells)))
}

func floorDiv(a, n int) int {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}

// attachParcels records each parcel in the first region its footprint touches.
func attachParcels(regions []Region, ps []parcels.Parcel) {
	owner := make(map[world.Cell]int)
	for i, r := range regions {
		for _, c := range r.Cells {
			owner[c] = i
		}
	}
	for pi, p := range ps {
		first := -1
		for _, c := range p.Footprint() {
			if ri, ok := owner[c]; ok && (first < 0 || ri < first) {
				first = ri
			}
		}
		if first >= 0 {
			regions[first].Parcels = append(regions[first].Parcels, pi)
		}
	}
}

// merge folds every small region into the large region with the nearest
// centroid. When no region is large, small regions are kept so the regions
// still cover every non-road cell.
func merge(regions []Region) []Region {
	large := 0
	for _, r := range regions {
		if len(r.Cells) >= MinRegionSize {
			large++
		}
	}
	if large == 0 {
		return regions
	}

	for i := range regions {
		small := &regions[i]
		if len(small.Cells) >= MinRegionSize {
			continue
		}
		best, bestDist := -1, 0
		for j := range regions {
			if j == i || len(regions[j].Cells) < MinRegionSize {
				continue
			}
			if d := world.Manhattan(small.Centroid, regions[j].Centroid); best < 0 || d < bestDist {
				best, bestDist = j, d
			}
		}
		into := &regions[best]
		into.Cells = append(into.Cells, small.Cells...)
		into.Parcels = append(into.Parcels, small.Parcels...)
		into.Centroid = centroid(into.Cells)
		slog.Debug("merged small region", "cells", len(small.Cells), "into", into.Centroid)
	}

	kept := regions[:0]
	for _, r := range regions {
		if len(r.Cells) >= MinRegionSize {
			kept = append(kept, r)
		}
	}
	return kept
}

// assignGroups ranks regions by parcel count then size, both descending, and
// deals palette colours cyclically in that order.
func assignGroups(regions []Region) {
	order := make([]int, len(regions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := regions[order[a]], regions[order[b]]
		if len(ra.Parcels) != len(rb.Parcels) {
			return len(ra.Parcels) > len(rb.Parcels)
		}
		return len(ra.Cells) > len(rb.Cells)
	})
	for rank, i := range order {
		regions[i].Group = Palette[rank%len(Palette)]
	}
}

// Summary reports region statistics.
type Summary struct {
	Total          int     `json:"total"`
	AverageSize    float64 `json:"average_size"`
	Largest        int     `json:"largest"`
	Smallest       int     `json:"smallest"`
	AverageParcels float64 `json:"average_parcels"`
}

// Summarize computes region statistics.
func Summarize(regions []Region) Summary {
	if len(regions) == 0 {
		return Summary{}
	}
	s := Summary{Total: len(regions), Smallest: len(regions[0].Cells)}
	cells, owned := 0, 0
	for _, r := range regions {
		n := len(r.Cells)
		cells += n
		owned += len(r.Parcels)
		s.Largest = max(s.Largest, n)
		s.Smallest = min(s.Smallest, n)
	}
	s.AverageSize = float64(cells) / float64(len(regions))
	s.AverageParcels = float64(owned) / float64(len(regions))
	return s
}
