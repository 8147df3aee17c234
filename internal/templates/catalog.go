package templates

import "github.com/talgya/boardgen/internal/world"

// Catalog ids.
const (
	DoubleRingTwoBridges = "DoubleRing+2Bridges"
	SingleRing           = "SingleRing"
	LargeOuterSmallInner = "LargeOuter+SmallInner+3Bridges"
	IrregularDoubleRing  = "IrregularDoubleRing"
	SquareRing           = "SquareRing"
)

func rect(x0, y0, x1, y1 int) []world.Cell {
	return []world.Cell{world.C(x0, y0), world.C(x1, y0), world.C(x1, y1), world.C(x0, y1)}
}

// catalog builds fresh values on every call so callers can never share slices.
func catalog() []Template {
	return []Template{
		{
			ID:   DoubleRingTwoBridges,
			Name: "Double ring, two bridges",
			Rings: []Ring{
				{Kind: RingOuter, Verts: rect(4, 4, 35, 35), Jitter: [2]int{0, 2}},
				{Kind: RingInner, Verts: rect(13, 13, 26, 26), Jitter: [2]int{0, 1}},
			},
			Bridges: []Bridge{{From: "outer@1", To: "inner@1"}, {From: "outer@3", To: "inner@3"}},
			Quotas: Quotas{
				SmallRatio: [2]float64{0.35, 0.5}, SmallStride: [2]int{2, 3},
				BigCount: [2]int{2, 4}, MinStraight: 6, MinBigSpacing: 6,
			},
		},
		{
			ID:   SingleRing,
			Name: "Single ring",
			Rings: []Ring{
				{Kind: RingOuter, Verts: rect(5, 5, 34, 34), Jitter: [2]int{0, 2}},
			},
			Quotas: Quotas{
				SmallRatio: [2]float64{0.4, 0.55}, SmallStride: [2]int{2, 3},
				BigCount: [2]int{3, 5}, MinStraight: 6, MinBigSpacing: 5,
			},
		},
		{
			ID:   LargeOuterSmallInner,
			Name: "Large outer, small inner, three bridges",
			Rings: []Ring{
				{Kind: RingOuter, Verts: rect(3, 3, 36, 36), Jitter: [2]int{1, 2}},
				{Kind: RingInner, Verts: rect(16, 16, 23, 23), Jitter: [2]int{0, 1}},
			},
			Bridges: []Bridge{
				{From: "outer@1", To: "inner@1"},
				{From: "outer@2", To: "inner@2"},
				{From: "outer@3", To: "inner@3"},
			},
			Quotas: Quotas{
				SmallRatio: [2]float64{0.35, 0.5}, SmallStride: [2]int{2, 3},
				BigCount: [2]int{3, 6}, MinStraight: 7, MinBigSpacing: 6,
			},
		},
		{
			ID:   IrregularDoubleRing,
			Name: "Irregular double ring",
			Rings: []Ring{
				{Kind: RingOuter, Verts: []world.Cell{
					world.C(4, 4), world.C(35, 4), world.C(35, 27),
					world.C(24, 35), world.C(4, 35), world.C(4, 18),
				}, Jitter: [2]int{1, 3}},
				{Kind: RingInner, Verts: rect(14, 13, 26, 24), Jitter: [2]int{1, 2}},
			},
			Bridges: []Bridge{{From: "outer@2", To: "inner@2"}, {From: "outer@4", To: "inner@4"}},
			Quotas: Quotas{
				SmallRatio: [2]float64{0.3, 0.45}, SmallStride: [2]int{2, 3},
				BigCount: [2]int{1, 3}, MinStraight: 5, MinBigSpacing: 6,
			},
		},
		{
			ID:   SquareRing,
			Name: "Square ring",
			Rings: []Ring{
				{Kind: RingOuter, Verts: rect(8, 8, 31, 31)},
			},
			Quotas: Quotas{
				SmallRatio: [2]float64{0.4, 0.5}, SmallStride: [2]int{2, 3},
				BigCount: [2]int{2, 4}, MinStraight: 6, MinBigSpacing: 8,
			},
		},
	}
}

// Count is the number of catalog entries.
const Count = 5

// List returns every template in catalog order.
func List() []Template {
	return catalog()
}

// IDs returns the catalog ids in order.
func IDs() []string {
	all := catalog()
	ids := make([]string, len(all))
	for i, t := range all {
		ids[i] = t.ID
	}
	return ids
}

// ByID looks a template up by its exact id.
func ByID(id string) (Template, error) {
	for _, t := range catalog() {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, &NotFoundError{ID: id}
}

// ByIndex wraps any integer onto the catalog.
func ByIndex(i int) Template {
	if i < 0 {
		i = -i
	}
	return catalog()[i%Count]
}

// PickIndex derives a catalog index from a seed.
func PickIndex(seed int64) int {
	v := (seed*9301 + 49297) % 233280
	if v < 0 {
		v = -v
	}
	return int(v % Count)
}

// Pick returns the template PickIndex selects.
func Pick(seed int64) Template {
	return catalog()[PickIndex(seed)]
}
