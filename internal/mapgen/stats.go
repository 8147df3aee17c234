package mapgen

import (
	"github.com/talgya/boardgen/internal/parcels"
	"github.com/talgya/boardgen/internal/specials"
	"github.com/talgya/boardgen/internal/streets"
	"github.com/talgya/boardgen/internal/world"
)

// Stats summarises a generated board.
type Stats struct {
	TotalTiles    int `json:"total_tiles"`
	RoadTiles     int `json:"road_tiles"`
	ParcelTiles   int `json:"parcel_tiles"`
	SpecialTiles  int `json:"special_tiles"`
	EmptyTiles    int `json:"empty_tiles"`
	RoadCells     int `json:"road_cells"`
	MainRoadCells int `json:"main_road_cells"`
	Intersections int `json:"intersections"`

	Parcels    int `json:"parcels"`
	Parcels1x1 int `json:"parcels_1x1"`
	Parcels2x2 int `json:"parcels_2x2"`

	SpecialsByCategory []specials.CategoryCount `json:"specials_by_category"`
	SpecialQuadrants   specials.Quadrants       `json:"special_quadrants"`
	ParcelsByGroup     map[string]int           `json:"parcels_by_group"`
	Scenery            map[string]int           `json:"scenery"`

	RoadDensity    float64 `json:"road_density"`
	ParcelDensity  float64 `json:"parcel_density"`
	SpecialDensity float64 `json:"special_density"`
	AverageHotness float64 `json:"average_hotness"`
	HotSpots       int     `json:"hot_spots"`
	ColdSpots      int     `json:"cold_spots"`

	Streets streets.Summary `json:"streets"`
}

func computeStats(r *Result) Stats {
	b := world.Bounds{W: r.Width, H: r.Height}
	s := Stats{
		TotalTiles:         len(r.Tiles),
		RoadCells:          r.Network.Len(),
		MainRoadCells:      r.Network.Main.Len(),
		Intersections:      r.Network.Intersections.Len(),
		Parcels:            len(r.Parcels),
		SpecialsByCategory: specials.Distribution(r.Specials),
		SpecialQuadrants:   specials.QuadrantBalance(b, r.Specials),
		ParcelsByGroup:     make(map[string]int),
		Scenery:            make(map[string]int),
		Streets:            streets.Summarize(r.Regions),
	}
	for _, t := range r.Tiles {
		switch t := t.(type) {
		case RoadTile:
			s.RoadTiles++
		case ParcelTile:
			s.ParcelTiles++
		case SpecialTile:
			s.SpecialTiles++
		case EmptyTile:
			s.EmptyTiles++
			s.Scenery[t.Scenery.String()]++
		}
	}
	for _, p := range r.Parcels {
		if p.Size == parcels.Size2x2 {
			s.Parcels2x2++
		} else {
			s.Parcels1x1++
		}
		if p.Group != "" {
			s.ParcelsByGroup[p.Group]++
		}
	}
	if area := float64(b.Area()); area > 0 {
		s.RoadDensity = float64(s.RoadCells) / area
		s.ParcelDensity = float64(s.ParcelTiles) / area
		s.SpecialDensity = float64(s.SpecialTiles) / area
	}
	if r.Traffic != nil {
		s.AverageHotness = r.Traffic.AverageHotness()
		s.HotSpots = len(r.Traffic.HotSpots)
		s.ColdSpots = len(r.Traffic.ColdSpots)
	}
	return s
}
