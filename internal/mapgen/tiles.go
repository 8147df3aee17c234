package mapgen

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/boardgen/internal/parcels"
	"github.com/talgya/boardgen/internal/specials"
	"github.com/talgya/boardgen/internal/world"
)

// TileKind tags each cell of the final board.
type TileKind string

const (
	KindRoad    TileKind = "road"
	KindParcel  TileKind = "parcel"
	KindSpecial TileKind = "special"
	KindEmpty   TileKind = "empty"
)

// Tile is one cell of the final board. The set of implementations is closed.
type Tile interface {
	Pos() world.Cell
	Kind() TileKind
	isTile()
}

// RoadTile is a plain road cell.
type RoadTile struct {
	Cell         world.Cell `json:"cell"`
	Main         bool       `json:"main"`
	Intersection bool       `json:"intersection"`
	Hotness      float64    `json:"hotness"`
}

// ParcelTile is one cell of a parcel footprint.
type ParcelTile struct {
	Cell   world.Cell   `json:"cell"`
	Parcel int          `json:"parcel"` // index into Result.Parcels
	Anchor world.Cell   `json:"anchor"`
	Size   parcels.Size `json:"size"`
	Group  string       `json:"color_group"`
	Price  float64      `json:"price_coefficient"`
}

// SpecialTile is a road cell carrying an event.
type SpecialTile struct {
	Cell     world.Cell        `json:"cell"`
	Category specials.Category `json:"category"`
	Payload  int               `json:"payload"`
}

// EmptyTile is unused land.
type EmptyTile struct {
	Cell    world.Cell    `json:"cell"`
	Region  int           `json:"region"`
	Scenery world.Scenery `json:"scenery"`
}

func (t RoadTile) Pos() world.Cell    { return t.Cell }
func (t ParcelTile) Pos() world.Cell  { return t.Cell }
func (t SpecialTile) Pos() world.Cell { return t.Cell }
func (t EmptyTile) Pos() world.Cell   { return t.Cell }

func (RoadTile) Kind() TileKind    { return KindRoad }
func (ParcelTile) Kind() TileKind  { return KindParcel }
func (SpecialTile) Kind() TileKind { return KindSpecial }
func (EmptyTile) Kind() TileKind   { return KindEmpty }

func (RoadTile) isTile()    {}
func (ParcelTile) isTile()  {}
func (SpecialTile) isTile() {}
func (EmptyTile) isTile()   {}

func (t RoadTile) MarshalJSON() ([]byte, error) {
	type plain RoadTile
	return marshalKind(KindRoad, plain(t))
}

func (t ParcelTile) MarshalJSON() ([]byte, error) {
	type plain ParcelTile
	return marshalKind(KindParcel, plain(t))
}

func (t SpecialTile) MarshalJSON() ([]byte, error) {
	type plain SpecialTile
	return marshalKind(KindSpecial, plain(t))
}

func (t EmptyTile) MarshalJSON() ([]byte, error) {
	type plain EmptyTile
	return marshalKind(KindEmpty, plain(t))
}

// marshalKind flattens v into an object with a leading kind field.
func marshalKind(kind TileKind, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	head := fmt.Sprintf(`{"kind":%q`, kind)
	if len(body) <= 2 {
		return []byte(head + "}"), nil
	}
	return append([]byte(head+","), body[1:]...), nil
}

// Tiles is the row-major tile list. It decodes back into concrete tile types.
type Tiles []Tile

// UnmarshalJSON dispatches on each element's kind field.
func (ts *Tiles) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Tiles, 0, len(raw))
	for i, r := range raw {
		var head struct {
			Kind TileKind `json:"kind"`
		}
		if err := json.Unmarshal(r, &head); err != nil {
			return fmt.Errorf("tile %d: %w", i, err)
		}
		t, err := decodeTile(head.Kind, r)
		if err != nil {
			return fmt.Errorf("tile %d: %w", i, err)
		}
		out = append(out, t)
	}
	*ts = out
	return nil
}

func decodeTile(kind TileKind, r json.RawMessage) (Tile, error) {
	switch kind {
	case KindRoad:
		var t RoadTile
		err := json.Unmarshal(r, &t)
		return t, err
	case KindParcel:
		var t ParcelTile
		err := json.Unmarshal(r, &t)
		return t, err
	case KindSpecial:
		var t SpecialTile
		err := json.Unmarshal(r, &t)
		return t, err
	case KindEmpty:
		var t EmptyTile
		err := json.Unmarshal(r, &t)
		return t, err
	default:
		return nil, fmt.Errorf("unknown tile kind %q", kind)
	}
}

// At returns the tile for c on a board of the given bounds.
func (ts Tiles) At(b world.Bounds, c world.Cell) Tile {
	if !b.Contains(c) || b.Index(c) >= len(ts) {
		return nil
	}
	return ts[b.Index(c)]
}
