// Package templates holds the declarative ring/bridge board templates and the
// builder that turns them into concrete road paths.
package templates

import (
	"errors"
	"fmt"

	"github.com/talgya/boardgen/internal/world"
)

// RingKind labels a ring's role in a template.
type RingKind string

const (
	RingOuter RingKind = "outer"
	RingInner RingKind = "inner"
	RingSpur  RingKind = "spur"
)

// Ring is a closed polygon authored on the 40x40 template canvas.
type Ring struct {
	Kind   RingKind     `json:"kind" yaml:"kind"`
	Verts  []world.Cell `json:"verts" yaml:"verts"`
	Jitter [2]int       `json:"jitter" yaml:"jitter"` // [min, max] per-axis offset
}

// Bridge joins two rings. Endpoints use "kind@slot" references, slot 1..4.
type Bridge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Quotas drive the rule-based parcel placer along the outer ring.
type Quotas struct {
	SmallRatio    [2]float64 `json:"small_ratio" yaml:"small_ratio"`
	SmallStride   [2]int     `json:"small_stride" yaml:"small_stride"`
	BigCount      [2]int     `json:"big_count" yaml:"big_count"`
	MinStraight   int        `json:"min_straight" yaml:"min_straight"`
	MinBigSpacing int        `json:"min_big_spacing" yaml:"min_big_spacing"`
}

// Template is one catalog entry.
type Template struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Rings   []Ring   `json:"rings" yaml:"rings"`
	Bridges []Bridge `json:"bridges" yaml:"bridges"`
	Quotas  Quotas   `json:"quotas" yaml:"quotas"`
}

// CanvasSize is the side length of the canvas templates are authored on.
const CanvasSize = 40

// Scaled returns a copy with every vertex mapped from the canvas onto b.
// Jitter ranges are not scaled.
func (t Template) Scaled(b world.Bounds) Template {
	out := t
	out.Rings = make([]Ring, len(t.Rings))
	for i, r := range t.Rings {
		verts := make([]world.Cell, len(r.Verts))
		for j, v := range r.Verts {
			verts[j] = world.C(v.X*b.W/CanvasSize, v.Y*b.H/CanvasSize)
		}
		out.Rings[i] = Ring{Kind: r.Kind, Verts: verts, Jitter: r.Jitter}
	}
	out.Bridges = append([]Bridge(nil), t.Bridges...)
	return out
}

// BBox is the inclusive bounding box of a built ring.
type BBox struct {
	MinX int `json:"min_x"`
	MaxX int `json:"max_x"`
	MinY int `json:"min_y"`
	MaxY int `json:"max_y"`
}

// BuiltRing is a ring after jitter and routing. Path is closed: the last cell
// is adjacent to the first, and the first cell is not repeated.
type BuiltRing struct {
	Kind RingKind     `json:"kind"`
	Path []world.Cell `json:"path"`
	BBox BBox         `json:"bbox"`
}

// Build is the output of Builder.Build.
type Build struct {
	Rings     []BuiltRing
	Roads     *world.CellSet
	RingIndex map[world.Cell]int // road cell -> owning ring; bridges and bumps are absent
}

// Outer returns the first outer ring, or nil.
func (b *Build) Outer() *BuiltRing {
	for i := range b.Rings {
		if b.Rings[i].Kind == RingOuter {
			return &b.Rings[i]
		}
	}
	return nil
}

// ErrNotFound is matched by every lookup failure.
var ErrNotFound = errors.New("template not found")

// NotFoundError names the missing template id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found", e.ID)
}

// Is makes errors.Is(err, ErrNotFound) true.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
