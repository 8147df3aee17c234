// Package world provides the square board grid: cells, bounds, ordered cell sets,
// and the scenery sampler used to decorate unused land.
package world

import (
	"fmt"
	"strconv"
	"strings"
)

// Cell is a grid coordinate. It is the universal key for every set and map in the engine.
// It serializes as "x_y".
type Cell struct {
	X, Y int
}

// C is shorthand for Cell{X: x, Y: y}.
func C(x, y int) Cell {
	return Cell{X: x, Y: y}
}

// Add returns the cell offset by d.
func (c Cell) Add(d Cell) Cell {
	return Cell{X: c.X + d.X, Y: c.Y + d.Y}
}

// Scale returns the cell multiplied component-wise by k.
func (c Cell) Scale(k int) Cell {
	return Cell{X: c.X * k, Y: c.Y * k}
}

// Neg returns the opposite offset.
func (c Cell) Neg() Cell {
	return Cell{X: -c.X, Y: -c.Y}
}

// Key returns the "x_y" form used for serialization.
func (c Cell) Key() string {
	return strconv.Itoa(c.X) + "_" + strconv.Itoa(c.Y)
}

func (c Cell) String() string {
	return c.Key()
}

// MarshalText encodes the cell as "x_y", so cells work as JSON object keys.
func (c Cell) MarshalText() ([]byte, error) {
	return []byte(c.Key()), nil
}

// UnmarshalText parses the "x_y" form.
func (c *Cell) UnmarshalText(b []byte) error {
	parsed, err := ParseCell(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCell parses "x_y".
func ParseCell(key string) (Cell, error) {
	xs, ys, ok := strings.Cut(key, "_")
	if !ok {
		return Cell{}, fmt.Errorf("parse cell %q: missing separator", key)
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return Cell{}, fmt.Errorf("parse cell %q: %w", key, err)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return Cell{}, fmt.Errorf("parse cell %q: %w", key, err)
	}
	return Cell{X: x, Y: y}, nil
}

// Unit offsets. NeighborDirections fixes the neighbour order used everywhere:
// +x, -x, +y, -y.
var (
	East  = Cell{X: 1, Y: 0}
	West  = Cell{X: -1, Y: 0}
	North = Cell{X: 0, Y: 1}
	South = Cell{X: 0, Y: -1}

	NeighborDirections = [4]Cell{East, West, North, South}
)

// Neighbors returns the four orthogonal neighbours in canonical order.
func (c Cell) Neighbors() [4]Cell {
	var result [4]Cell
	for i, d := range NeighborDirections {
		result[i] = c.Add(d)
	}
	return result
}

// Manhattan returns |dx| + |dy|.
func Manhattan(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Chebyshev returns max(|dx|, |dy|).
func Chebyshev(a, b Cell) int {
	dx, dy := abs(a.X-b.X), abs(a.Y-b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Sign returns -1, 0 or 1.
func Sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Bounds is the board size. Valid cells satisfy 0 <= x < W and 0 <= y < H.
type Bounds struct {
	W int `json:"width"`
	H int `json:"height"`
}

// Contains reports whether c lies on the board.
func (b Bounds) Contains(c Cell) bool {
	return c.X >= 0 && c.X < b.W && c.Y >= 0 && c.Y < b.H
}

// Interior reports whether c lies on the board without touching the border ring.
func (b Bounds) Interior(c Cell) bool {
	return c.X >= 1 && c.X <= b.W-2 && c.Y >= 1 && c.Y <= b.H-2
}

// ClampInterior pulls c into [1, W-2] x [1, H-2].
func (b Bounds) ClampInterior(c Cell) Cell {
	return Cell{X: clamp(c.X, 1, b.W-2), Y: clamp(c.Y, 1, b.H-2)}
}

// Area returns W*H.
func (b Bounds) Area() int {
	return b.W * b.H
}

// Index returns the row-major index y*W + x.
func (b Bounds) Index(c Cell) int {
	return c.Y*b.W + c.X
}

// Each visits every cell column by column (x outer, y inner).
func (b Bounds) Each(fn func(Cell)) {
	for x := 0; x < b.W; x++ {
		for y := 0; y < b.H; y++ {
			fn(Cell{X: x, Y: y})
		}
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("%dx%d", b.W, b.H)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
