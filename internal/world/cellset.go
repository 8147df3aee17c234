package world

import (
	"encoding/json"

	"github.com/zyedidia/generic/mapset"
)

// CellSet is an insertion-ordered set of cells. Iteration always follows the
// order in which cells were first added, so generation stays reproducible.
type CellSet struct {
	order   []Cell
	members mapset.Set[Cell]
}

// NewCellSet creates a set holding cells in the given order (duplicates dropped).
func NewCellSet(cells ...Cell) *CellSet {
	s := &CellSet{members: mapset.New[Cell]()}
	for _, c := range cells {
		s.Add(c)
	}
	return s
}

// Add inserts c. Returns false if c was already present.
func (s *CellSet) Add(c Cell) bool {
	if s.members.Has(c) {
		return false
	}
	s.members.Put(c)
	s.order = append(s.order, c)
	return true
}

// AddAll inserts every cell of cells in order.
func (s *CellSet) AddAll(cells []Cell) {
	for _, c := range cells {
		s.Add(c)
	}
}

// Has reports membership.
func (s *CellSet) Has(c Cell) bool {
	return s != nil && s.members.Has(c)
}

// Remove deletes c, keeping the order of the remaining cells.
func (s *CellSet) Remove(c Cell) {
	if !s.members.Has(c) {
		return
	}
	s.members.Remove(c)
	for i, o := range s.order {
		if o == c {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of cells.
func (s *CellSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Cells returns a copy of the cells in insertion order.
func (s *CellSet) Cells() []Cell {
	if s == nil {
		return nil
	}
	out := make([]Cell, len(s.order))
	copy(out, s.order)
	return out
}

// Each visits the cells in insertion order.
func (s *CellSet) Each(fn func(Cell)) {
	if s == nil {
		return
	}
	for _, c := range s.order {
		fn(c)
	}
}

// Clone returns an independent copy.
func (s *CellSet) Clone() *CellSet {
	return NewCellSet(s.Cells()...)
}

// Difference returns the cells of s that are not in other, in s's order.
func (s *CellSet) Difference(other *CellSet) *CellSet {
	out := NewCellSet()
	s.Each(func(c Cell) {
		if !other.Has(c) {
			out.Add(c)
		}
	})
	return out
}

// CountNeighbors returns how many of c's four neighbours are in s.
func (s *CellSet) CountNeighbors(c Cell) int {
	n := 0
	for _, nb := range c.Neighbors() {
		if s.Has(nb) {
			n++
		}
	}
	return n
}

// Touches reports whether any neighbour of c is in s.
func (s *CellSet) Touches(c Cell) bool {
	return s.CountNeighbors(c) > 0
}

// MarshalJSON encodes the set as an ordered array of cells.
func (s *CellSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	cells := s.order
	if cells == nil {
		cells = []Cell{}
	}
	return json.Marshal(cells)
}

// UnmarshalJSON decodes an array of cells.
func (s *CellSet) UnmarshalJSON(b []byte) error {
	var cells []Cell
	if err := json.Unmarshal(b, &cells); err != nil {
		return err
	}
	*s = *NewCellSet(cells...)
	return nil
}
