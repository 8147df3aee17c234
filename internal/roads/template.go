package roads

import (
	"github.com/talgya/boardgen/internal/templates"
	"github.com/talgya/boardgen/internal/world"
)

// FromTemplate classifies a template build: outer ring cells are main roads,
// everything else (inner rings, bridges, detours) is side road.
func FromTemplate(b world.Bounds, build *templates.Build) *Network {
	n := NewNetwork(b)
	main := world.NewCellSet()
	if outer := build.Outer(); outer != nil {
		main.AddAll(outer.Path)
	}
	build.Roads.Each(func(c world.Cell) {
		n.Add(c, main.Has(c))
	})
	return n.Finish()
}
