package streets

import (
	"fmt"

	"github.com/talgya/boardgen/internal/entropy"
)

var namePrefixes = []string{
	"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black", "Silver",
	"Red", "White", "Dark", "Bright", "High", "Low", "Old", "New",
	"Far", "Deep", "Long", "Broad", "Gold", "Frost", "Storm", "Thorn",
	"Elm", "Oak", "Pine", "Copper", "River",
}

var nameSuffixes = []string{
	"haven", "ford", "hollow", "wick", "bridge", "gate", "keep", "stead",
	"wood", "field", "dale", "crest", "vale", "port", "town", "bury",
	"marsh", "well", "brook", "cliff", "moor", "ridge", "watch", "fall",
	"rest", "point", "reach", "helm",
}

// nameTries bounds the redraws before a numbered variant is used.
const nameTries = 16

// Namer draws unique compound street names.
type Namer struct {
	rng  *entropy.Stream
	used map[string]int
}

// NewNamer creates a name generator on the given stream.
func NewNamer(rng *entropy.Stream) *Namer {
	return &Namer{rng: rng, used: make(map[string]int)}
}

// Next returns a name not handed out before.
func (n *Namer) Next() string {
	var name string
	for try := 0; try < nameTries; try++ {
		name = entropy.Pick(n.rng, namePrefixes) + entropy.Pick(n.rng, nameSuffixes)
		if n.used[name] == 0 {
			n.used[name] = 1
			return name
		}
	}
	n.used[name]++
	numbered := fmt.Sprintf("%s %d", name, n.used[name])
	n.used[numbered] = 1
	return numbered
}

// AssignNames names every region in order.
func AssignNames(regions []Region, rng *entropy.Stream) {
	n := NewNamer(rng)
	for i := range regions {
		regions[i].Name = n.Next()
	}
}
