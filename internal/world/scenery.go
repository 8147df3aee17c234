// Scenery decoration using layered simplex noise.
// Empty cells get a terrain label derived from elevation and moisture fields,
// seeded from the board seed so the same board always looks the same.
package world

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Scenery labels unused land for renderers.
type Scenery uint8

const (
	SceneryMeadow Scenery = iota // Default open ground
	SceneryGrove                 // Trees
	SceneryPond                  // Standing water in low ground
	SceneryRocks                 // High, dry ground
)

// SceneryName returns a lower-case label for a scenery type.
func SceneryName(s Scenery) string {
	switch s {
	case SceneryMeadow:
		return "meadow"
	case SceneryGrove:
		return "grove"
	case SceneryPond:
		return "pond"
	case SceneryRocks:
		return "rocks"
	default:
		return "unknown"
	}
}

func (s Scenery) String() string {
	return SceneryName(s)
}

// MarshalText encodes the label.
func (s Scenery) MarshalText() ([]byte, error) {
	return []byte(SceneryName(s)), nil
}

// UnmarshalText decodes a label; unknown labels read as meadow.
func (s *Scenery) UnmarshalText(b []byte) error {
	for _, v := range []Scenery{SceneryMeadow, SceneryGrove, SceneryPond, SceneryRocks} {
		if SceneryName(v) == string(b) {
			*s = v
			return nil
		}
	}
	*s = SceneryMeadow
	return nil
}

// ScenerySampler classifies cells from two independent noise layers.
type ScenerySampler struct {
	elevation opensimplex.Noise
	moisture  opensimplex.Noise
}

// NewScenerySampler seeds both layers from the board seed.
func NewScenerySampler(seed int64) *ScenerySampler {
	return &ScenerySampler{
		elevation: opensimplex.NewNormalized(seed),
		moisture:  opensimplex.NewNormalized(seed + 1),
	}
}

// At returns the scenery for a cell.
func (s *ScenerySampler) At(c Cell) Scenery {
	x, y := float64(c.X), float64(c.Y)
	elev := octaveNoise(s.elevation, x, y, 3, 0.09, 0.5)
	moist := octaveNoise(s.moisture, x, y, 2, 0.07, 0.5)
	return deriveScenery(elev, moist)
}

// deriveScenery maps noise values to a label.
func deriveScenery(elev, moist float64) Scenery {
	if elev < 0.3 && moist > 0.55 {
		return SceneryPond
	}
	if elev > 0.68 && moist < 0.45 {
		return SceneryRocks
	}
	if moist > 0.52 {
		return SceneryGrove
	}
	return SceneryMeadow
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
