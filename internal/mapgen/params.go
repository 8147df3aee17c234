// Package mapgen sequences the board generation pipeline and assembles the
// final tile list and statistics.
package mapgen

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/boardgen/internal/world"
)

// Mode selects how roads and parcels are produced.
type Mode string

const (
	ModeTemplate Mode = "classic-template" // catalog template + ring placer
	ModeFreeForm Mode = "free-form"        // road strategy + random placer
)

// RoadStrategy picks the free-form road generator.
type RoadStrategy string

const (
	RoadsPath    RoadStrategy = "path"
	RoadsClassic RoadStrategy = "classic"
	RoadsGrowth  RoadStrategy = "growth"
	RoadsLoop    RoadStrategy = "loop"
)

// RoadStrategies lists the free-form strategies.
var RoadStrategies = []RoadStrategy{RoadsPath, RoadsClassic, RoadsGrowth, RoadsLoop}

// Parameter bounds. Values outside are clamped, never rejected.
const (
	MinSize, MaxSize               = 20, 100
	MinDensity, MaxDensity         = 0.1, 0.4
	MinParcelRatio, MaxParcelRatio = 0.1, 0.5
	MaxTwoByTwoRatio               = 0.5
	MaxSpacing                     = 3
	MaxSpecialRatio                = 0.2
	MinRounds, MaxRounds           = 100, 10000
)

// Params is the sole input of Generate.
type Params struct {
	Mode           Mode         `json:"mode" yaml:"mode"`
	Width          int          `json:"width" yaml:"width"`
	Height         int          `json:"height" yaml:"height"`
	Seed           int64        `json:"seed" yaml:"seed"`
	Template       string       `json:"template,omitempty" yaml:"template,omitempty"`
	Roads          RoadStrategy `json:"road_strategy,omitempty" yaml:"road_strategy,omitempty"`
	RoadDensity    float64      `json:"road_density" yaml:"road_density"`
	ParcelRatio    float64      `json:"parcel_ratio" yaml:"parcel_ratio"`
	TwoByTwoRatio  float64      `json:"parcel_2x2_ratio" yaml:"parcel_2x2_ratio"`
	MinSpacing     int          `json:"min_parcel_spacing" yaml:"min_parcel_spacing"`
	SpecialRatio   float64      `json:"special_ratio" yaml:"special_ratio"`
	TrafficRounds  int          `json:"traffic_rounds" yaml:"traffic_rounds"`
	StartPositions []world.Cell `json:"start_positions" yaml:"start_positions"`
}

// DefaultParams returns a 40x40 template board.
func DefaultParams() Params {
	return Params{
		Mode:           ModeTemplate,
		Width:          40,
		Height:         40,
		Roads:          RoadsClassic,
		RoadDensity:    0.2,
		ParcelRatio:    0.3,
		TwoByTwoRatio:  0.15,
		MinSpacing:     0,
		SpecialRatio:   0.2,
		TrafficRounds:  1000,
		StartPositions: []world.Cell{{}},
	}
}

// Preset names.
const (
	PresetSmall   = "small"
	PresetMedium  = "medium"
	PresetLarge   = "large"
	PresetClassic = "classic"
)

// Presets lists the preset names in display order.
var Presets = []string{PresetSmall, PresetMedium, PresetLarge, PresetClassic}

// Preset returns the named parameter set.
func Preset(name string) (Params, error) {
	p := DefaultParams()
	switch strings.ToLower(name) {
	case PresetSmall:
		p.Mode, p.Width, p.Height, p.RoadDensity, p.ParcelRatio = ModeFreeForm, 30, 30, 0.2, 0.3
	case PresetMedium:
		p.Mode, p.Width, p.Height, p.RoadDensity, p.ParcelRatio = ModeFreeForm, 50, 50, 0.25, 0.35
	case PresetLarge:
		p.Mode, p.Width, p.Height, p.RoadDensity, p.ParcelRatio = ModeFreeForm, 80, 80, 0.3, 0.4
	case PresetClassic:
		p.Mode, p.Width, p.Height = ModeTemplate, 40, 40
		p.RoadDensity, p.ParcelRatio, p.TwoByTwoRatio, p.MinSpacing = 0.25, 0.35, 0.2, 2
	default:
		return Params{}, fmt.Errorf("unknown preset %q (want one of %s)", name, strings.Join(Presets, ", "))
	}
	return p, nil
}

// LoadParams reads a YAML parameter file over the defaults.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("reading params file: %w", err)
	}
	p := DefaultParams()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("parsing params YAML: %w", err)
	}
	return p, nil
}

// Normalize clamps every field into range and fills defaults. It returns one
// message per adjusted field.
func (p *Params) Normalize() []string {
	var notes []string
	note := func(field string, from, to any) {
		notes = append(notes, fmt.Sprintf("%s adjusted from %v to %v", field, from, to))
	}

	switch p.Mode {
	case ModeTemplate, ModeFreeForm:
	default:
		note("mode", p.Mode, ModeTemplate)
		p.Mode = ModeTemplate
	}
	if !validStrategy(p.Roads) {
		if p.Roads != "" {
			note("road_strategy", p.Roads, RoadsClassic)
		}
		p.Roads = RoadsClassic
	}

	clampInt := func(field string, v *int, lo, hi int) {
		if c := min(max(*v, lo), hi); c != *v {
			note(field, *v, c)
			*v = c
		}
	}
	clampFloat := func(field string, v *float64, lo, hi float64) {
		if c := min(max(*v, lo), hi); c != *v {
			note(field, *v, c)
			*v = c
		}
	}
	clampInt("width", &p.Width, MinSize, MaxSize)
	clampInt("height", &p.Height, MinSize, MaxSize)
	clampFloat("road_density", &p.RoadDensity, MinDensity, MaxDensity)
	clampFloat("parcel_ratio", &p.ParcelRatio, MinParcelRatio, MaxParcelRatio)
	clampFloat("parcel_2x2_ratio", &p.TwoByTwoRatio, 0, MaxTwoByTwoRatio)
	clampInt("min_parcel_spacing", &p.MinSpacing, 0, MaxSpacing)
	clampFloat("special_ratio", &p.SpecialRatio, 0, MaxSpecialRatio)
	clampInt("traffic_rounds", &p.TrafficRounds, MinRounds, MaxRounds)

	if len(p.StartPositions) == 0 {
		p.StartPositions = []world.Cell{{}}
	}
	return notes
}

// Bounds returns the board size.
func (p Params) Bounds() world.Bounds {
	return world.Bounds{W: p.Width, H: p.Height}
}

func validStrategy(s RoadStrategy) bool {
	return slices.Contains(RoadStrategies, s)
}
