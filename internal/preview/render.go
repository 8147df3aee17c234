// Package preview draws generated boards as text, with colour-group styling
// when the output is a terminal.
package preview

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/talgya/boardgen/internal/mapgen"
	"github.com/talgya/boardgen/internal/parcels"
	"github.com/talgya/boardgen/internal/specials"
	"github.com/talgya/boardgen/internal/world"
)

// Board glyphs.
const (
	GlyphRoad         = "="
	GlyphMainRoad     = "#"
	GlyphIntersection = "+"
	GlyphParcel       = "o"
	GlyphParcel2x2    = "O"
)

var specialGlyphs = map[specials.Category]string{
	specials.Hospital: "✚",
	specials.Chance:   "?",
	specials.News:     "✉",
	specials.Bonus:    "$",
	specials.Fee:      "¢",
	specials.Card:     "♦",
}

var sceneryGlyphs = map[world.Scenery]string{
	world.SceneryMeadow: "·",
	world.SceneryGrove:  "♣",
	world.SceneryPond:   "≈",
	world.SceneryRocks:  "▲",
}

// groupHex colours parcels by colour group.
var groupHex = map[string]string{
	"brown":     "8B4513",
	"lightblue": "87CEEB",
	"pink":      "FF69B4",
	"orange":    "FFA500",
	"red":       "E03030",
	"yellow":    "F0E040",
	"green":     "30B050",
	"darkblue":  "3050D0",
}

var (
	styleRoad         = color.Style{color.FgGray}
	styleMainRoad     = color.Style{color.FgWhite, color.OpBold}
	styleIntersection = color.Style{color.FgYellow, color.OpBold}
	styleSpecial      = color.Style{color.FgMagenta, color.OpBold}
	styleScenery      = map[world.Scenery]color.Style{
		world.SceneryMeadow: {color.FgGreen},
		world.SceneryGrove:  {color.FgGreen, color.OpBold},
		world.SceneryPond:   {color.FgBlue},
		world.SceneryRocks:  {color.FgGray},
	}
)

// DefaultWidth is assumed when the writer is not a terminal.
const DefaultWidth = 80

// Options controls rendering.
type Options struct {
	Color  bool // emit ANSI colour
	Width  int  // available columns; boards wider than Width/2 use one column per cell
	Legend bool // append the street and glyph legend
}

// ForWriter detects colour support and width from w.
func ForWriter(w io.Writer) Options {
	opt := Options{Width: DefaultWidth, Legend: true}
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return opt
	}
	opt.Color = true
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		opt.Width = width
	}
	return opt
}

// Render writes the board with y=0 at the bottom.
func Render(w io.Writer, res *mapgen.Result, opt Options) error {
	cellWidth := 2
	if opt.Width > 0 && res.Width*2 > opt.Width {
		cellWidth = 1
	}
	b := res.Bounds()

	var sb strings.Builder
	for y := b.H - 1; y >= 0; y-- {
		for x := 0; x < b.W; x++ {
			glyph, style := cellGlyph(res.Tiles.At(b, world.C(x, y)))
			glyph = runewidth.FillRight(glyph, cellWidth)
			if opt.Color && style != nil {
				glyph = style(glyph)
			}
			sb.WriteString(glyph)
		}
		sb.WriteByte('\n')
	}
	if opt.Legend {
		writeLegend(&sb, res, opt)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// String renders without colour or legend.
func String(res *mapgen.Result) string {
	var sb strings.Builder
	Render(&sb, res, Options{})
	return sb.String()
}

func cellGlyph(t mapgen.Tile) (string, func(...any) string) {
	switch t := t.(type) {
	case mapgen.SpecialTile:
		return specialGlyphs[t.Category], styleSpecial.Sprint
	case mapgen.ParcelTile:
		g := GlyphParcel
		if t.Size == parcels.Size2x2 {
			g = GlyphParcel2x2
		}
		if hex, ok := groupHex[t.Group]; ok {
			return g, color.HEX(hex).Sprint
		}
		return g, nil
	case mapgen.RoadTile:
		switch {
		case t.Intersection:
			return GlyphIntersection, styleIntersection.Sprint
		case t.Main:
			return GlyphMainRoad, styleMainRoad.Sprint
		default:
			return GlyphRoad, styleRoad.Sprint
		}
	case mapgen.EmptyTile:
		return sceneryGlyphs[t.Scenery], styleScenery[t.Scenery].Sprint
	default:
		return " ", nil
	}
}

func writeLegend(sb *strings.Builder, res *mapgen.Result, opt Options) {
	nameWidth := 0
	for _, r := range res.Regions {
		nameWidth = max(nameWidth, runewidth.StringWidth(r.Name))
	}

	fmt.Fprintf(sb, "\n%s  %dx%d  seed %d", res.Mode, res.Width, res.Height, res.Seed)
	if res.Template != "" {
		fmt.Fprintf(sb, "  template %s", res.Template)
	}
	if res.Shape != "" {
		fmt.Fprintf(sb, "  shape %s", res.Shape)
	}
	sb.WriteString("\n\nstreets:\n")
	for _, r := range res.Regions {
		swatch := runewidth.FillRight(r.Group, 10)
		if hex, ok := groupHex[r.Group]; ok && opt.Color {
			swatch = color.HEX(hex).Sprint(swatch)
		}
		fmt.Fprintf(sb, "  %s %s %3d cells %3d parcels\n",
			swatch, runewidth.FillRight(r.Name, nameWidth), len(r.Cells), len(r.Parcels))
	}

	sb.WriteString("\nspecials:")
	for _, c := range specials.Categories {
		fmt.Fprintf(sb, "  %s %s", specialGlyphs[c], c)
	}
	fmt.Fprintf(sb, "\nroads: %s road  %s main  %s junction   parcels: %s 1x1  %s 2x2\n",
		GlyphRoad, GlyphMainRoad, GlyphIntersection, GlyphParcel, GlyphParcel2x2)
}
