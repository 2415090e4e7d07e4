package renderer

import (
	"image/color"

	"chart-annotator/internal/dto"
)

// Palette is the color table of one theme. The tables are static lookups and
// are never mutated at runtime.
type Palette struct {
	Support      color.RGBA
	Resistance   color.RGBA
	Pivot        color.RGBA
	Bull         color.RGBA
	Bear         color.RGBA
	CurrentPrice color.RGBA
	Neutral      color.RGBA
	Text         color.RGBA
	LabelBG      color.RGBA
	CaptionBG    color.RGBA
}

var palettes = map[dto.Theme]Palette{
	dto.ThemeDark: {
		Support:      color.RGBA{R: 34, G: 197, B: 94, A: 255},
		Resistance:   color.RGBA{R: 239, G: 68, B: 68, A: 255},
		Pivot:        color.RGBA{R: 245, G: 158, B: 11, A: 255},
		Bull:         color.RGBA{R: 74, G: 222, B: 128, A: 255},
		Bear:         color.RGBA{R: 248, G: 113, B: 113, A: 255},
		CurrentPrice: color.RGBA{R: 59, G: 130, B: 246, A: 255},
		Neutral:      color.RGBA{R: 148, G: 163, B: 184, A: 255},
		Text:         color.RGBA{R: 241, G: 245, B: 249, A: 255},
		LabelBG:      color.RGBA{R: 15, G: 23, B: 42, A: 215},
		CaptionBG:    color.RGBA{R: 15, G: 23, B: 42, A: 190},
	},
	dto.ThemeLight: {
		Support:      color.RGBA{R: 22, G: 163, B: 74, A: 255},
		Resistance:   color.RGBA{R: 220, G: 38, B: 38, A: 255},
		Pivot:        color.RGBA{R: 217, G: 119, B: 6, A: 255},
		Bull:         color.RGBA{R: 21, G: 128, B: 61, A: 255},
		Bear:         color.RGBA{R: 185, G: 28, B: 28, A: 255},
		CurrentPrice: color.RGBA{R: 37, G: 99, B: 235, A: 255},
		Neutral:      color.RGBA{R: 71, G: 85, B: 105, A: 255},
		Text:         color.RGBA{R: 15, G: 23, B: 42, A: 255},
		LabelBG:      color.RGBA{R: 248, G: 250, B: 252, A: 225},
		CaptionBG:    color.RGBA{R: 248, G: 250, B: 252, A: 200},
	},
}

// PaletteFor returns the color table of the requested theme, falling back to
// dark for anything unrecognized.
func PaletteFor(theme dto.Theme) Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[dto.ThemeDark]
}

// roleColor picks the stroke/fill color a mark's semantic role calls for.
func (p Palette) roleColor(role dto.MarkRole) color.RGBA {
	switch role {
	case dto.RoleSupport:
		return p.Support
	case dto.RoleResistance:
		return p.Resistance
	case dto.RolePivot:
		return p.Pivot
	case dto.RoleBullPath, dto.RoleTarget:
		return p.Bull
	case dto.RoleBearPath, dto.RoleInvalidation:
		return p.Bear
	case dto.RoleCurrentPrice:
		return p.CurrentPrice
	default:
		return p.Neutral
	}
}
