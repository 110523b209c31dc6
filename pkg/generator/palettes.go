// palettes.go - Built-in palettes and text colors.
package generator

import "math/rand/v2"

// DefaultPalettes are used when a request carries no palette.
var DefaultPalettes = []Palette{
	// Vibrant
	{{255, 107, 107}, {255, 159, 64}, {255, 206, 84}},
	{{72, 219, 251}, {163, 230, 53}, {18, 183, 106}},
	{{255, 77, 77}, {255, 184, 0}, {255, 255, 0}},
	{{138, 43, 226}, {255, 20, 147}, {255, 105, 180}},
	{{0, 191, 255}, {0, 250, 154}, {50, 205, 50}},
	// Pastel
	{{255, 182, 193}, {255, 218, 185}, {255, 239, 213}},
	{{173, 216, 230}, {176, 224, 230}, {175, 238, 238}},
	// Dark
	{{25, 25, 112}, {72, 61, 139}, {123, 104, 238}},
	{{139, 0, 0}, {178, 34, 34}, {220, 20, 60}},
	// Energetic
	{{255, 69, 0}, {255, 140, 0}, {255, 215, 0}},
}

// TextColors is the weighted set the text color is drawn from.
// White appears three times and black twice.
var TextColors = []Color{White, Black, White, White, Black}

// PickPalette returns a pseudo-random default palette.
func PickPalette(rng *rand.Rand) Palette {
	return DefaultPalettes[rng.IntN(len(DefaultPalettes))]
}

// PickTextColor returns the text color for one image.
func PickTextColor(rng *rand.Rand) Color {
	return TextColors[rng.IntN(len(TextColors))]
}

// ShadowColor is the outline color paired with a text color.
func ShadowColor(text Color) Color {
	if text == White {
		return Black
	}
	return White
}
