// gradient.go - N-stop linear gradient fill along one of three axes.
package generator

import (
	"image"
	"image/draw"
	"math"
	"strings"
)

// Canvas dimensions of every generated image (vertical story format).
const (
	Width  = 1080
	Height = 1920
)

// Direction is the axis a gradient runs along.
type Direction int

const (
	Vertical Direction = iota
	Horizontal
	Diagonal

	// DirectionRandom asks the composer to pick one of the three axes from
	// the render's random source. RenderGradient treats it as Vertical.
	DirectionRandom Direction = -1
)

var directionNames = map[Direction]string{
	Vertical:        "vertical",
	Horizontal:      "horizontal",
	Diagonal:        "diagonal",
	DirectionRandom: "random",
}

func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return "vertical"
}

// ParseDirection maps a name to a Direction. Unrecognized names are Vertical.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal":
		return Horizontal
	case "diagonal":
		return Diagonal
	case "random":
		return DirectionRandom
	default:
		return Vertical
	}
}

// Interpolate returns the palette color at ratio in [0, 1]. Ratio 0 is the
// first stop and ratio 1 the last stop exactly. Channels are truncated,
// not rounded.
func Interpolate(p Palette, ratio float64) Color {
	switch len(p) {
	case 0:
		return White
	case 1:
		return p[0]
	}
	if math.IsNaN(ratio) || ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}

	segment := ratio * float64(len(p)-1)
	i := max(0, min(int(segment), len(p)-2))
	t := segment - float64(i)

	c1, c2 := p[i], p[i+1]
	return Color{
		R: lerp(c1.R, c2.R, t),
		G: lerp(c1.G, c2.G, t),
		B: lerp(c1.B, c2.B, t),
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return ClampChannel(int(float64(a) + (float64(b)-float64(a))*t))
}

// ratioAt maps pos in [0, n-1] to [0, 1] so the first and last positions
// land exactly on the first and last stops.
func ratioAt(pos, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(pos) / float64(n-1)
}

// RenderGradient returns a new Width×Height image filled with the gradient.
func RenderGradient(p Palette, d Direction) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	FillGradient(img, p, d)
	return img
}

// FillGradient paints every pixel of img. An empty palette paints white.
//
// Vertical and horizontal fills interpolate once per row or column and copy
// the result across the other axis. Diagonal ratios depend only on x+y, so
// the W+H-1 distinct colors are computed once into a strip and each row is
// a window into that strip.
func FillGradient(img *image.RGBA, p Palette, d Direction) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return
	}
	if len(p) == 0 {
		p = Palette{White}
	}
	if len(p) == 1 {
		draw.Draw(img, b, &image.Uniform{C: p[0].Opaque()}, image.Point{}, draw.Src)
		return
	}

	rowBytes := w * 4
	row := func(y int) []uint8 {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		return img.Pix[off : off+rowBytes]
	}

	switch d {
	case Horizontal:
		first := row(0)
		for x := 0; x < w; x++ {
			putPixel(first, x, Interpolate(p, ratioAt(x, w)))
		}
		forEachRowBand(h, func(y0, y1 int) {
			for y := max(y0, 1); y < y1; y++ {
				copy(row(y), first)
			}
		})
	case Diagonal:
		span := w + h - 1
		strip := make([]uint8, span*4)
		for s := 0; s < span; s++ {
			putPixel(strip, s, Interpolate(p, ratioAt(s, span)))
		}
		forEachRowBand(h, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				copy(row(y), strip[y*4:y*4+rowBytes])
			}
		})
	default:
		forEachRowBand(h, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				fillRow(row(y), Interpolate(p, ratioAt(y, h)))
			}
		})
	}
}

func putPixel(pix []uint8, x int, c Color) {
	i := x * 4
	pix[i+0] = c.R
	pix[i+1] = c.G
	pix[i+2] = c.B
	pix[i+3] = 255
}

// fillRow writes c into the first pixel and doubles it across the row.
func fillRow(pix []uint8, c Color) {
	if len(pix) < 4 {
		return
	}
	putPixel(pix, 0, c)
	for n := 4; n < len(pix); n *= 2 {
		copy(pix[n:], pix[:n])
	}
}
