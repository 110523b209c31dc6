// overlay.go - Semi-transparent decorative shapes drawn over the gradient.
package generator

import (
	"image"
	"math/rand/v2"

	"github.com/fogleman/gg"
)

// Overlay shape counts and ranges (inclusive).
const (
	minEllipses, maxEllipses = 3, 6
	minLines, maxLines       = 2, 4

	minEllipseRadius, maxEllipseRadius = 100, 400
	minEllipseAlpha, maxEllipseAlpha   = 30, 100
	minLineAlpha, maxLineAlpha         = 50, 150
	minLineWidth, maxLineWidth         = 3, 8
)

// ApplyOverlay draws filled circles and then line strokes over img, in place.
// Every shape color is a stop of p, alpha-blended over the existing pixels.
// All randomness comes from rng.
func ApplyOverlay(img *image.RGBA, p Palette, rng *rand.Rand) {
	if len(p) == 0 {
		p = Palette{White}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dc := gg.NewContextForRGBA(img)

	for range between(rng, minEllipses, maxEllipses) {
		x := float64(rng.IntN(w + 1))
		y := float64(rng.IntN(h + 1))
		r := float64(between(rng, minEllipseRadius, maxEllipseRadius))
		c := p[rng.IntN(len(p))]
		dc.SetColor(c.WithAlpha(uint8(between(rng, minEllipseAlpha, maxEllipseAlpha))))
		dc.DrawEllipse(x, y, r, r)
		dc.Fill()
	}

	for range between(rng, minLines, maxLines) {
		x1 := float64(rng.IntN(w + 1))
		y1 := float64(rng.IntN(h + 1))
		x2 := float64(rng.IntN(w + 1))
		y2 := float64(rng.IntN(h + 1))
		c := p[rng.IntN(len(p))]
		dc.SetColor(c.WithAlpha(uint8(between(rng, minLineAlpha, maxLineAlpha))))
		dc.SetLineWidth(float64(between(rng, minLineWidth, maxLineWidth)))
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}
}

// between returns a uniform integer in [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}
