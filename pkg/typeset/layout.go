// layout.go - Font size policy, greedy word wrapping and block placement.
// Layout is a pure function of its inputs: explicit newlines start new
// paragraphs, each paragraph is wrapped on its own, and paragraphs are
// separated by exactly one blank line.
package typeset

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/text/unicode/norm"
)

const (
	// BaseFontSize is the point size used for short texts.
	BaseFontSize = 120
	// LineSpacing multiplies the font size to get the line advance.
	LineSpacing = 1.4
	// MarginX is the horizontal margin on each side of the canvas.
	MarginX = 100
)

// FontSize picks the point size for text from its rune count. Thresholds
// apply to the original text, not the wrapped lines.
func FontSize(text string) float64 {
	n := utf8.RuneCountInString(text)
	var scale float64
	switch {
	case n > 100:
		scale = 0.6
	case n > 50:
		scale = 0.7
	case n > 30:
		scale = 0.85
	default:
		return BaseFontSize
	}
	return float64(int(BaseFontSize * scale))
}

// LineHeight is the vertical advance between lines at size.
func LineHeight(size float64) int {
	return int(size * LineSpacing)
}

// Measurer reports the rendered width of a string in pixels.
type Measurer interface {
	Measure(s string) int
}

// FaceMeasurer measures with a font face's advances.
type FaceMeasurer struct {
	Face font.Face
}

func (m FaceMeasurer) Measure(s string) int {
	return font.MeasureString(m.Face, s).Ceil()
}

// Line is one laid-out line. A blank separator has empty Text.
type Line struct {
	Text  string
	Width int
}

// Blank reports whether l is a paragraph separator.
func (l Line) Blank() bool { return l.Text == "" }

// Layout wraps text into lines no wider than maxWidth where possible. A
// single word wider than maxWidth is placed alone on its line, never split.
// Text is NFC-normalized first so composed and decomposed input measure the
// same.
func Layout(text string, m Measurer, maxWidth int) []Line {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []Line
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, Line{})
		}
		out = append(out, wrap(words, m, maxWidth)...)
	}
	return out
}

func wrap(words []string, m Measurer, maxWidth int) []Line {
	var lines []Line
	cur := words[0]
	curWidth := m.Measure(cur)
	for _, w := range words[1:] {
		candidate := cur + " " + w
		if width := m.Measure(candidate); width <= maxWidth {
			cur, curWidth = candidate, width
			continue
		}
		lines = append(lines, Line{Text: cur, Width: curWidth})
		cur, curWidth = w, m.Measure(w)
	}
	return append(lines, Line{Text: cur, Width: curWidth})
}

// Placement is a line positioned on the canvas. Top is the top of the line
// box and Baseline the y passed to the glyph drawer.
type Placement struct {
	Line
	Index    int
	X        int
	Top      int
	Baseline int
}

// Place centers the block of lines vertically in a width x height canvas
// and each line horizontally on its own width.
func Place(lines []Line, size float64, ascent, width, height int) []Placement {
	lh := LineHeight(size)
	startY := floorDiv(height-len(lines)*lh, 2)
	out := make([]Placement, len(lines))
	for i, l := range lines {
		top := startY + i*lh
		out[i] = Placement{
			Line:     l,
			Index:    i,
			X:        floorDiv(width-l.Width, 2),
			Top:      top,
			Baseline: top + ascent,
		}
	}
	return out
}

// floorDiv rounds toward negative infinity so oversized blocks stay
// centered.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
