// probe.go - Glyph coverage checks for candidate fonts.

package fonts

import (
	"golang.org/x/image/font"
)

const (
	// probeMinWidth is the ink width in pixels the probe character must
	// exceed for a font to count as script-capable.
	probeMinWidth = 5
	// probeMinSize keeps tiny requested sizes from failing the width test.
	probeMinSize = 20
)

// probeFunc decides whether a parsed font renders the script described by
// info at size.
type probeFunc func(lf *loadedFont, info scriptInfo, size float64) bool

// probe checks the cmap for the representative character, then measures its
// ink bounds. The cmap check rejects fonts whose .notdef box would otherwise
// pass the width test.
func probe(lf *loadedFont, info scriptInfo, size float64) bool {
	if !lf.hasGlyph(info.probe) {
		return false
	}
	face, err := lf.face(max(size, probeMinSize))
	if err != nil {
		return false
	}
	defer face.Close()
	bounds, _ := font.BoundString(face, string(info.probe))
	return (bounds.Max.X - bounds.Min.X).Ceil() > probeMinWidth
}
