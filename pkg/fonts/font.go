// font.go - Parsed font assets and the handles handed to the renderer.
// A Handle wraps a parsed OpenType font (shared, read-only) and creates a
// fresh font.Face per render, since faces carry glyph caches and are not
// safe for concurrent use. The built-in fallback is basicfont.Face7x13.
package fonts

import (
	"bytes"
	"fmt"

	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// BuiltinName identifies the minimal built-in font.
const BuiltinName = "builtin:7x13"

// loadedFont is a successfully parsed font asset.
type loadedFont struct {
	name string
	data []byte
	otf  *opentype.Font
	// cmap is nil when go-text cannot read the file (e.g. collections);
	// coverage then falls back to the sfnt cmap lookup.
	cmap *gotext.Font
}

// parseFont parses a TrueType/OpenType file or the first font of a
// collection.
func parseFont(name string, data []byte) (*loadedFont, error) {
	otf, err := opentype.Parse(data)
	if err != nil {
		coll, cerr := opentype.ParseCollection(data)
		if cerr != nil {
			return nil, fmt.Errorf("parse font %s: %w", name, err)
		}
		otf, cerr = coll.Font(0)
		if cerr != nil {
			return nil, fmt.Errorf("parse font %s: %w", name, cerr)
		}
	}
	lf := &loadedFont{name: name, data: data, otf: otf}
	if face, err := gotext.ParseTTF(bytes.NewReader(data)); err == nil {
		lf.cmap = face.Font
	}
	return lf, nil
}

func (lf *loadedFont) hasGlyph(r rune) bool {
	if lf.cmap != nil {
		_, ok := lf.cmap.NominalGlyph(r)
		return ok
	}
	gid, err := lf.otf.GlyphIndex(nil, r)
	return err == nil && gid != 0
}

func (lf *loadedFont) face(size float64) (font.Face, error) {
	face, err := opentype.NewFace(lf.otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// Handle is a resolved font at a point size. Handles are immutable and may
// be shared between goroutines; call NewFace for a per-render face.
type Handle struct {
	// Name is the candidate name (file path, provider name, or BuiltinName).
	Name string
	// Size is the requested point size. The built-in font ignores it.
	Size float64
	// Script is the script this handle was resolved for, or NoScript.
	Script language.Script
	// Degraded is set when a script font was required but none passed the
	// probe.
	Degraded bool

	font *loadedFont
}

// Builtin returns the built-in fallback handle.
func Builtin(size float64, script language.Script) *Handle {
	return &Handle{Name: BuiltinName, Size: size, Script: script, Degraded: script != NoScript}
}

func newHandle(lf *loadedFont, size float64, script language.Script) *Handle {
	return &Handle{Name: lf.name, Size: size, Script: script, font: lf}
}

// IsBuiltin reports whether h uses the built-in bitmap font.
func (h *Handle) IsBuiltin() bool { return h.font == nil }

// NewFace returns a new face for this handle. The caller owns it.
func (h *Handle) NewFace() (font.Face, error) {
	if h.font == nil {
		return basicfont.Face7x13, nil
	}
	return h.font.face(h.Size)
}

// Covers reports whether the font maps r to a real glyph.
func (h *Handle) Covers(r rune) bool {
	if h.font == nil {
		for _, rng := range basicfont.Face7x13.Ranges {
			if rng.Low <= r && r < rng.High {
				return true
			}
		}
		return false
	}
	return h.font.hasGlyph(r)
}

// CoversAll reports whether every non-space rune of s is covered.
func (h *Handle) CoversAll(s string) bool {
	for _, r := range s {
		if r == ' ' || r == '\t' {
			continue
		}
		if !h.Covers(r) {
			return false
		}
	}
	return true
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s@%gpt", h.Name, h.Size)
}
