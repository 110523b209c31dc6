// color.go - RGB color model, channel clamping and palette normalization.
package generator

import (
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/xob0t/storycard/internal/logging"
)

// Color is an opaque 8-bit RGB color.
type Color struct {
	R, G, B uint8
}

var (
	White = Color{255, 255, 255}
	Black = Color{0, 0, 0}
)

// RGBA implements color.Color. Colors are always fully opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.Opaque().RGBA()
}

// Opaque returns c as a color.RGBA with full alpha.
func (c Color) Opaque() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// WithAlpha returns c as a non-premultiplied color with the given alpha.
func (c Color) WithAlpha(a uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Palette is an ordered list of gradient stops. Order defines stop order.
type Palette []Color

// ClampChannel clamps v into [0, 255].
func ClampChannel(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

// ParseColor parses a "#rrggbb" string.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: expected 6-char hex", s)
	}

	rv, err := strconv.ParseUint(hex[0:2], 16, 8)
	if err != nil {
		return Color{}, fmt.Errorf("invalid red channel in %q: %w", s, err)
	}
	gv, err := strconv.ParseUint(hex[2:4], 16, 8)
	if err != nil {
		return Color{}, fmt.Errorf("invalid green channel in %q: %w", s, err)
	}
	bv, err := strconv.ParseUint(hex[4:6], 16, 8)
	if err != nil {
		return Color{}, fmt.Errorf("invalid blue channel in %q: %w", s, err)
	}
	return Color{uint8(rv), uint8(gv), uint8(bv)}, nil
}

// ParseHexPalette parses a comma-separated list of "#rrggbb" colors.
// Malformed entries are kept as strings so NormalizePalette can report them.
func ParseHexPalette(list string) []any {
	var out []any
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ColorFromValue coerces a loosely typed color entry into a Color.
// Accepted forms: Color, color.Color, a sequence of at least three numbers,
// an object with r/g/b keys (a missing key reads as 255), or a hex string.
// Channels are truncated toward zero and clamped into [0, 255].
func ColorFromValue(v any) (Color, error) {
	switch c := v.(type) {
	case Color:
		return c, nil
	case string:
		return ParseColor(c)
	case []int:
		if len(c) < 3 {
			return Color{}, fmt.Errorf("color %v: need 3 channels, got %d", c, len(c))
		}
		return Color{ClampChannel(c[0]), ClampChannel(c[1]), ClampChannel(c[2])}, nil
	case []float64:
		vals := make([]any, len(c))
		for i := range c {
			vals[i] = c[i]
		}
		return colorFromSlice(vals)
	case []any:
		return colorFromSlice(c)
	case map[string]any:
		return colorFromObject(c)
	case color.Color:
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		return Color{n.R, n.G, n.B}, nil
	case nil:
		return Color{}, fmt.Errorf("color is null")
	default:
		return Color{}, fmt.Errorf("unsupported color value %v (%T)", v, v)
	}
}

func colorFromSlice(vals []any) (Color, error) {
	if len(vals) < 3 {
		return Color{}, fmt.Errorf("color %v: need 3 channels, got %d", vals, len(vals))
	}
	var ch [3]uint8
	for i := range ch {
		n, err := channel(vals[i])
		if err != nil {
			return Color{}, fmt.Errorf("color %v channel %d: %w", vals, i, err)
		}
		ch[i] = n
	}
	return Color{ch[0], ch[1], ch[2]}, nil
}

func colorFromObject(obj map[string]any) (Color, error) {
	var ch [3]uint8
	for i, key := range [3]string{"r", "g", "b"} {
		raw, ok := obj[key]
		if !ok {
			ch[i] = 255
			continue
		}
		n, err := channel(raw)
		if err != nil {
			return Color{}, fmt.Errorf("color %v key %q: %w", obj, key, err)
		}
		ch[i] = n
	}
	return Color{ch[0], ch[1], ch[2]}, nil
}

// channel converts one numeric-ish value into a clamped channel.
func channel(v any) (uint8, error) {
	var f float64
	switch n := v.(type) {
	case int:
		return ClampChannel(n), nil
	case int64:
		f = float64(n)
	case uint8:
		return n, nil
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric channel %q", n)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("non-numeric channel %v (%T)", v, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite channel %v", f)
	}
	f = math.Trunc(f)
	switch {
	case f < 0:
		return 0, nil
	case f > 255:
		return 255, nil
	default:
		return uint8(f), nil
	}
}

// NormalizePalette validates raw color entries. Malformed entries are
// dropped with a warning; an empty result becomes a single white stop.
// It never fails.
func NormalizePalette(entries []any, logger *slog.Logger) Palette {
	logger = logging.Or(logger)

	out := make(Palette, 0, len(entries))
	for i, e := range entries {
		c, err := ColorFromValue(e)
		if err != nil {
			logger.Warn("invalid palette color, skipping", "index", i, "err", err)
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		logger.Warn("no valid palette colors, using white")
		return Palette{White}
	}
	return out
}
