package generator

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"log/slog"
	"math/rand/v2"
	"strings"
	"testing"
)

var (
	red  = Color{255, 0, 0}
	blue = Color{0, 0, 255}
)

func at(img *image.RGBA, x, y int) Color {
	c := img.RGBAAt(x, y)
	return Color{c.R, c.G, c.B}
}

func TestHorizontalRedBlue(t *testing.T) {
	img := RenderGradient(Palette{red, blue}, Horizontal)

	if b := img.Bounds(); b.Dx() != Width || b.Dy() != Height {
		t.Fatalf("bounds = %v", b)
	}
	for _, y := range []int{0, Height / 2, Height - 1} {
		if got := at(img, 0, y); got != red {
			t.Errorf("(0,%d) = %v, want red", y, got)
		}
		if got := at(img, Width-1, y); got != blue {
			t.Errorf("(%d,%d) = %v, want blue", Width-1, y, got)
		}
		if got := at(img, Width/2, y); got != (Color{127, 0, 127}) {
			t.Errorf("(%d,%d) = %v, want (127,0,127)", Width/2, y, got)
		}
	}
}

func TestGradientEdges(t *testing.T) {
	p := Palette{red, {0, 255, 0}, blue}
	tests := []struct {
		dir         Direction
		first, last image.Point
	}{
		{Vertical, image.Pt(500, 0), image.Pt(500, Height-1)},
		{Horizontal, image.Pt(0, 900), image.Pt(Width-1, 900)},
		{Diagonal, image.Pt(0, 0), image.Pt(Width-1, Height-1)},
	}
	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			img := RenderGradient(p, tt.dir)
			if got := at(img, tt.first.X, tt.first.Y); got != red {
				t.Errorf("first = %v, want red", got)
			}
			if got := at(img, tt.last.X, tt.last.Y); got != blue {
				t.Errorf("last = %v, want blue", got)
			}
			for i := 3; i < len(img.Pix); i += 4 {
				if img.Pix[i] != 255 {
					t.Fatalf("pixel %d not opaque", i/4)
				}
			}
		})
	}
}

func TestGradientAxes(t *testing.T) {
	p := Palette{red, blue}

	v := RenderGradient(p, Vertical)
	if at(v, 0, 700) != at(v, Width-1, 700) {
		t.Error("vertical rows must be uniform")
	}
	h := RenderGradient(p, Horizontal)
	if at(h, 300, 0) != at(h, 300, Height-1) {
		t.Error("horizontal columns must be uniform")
	}
	d := RenderGradient(p, Diagonal)
	if at(d, 10, 20) != at(d, 20, 10) {
		t.Error("diagonal color must depend on x+y only")
	}
}

func TestGradientDegeneratePalettes(t *testing.T) {
	img := RenderGradient(Palette{{10, 20, 30}}, Diagonal)
	for _, pt := range []image.Point{{0, 0}, {Width - 1, Height - 1}, {400, 1000}} {
		if got := at(img, pt.X, pt.Y); got != (Color{10, 20, 30}) {
			t.Errorf("single stop at %v = %v", pt, got)
		}
	}
	empty := RenderGradient(nil, Horizontal)
	if got := at(empty, 500, 500); got != White {
		t.Errorf("empty palette = %v, want white", got)
	}
}

func TestInterpolate(t *testing.T) {
	p := Palette{{0, 0, 0}, {100, 200, 255}}
	tests := []struct {
		ratio float64
		want  Color
	}{
		{-1, Color{0, 0, 0}},
		{0, Color{0, 0, 0}},
		{0.5, Color{50, 100, 127}},
		{1, Color{100, 200, 255}},
		{2, Color{100, 200, 255}},
	}
	for _, tt := range tests {
		if got := Interpolate(p, tt.ratio); got != tt.want {
			t.Errorf("Interpolate(%v) = %v, want %v", tt.ratio, got, tt.want)
		}
	}
}

func TestParseDirection(t *testing.T) {
	tests := map[string]Direction{
		"vertical":     Vertical,
		" Horizontal ": Horizontal,
		"DIAGONAL":     Diagonal,
		"random":       DirectionRandom,
		"sideways":     Vertical,
		"":             Vertical,
	}
	for in, want := range tests {
		if got := ParseDirection(in); got != want {
			t.Errorf("ParseDirection(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestColorFromValue(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    Color
		wantErr bool
	}{
		{"hex", "#ff8000", Color{255, 128, 0}, false},
		{"bad hex", "#ff80", Color{}, true},
		{"ints clamp", []int{300, -5, 12}, Color{255, 0, 12}, false},
		{"floats truncate", []float64{12.9, 0.2, 254.99}, Color{12, 0, 254}, false},
		{"json array", []any{1.0, "2", json.Number("3")}, Color{1, 2, 3}, false},
		{"short array", []any{1.0, 2.0}, Color{}, true},
		{"non numeric", []any{"x", 2.0, 3.0}, Color{}, true},
		{"object", map[string]any{"r": 10.0, "g": 20.0, "b": 30.0}, Color{10, 20, 30}, false},
		{"object missing key", map[string]any{"r": 0.0, "g": 0.0}, Color{0, 0, 255}, false},
		{"object bad key", map[string]any{"r": true}, Color{}, true},
		{"std color", color.RGBA{1, 2, 3, 255}, Color{1, 2, 3}, false},
		{"nil", nil, Color{}, true},
		{"bool", true, Color{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ColorFromValue(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizePalette(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	got := NormalizePalette([]any{"#000000", "garbage", []any{1.0}, []int{255, 255, 0}}, logger)
	if len(got) != 2 || got[0] != Black || got[1] != (Color{255, 255, 0}) {
		t.Errorf("NormalizePalette = %v", got)
	}
	if n := strings.Count(buf.String(), "invalid palette color"); n != 2 {
		t.Errorf("logged %d warnings, want 2:\n%s", n, buf.String())
	}

	if got := NormalizePalette([]any{"nope"}, logger); len(got) != 1 || got[0] != White {
		t.Errorf("all-invalid palette = %v, want [white]", got)
	}
	if got := NormalizePalette(nil, nil); len(got) != 1 || got[0] != White {
		t.Errorf("empty palette = %v, want [white]", got)
	}
}

func TestShadowColor(t *testing.T) {
	if ShadowColor(White) != Black || ShadowColor(Black) != White {
		t.Error("shadow must contrast with the text color")
	}
	if len(TextColors) != 5 {
		t.Errorf("TextColors = %v", TextColors)
	}
}

func TestApplyOverlayDeterministic(t *testing.T) {
	p := Palette{red, blue}
	render := func(seed uint64) *image.RGBA {
		img := RenderGradient(Palette{Black}, Vertical)
		ApplyOverlay(img, p, rand.New(rand.NewPCG(seed, 0)))
		return img
	}

	a, b := render(7), render(7)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("same seed must produce the same overlay")
	}
	if bytes.Equal(a.Pix, RenderGradient(Palette{Black}, Vertical).Pix) {
		t.Error("overlay drew nothing")
	}
	if bytes.Equal(a.Pix, render(8).Pix) {
		t.Error("different seeds should differ")
	}

	// Only palette hues appear: green never gains over a black base.
	for i := 0; i < len(a.Pix); i += 4 {
		if a.Pix[i+1] != 0 {
			t.Fatalf("pixel %d has green %d", i/4, a.Pix[i+1])
		}
	}
}

func TestFilename(t *testing.T) {
	name := Filename("storycard", 1700000000123, 7)
	if name != "storycard_1700000000123_007.png" {
		t.Errorf("Filename = %q", name)
	}
	prefix, stamp, index, ok := ParseFilename(name)
	if !ok || prefix != "storycard" || stamp != 1700000000123 || index != 7 {
		t.Errorf("ParseFilename = %q %d %d %v", prefix, stamp, index, ok)
	}
	if Filename("x", 1, 1234) != "x_1_1234.png" {
		t.Error("wide indices are not truncated")
	}
	for _, bad := range []string{"x.png", "a_1_01.png", "a_b_001.png", "../a_1_001.png.txt"} {
		if _, _, _, ok := ParseFilename(bad); ok {
			t.Errorf("ParseFilename(%q) accepted", bad)
		}
	}
}
