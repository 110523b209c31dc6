package request

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/xob0t/storycard/pkg/generator"
)

func TestParseTexts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"blank only", "  \n\n \t\n", nil},
		{"numbered", "1. first\n2. second", []string{"first", "second"}},
		{"paren markers", "1) one\n2)two", []string{"one", "two"}},
		{"continuation", "1. first\ncontinued here\n2. second", []string{"first\ncontinued here", "second"}},
		{"blank ends item", "1. first\n\nloose line\n2. second", []string{"first", "loose line", "second"}},
		{"unnumbered lines join", "alpha\nbeta", []string{"alpha\nbeta"}},
		{"blank separates unnumbered", "alpha\n\nbeta", []string{"alpha", "beta"}},
		{"indented markers", "  1.  spaced  \n   2. more", []string{"spaced", "more"}},
		{"empty marker dropped", "1.\n2. real", []string{"real"}},
		{"crlf", "1. a\r\n2. b\r\n", []string{"a", "b"}},
		{"digits without marker", "2024 was a year\n10 things", []string{"2024 was a year\n10 things"}},
		{"marker mid line", "call 911. now", []string{"call 911. now"}},
		{"unicode", "1. ሰላም\n2. ዓለም", []string{"ሰላም", "ዓለም"}},
		{"multi digit", "10. ten\n11. eleven", []string{"ten", "eleven"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTexts(tt.in)
			if err != nil {
				t.Fatalf("ParseTexts: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseTexts(%q) = %q, want %q", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecodeBatch(t *testing.T) {
	in := `{
		"texts": ["a", "  ", "b"],
		"gradient_colors": [{"r": 255, "g": 0, "b": 0}, {"g": 0, "b": 255}, "#00ff00", [1, 2, 3]],
		"gradient_direction": "horizontal",
		"seed": 42
	}`
	b, err := DecodeBatch(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	reqs := Merge(b, nil)
	if len(reqs) != 2 {
		t.Fatalf("requests = %d, want 2", len(reqs))
	}
	want := generator.Palette{{R: 255, G: 0, B: 0}, {R: 255, G: 0, B: 255}, {R: 0, G: 255, B: 0}, {R: 1, G: 2, B: 3}}
	for _, r := range reqs {
		if len(r.Palette) != len(want) {
			t.Fatalf("palette = %v", r.Palette)
		}
		for i := range want {
			if r.Palette[i] != want[i] {
				t.Errorf("palette[%d] = %v, want %v", i, r.Palette[i], want[i])
			}
		}
		if r.Direction != generator.Horizontal || r.Seed != 42 {
			t.Errorf("request = %+v", r)
		}
	}

	if _, err := DecodeBatch(strings.NewReader("{nope")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestMergeOverrides(t *testing.T) {
	b := &Batch{
		Texts:     []string{"plain"},
		Text:      "1. parsed one\n2. parsed two",
		Colors:    []any{"#000000", "#ffffff"},
		Direction: "diagonal",
		Items: []Item{
			{Text: "own", Colors: []any{"#ff0000"}, Direction: "horizontal", Seed: 5},
			{Text: "inherits"},
			{Text: "   "},
		},
	}
	reqs := Merge(b, nil)

	texts := make([]string, len(reqs))
	for i, r := range reqs {
		texts[i] = r.Text
	}
	if got := strings.Join(texts, "|"); got != "plain|parsed one|parsed two|own|inherits" {
		t.Fatalf("order = %s", got)
	}

	own := reqs[3]
	if len(own.Palette) != 1 || own.Palette[0] != (generator.Color{R: 255}) || own.Direction != generator.Horizontal || own.Seed != 5 {
		t.Errorf("own = %+v", own)
	}
	inh := reqs[4]
	if len(inh.Palette) != 2 || inh.Direction != generator.Diagonal {
		t.Errorf("inherits = %+v", inh)
	}
}

func TestMergeWithoutColors(t *testing.T) {
	reqs := Merge(&Batch{Texts: []string{"x"}, Direction: "random"}, nil)
	if len(reqs) != 1 || reqs[0].Palette != nil {
		t.Fatalf("requests = %+v, want nil palette", reqs)
	}
	if reqs[0].Direction != generator.DirectionRandom {
		t.Errorf("direction = %v", reqs[0].Direction)
	}

	// All-invalid colors become a single white stop, not a random palette.
	reqs = Merge(&Batch{Texts: []string{"x"}, Colors: []any{"bad", nil}}, nil)
	if len(reqs[0].Palette) != 1 || reqs[0].Palette[0] != generator.White {
		t.Errorf("palette = %v, want [white]", reqs[0].Palette)
	}
}

func TestValidate(t *testing.T) {
	b := &Batch{
		Texts:     []string{"ok", ""},
		Colors:    []any{"#zzzzzz", map[string]any{"r": 1}},
		Direction: "sideways",
		Items:     []Item{{Text: "x", Colors: []any{true}, Direction: "up"}},
	}
	warnings, err := Validate(b)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, want := range []string{
		"gradient_colors[0] ignored",
		`gradient_direction "sideways" is unknown`,
		"texts[1] is empty",
		"items[0].gradient_colors[0] ignored",
		"items[0].gradient_colors has no valid colors",
		`items[0].gradient_direction "up" is unknown`,
	} {
		found := false
		for _, w := range warnings {
			if strings.Contains(w, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing warning %q in %q", want, warnings)
		}
	}

	if _, err := Validate(&Batch{Texts: []string{" ", ""}}); !errors.Is(err, ErrNoTexts) {
		t.Errorf("err = %v, want ErrNoTexts", err)
	}
	if _, err := Validate(nil); !errors.Is(err, ErrNoTexts) {
		t.Errorf("nil batch err = %v", err)
	}
	if w, err := Validate(&Batch{Text: "1. a"}); err != nil || len(w) != 0 {
		t.Errorf("Validate(text only) = %v, %v", w, err)
	}
}

func TestExampleJSON(t *testing.T) {
	b, err := DecodeBatch(strings.NewReader(ExampleJSON()))
	if err != nil {
		t.Fatalf("example does not parse: %v", err)
	}
	warnings, err := Validate(b)
	if err != nil || len(warnings) != 0 {
		t.Errorf("example validation = %v, %v", warnings, err)
	}
	if n := len(Merge(b, nil)); n != 6 {
		t.Errorf("example yields %d requests, want 6", n)
	}
	if !json.Valid([]byte(ExampleJSON())) {
		t.Error("example is not valid JSON")
	}
}

func writeZip(t *testing.T, files map[string][]byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "batch.storycard")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadBundle(t *testing.T) {
	p := writeZip(t, map[string][]byte{
		"batch.json":        []byte(`{"texts": ["from bundle"]}`),
		"fonts/Custom.ttf":  goregular.TTF,
		"fonts/readme.txt":  []byte("ignored"),
		"other/Stray.ttf":   goregular.TTF,
		"nested/batch.json": []byte(`{}`),
	})
	bundle, err := LoadBatch(p)
	if err != nil {
		t.Fatalf("LoadBatch: %v", err)
	}
	if got := Texts(bundle.Batch); len(got) != 1 || got[0] != "from bundle" {
		t.Errorf("texts = %v", got)
	}
	if len(bundle.Fonts) != 1 || bundle.Fonts[0].Name != "Custom.ttf" || len(bundle.Fonts[0].Data) != len(goregular.TTF) {
		t.Errorf("fonts = %+v", bundle.Fonts)
	}

	missing := writeZip(t, map[string][]byte{"fonts/a.ttf": goregular.TTF})
	if _, err := LoadBundle(missing); err == nil {
		t.Error("expected error for bundle without batch.json")
	}
}

func TestLoadBatchFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "batch.json")
	if err := os.WriteFile(p, []byte(`{"texts": ["x"], "gradient_direction": "diagonal"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	bundle, err := LoadBatch(p)
	if err != nil {
		t.Fatal(err)
	}
	if bundle.Batch.Direction != "diagonal" || len(bundle.Fonts) != 0 {
		t.Errorf("bundle = %+v", bundle)
	}
	if _, err := LoadBatch(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
