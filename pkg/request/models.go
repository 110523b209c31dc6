// Package request decodes generation batches (JSON files, ZIP bundles and
// numbered plain text) into render requests for the generator.
package request

// ── Batch types ──

// Batch is the top-level structure of batch.json and of the HTTP generate
// body.
type Batch struct {
	// Texts are rendered one image each, in order.
	Texts []string `json:"texts"`
	// Text is raw multi-item input, split with ParseTexts and rendered
	// after Texts.
	Text string `json:"text,omitempty"`
	// Colors are the default gradient stops. Entries may be {"r","g","b"}
	// objects, [r, g, b] arrays or "#rrggbb" strings.
	Colors    []any  `json:"gradient_colors,omitempty"`
	Direction string `json:"gradient_direction,omitempty"`
	// Seed makes the batch reproducible. Zero means random.
	Seed  uint64 `json:"seed,omitempty"`
	Items []Item `json:"items,omitempty"`
}

// Item is one image with optional per-image overrides. Unset fields inherit
// the batch values.
type Item struct {
	Text      string `json:"text"`
	Colors    []any  `json:"gradient_colors,omitempty"`
	Direction string `json:"gradient_direction,omitempty"`
	Seed      uint64 `json:"seed,omitempty"`
}

// ── Bundle types ──

// Bundle is a ZIP holding batch.json and optional fonts/ files.
type Bundle struct {
	Batch *Batch
	Fonts []FontFile
}

// FontFile is a font shipped inside a bundle.
type FontFile struct {
	Name string
	Data []byte
}

// Directions lists the accepted gradient_direction values.
var Directions = []string{"vertical", "horizontal", "diagonal", "random"}
