// merge.go - Merge batch defaults onto items and build render requests.
package request

import (
	"log/slog"
	"strings"

	"github.com/xob0t/storycard/pkg/generator"
)

// Texts returns every non-empty text of b in render order: Texts, then the
// items parsed from Text, then Items.
func Texts(b *Batch) []string {
	var out []string
	for _, it := range items(b) {
		out = append(out, it.Text)
	}
	return out
}

// Merge combines batch defaults with per-item overrides. Items without
// their own colors, direction or seed inherit the batch values. Empty texts
// are dropped.
func Merge(b *Batch, logger *slog.Logger) []generator.Request {
	var out []generator.Request
	for _, it := range items(b) {
		colors := b.Colors
		if len(it.Colors) > 0 {
			colors = it.Colors // replace, not append
		}
		dir := b.Direction
		if it.Direction != "" {
			dir = it.Direction
		}
		seed := b.Seed
		if it.Seed != 0 {
			seed = it.Seed
		}

		req := generator.Request{
			Text:      it.Text,
			Direction: generator.ParseDirection(dir),
			Seed:      seed,
		}
		if len(colors) > 0 {
			req.Palette = generator.NormalizePalette(colors, logger)
		}
		out = append(out, req)
	}
	return out
}

// items flattens b into trimmed, non-empty items.
func items(b *Batch) []Item {
	if b == nil {
		return nil
	}
	var out []Item
	add := func(it Item) {
		it.Text = strings.TrimSpace(it.Text)
		if it.Text != "" {
			out = append(out, it)
		}
	}
	for _, t := range b.Texts {
		add(Item{Text: t})
	}
	if strings.TrimSpace(b.Text) != "" {
		parsed, err := ParseTexts(b.Text)
		if err != nil {
			// The lexer accepts any input; keep the raw text as one item.
			parsed = []string{b.Text}
		}
		for _, t := range parsed {
			add(Item{Text: t})
		}
	}
	for _, it := range b.Items {
		add(it)
	}
	return out
}
