// validator.go - Validate a batch before rendering.
package request

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/xob0t/storycard/pkg/generator"
)

// ErrNoTexts is returned when a batch has nothing to render.
var ErrNoTexts = errors.New("no texts provided")

// Validate checks b for problems. Everything except an empty batch is a
// warning: bad colors are dropped and unknown directions fall back to
// vertical at merge time.
func Validate(b *Batch) ([]string, error) {
	if b == nil {
		return nil, ErrNoTexts
	}

	var warnings []string
	warnings = append(warnings, checkColors("gradient_colors", b.Colors)...)
	warnings = append(warnings, checkDirection("gradient_direction", b.Direction)...)

	for i, t := range b.Texts {
		if strings.TrimSpace(t) == "" {
			warnings = append(warnings, fmt.Sprintf("texts[%d] is empty and will be skipped", i))
		}
	}
	for i, it := range b.Items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(it.Text) == "" {
			warnings = append(warnings, field+" has no text and will be skipped")
		}
		warnings = append(warnings, checkColors(field+".gradient_colors", it.Colors)...)
		warnings = append(warnings, checkDirection(field+".gradient_direction", it.Direction)...)
	}

	if len(Texts(b)) == 0 {
		return warnings, ErrNoTexts
	}
	return warnings, nil
}

func checkColors(field string, colors []any) []string {
	var warnings []string
	valid := 0
	for i, c := range colors {
		if _, err := generator.ColorFromValue(c); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s[%d] ignored: %v", field, i, err))
			continue
		}
		valid++
	}
	if len(colors) > 0 && valid == 0 {
		warnings = append(warnings, field+" has no valid colors, using white")
	}
	return warnings
}

func checkDirection(field, dir string) []string {
	if dir == "" || slices.Contains(Directions, strings.ToLower(strings.TrimSpace(dir))) {
		return nil
	}
	return []string{fmt.Sprintf("%s %q is unknown, using vertical", field, dir)}
}
