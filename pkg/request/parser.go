// parser.go - Numbered plain-text parsing and example generation.
package request

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	// Rule order matters: a marker is only recognized where a line starts,
	// because Line consumes the remainder of every line.
	textLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Marker", Pattern: `\d+[.)][ \t]*`},
		{Name: "Newline", Pattern: `\n`},
		{Name: "Indent", Pattern: `[ \t]+`},
		{Name: "Line", Pattern: `[^\n]+`},
	})

	textParser = participle.MustBuild[textDocument](
		participle.Lexer(textLexer),
		participle.Elide("Indent"),
	)
)

// textDocument is the AST of numbered plain text.
type textDocument struct {
	Rows []*textRow `parser:"@@*"`
}

// textRow is one physical line.
type textRow struct {
	Item  *itemRow `parser:"  @@"`
	Text  *string  `parser:"| @Line Newline?"`
	Blank bool     `parser:"| @Newline"`
}

// itemRow starts a new item: "1. text" or "2) text".
type itemRow struct {
	Marker string `parser:"@Marker"`
	Text   string `parser:"@Line? Newline?"`
}

// ParseTexts splits user input into one text per image.
//
// "N." or "N)" at the start of a line begins a new item, other lines
// continue the current item and a blank line ends it. Lines are trimmed,
// empty lines are dropped and line breaks inside an item are kept.
func ParseTexts(input string) ([]string, error) {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	doc, err := textParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse texts: %w", err)
	}

	var (
		texts []string
		cur   []string
	)
	flush := func() {
		if len(cur) > 0 {
			texts = append(texts, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, row := range doc.Rows {
		switch {
		case row.Item != nil:
			flush()
			cur = []string{row.Item.Text}
		case row.Text != nil:
			cur = append(cur, *row.Text)
		default:
			flush()
		}
	}
	flush()

	return cleanTexts(texts), nil
}

// cleanTexts trims every line and drops empty lines and empty texts.
func cleanTexts(texts []string) []string {
	var out []string
	for _, t := range texts {
		var lines []string
		for _, l := range strings.Split(t, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
		if len(lines) > 0 {
			out = append(out, strings.Join(lines, "\n"))
		}
	}
	return out
}

// ExampleJSON returns a sample batch.json for storycard init.
func ExampleJSON() string {
	return `{
  "texts": [
    "Small steps every day add up to big results.",
    "ሰላም ለዓለም"
  ],
  "text": "1. Numbered items are split automatically\n2. A second item\ncontinues on this line",
  "gradient_colors": [
    {"r": 255, "g": 107, "b": 107},
    {"r": 255, "g": 159, "b": 64},
    "#ffce54"
  ],
  "gradient_direction": "vertical",
  "items": [
    {
      "text": "Items can override the palette and direction.",
      "gradient_colors": [[25, 25, 112], [123, 104, 238]],
      "gradient_direction": "diagonal"
    },
    {
      "text": "Random direction, batch palette.",
      "gradient_direction": "random"
    }
  ]
}
`
}
