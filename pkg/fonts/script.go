// script.go - Script detection for font selection.

package fonts

import (
	"unicode"

	"github.com/go-text/typesetting/language"
)

// NoScript marks text that any general-purpose font can render.
const NoScript language.Script = 0

// scriptInfo describes a script that needs a capable font.
type scriptInfo struct {
	// name is stable and lower-case; cache files are named after it.
	name string
	// block lists the code points that require the script font.
	block *unicode.RangeTable
	// probe is the representative character measured by the probe.
	probe rune
}

var scripts = map[language.Script]scriptInfo{
	language.Ethiopic: {
		name:  "ethiopic",
		block: &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x1200, Hi: 0x137F, Stride: 1}}},
		probe: 'አ', // U+12A0
	},
}

// detectOrder fixes which script wins when text mixes several.
var detectOrder = []language.Script{language.Ethiopic}

// DetectScript returns the first script in text that requires a
// script-capable font, or NoScript.
func DetectScript(text string) language.Script {
	for _, r := range text {
		if r < 0x0100 {
			continue
		}
		for _, s := range detectOrder {
			if unicode.Is(scripts[s].block, r) {
				return s
			}
		}
	}
	return NoScript
}

// ScriptName returns the lower-case name of a supported script, "none" for
// NoScript and "unknown" otherwise.
func ScriptName(s language.Script) string {
	if s == NoScript {
		return "none"
	}
	if info, ok := scripts[s]; ok {
		return info.name
	}
	return "unknown"
}

// ScriptsIn lists the distinct Unicode scripts of the non-space runes in
// text, in order of first appearance. storycard fonts prints them.
func ScriptsIn(text string) []language.Script {
	seen := make(map[language.Script]bool)
	var out []language.Script
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsDigit(r) {
			continue
		}
		s := language.LookupScript(r)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
