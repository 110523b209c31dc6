// system.go - Installed system font discovery.

package fonts

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSystemPaths are well-known Unicode-capable font files on macOS,
// Linux and Windows, most specific first.
var DefaultSystemPaths = []string{
	"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
	"/System/Library/Fonts/Supplemental/NotoSansEthiopic-Regular.ttf",
	"/System/Library/Fonts/Supplemental/NotoSansEthiopic-Bold.ttf",
	"/Library/Fonts/Arial Unicode.ttf",
	"/System/Library/Fonts/Supplemental/AppleGothic.ttf",
	"/System/Library/Fonts/Supplemental/STHeiti Light.ttc",
	"/System/Library/Fonts/Supplemental/STHeiti Medium.ttc",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"/System/Library/Fonts/Supplemental/Arial Bold.ttf",
	"/usr/share/fonts/truetype/noto/NotoSansEthiopic-Regular.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"C:/Windows/Fonts/nyala.ttf",
	"C:/Windows/Fonts/arial.ttf",
	"C:/Windows/Fonts/ARIALUNI.TTF",
}

// DefaultFontDirs are scanned recursively after DefaultSystemPaths.
var DefaultFontDirs = []string{
	"/System/Library/Fonts/Supplemental/",
	"/Library/Fonts/",
	"/usr/share/fonts/",
}

var fontExts = map[string]bool{".ttf": true, ".otf": true, ".ttc": true}

// SystemProvider offers fonts installed on the host: first the explicit
// Paths that exist, then every font file found under Dirs.
type SystemProvider struct {
	Paths []string
	Dirs  []string
}

// NewSystemProvider returns a provider over the default locations plus any
// extra directories.
func NewSystemProvider(extraDirs ...string) SystemProvider {
	return SystemProvider{
		Paths: DefaultSystemPaths,
		Dirs:  append(append([]string(nil), extraDirs...), DefaultFontDirs...),
	}
}

func (p SystemProvider) Name() string { return "system" }

func (p SystemProvider) Candidates(ctx context.Context) ([]Candidate, error) {
	seen := make(map[string]bool)
	var out []Candidate
	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		out = append(out, fileCandidate(path))
	}

	for _, path := range p.Paths {
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			add(path)
		}
	}

	for _, dir := range p.Dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable subtrees are skipped, not fatal.
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if !d.IsDir() && fontExts[strings.ToLower(filepath.Ext(path))] {
				add(path)
			}
			return nil
		})
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func fileCandidate(path string) Candidate {
	return Candidate{
		Name: path,
		Load: func(context.Context) ([]byte, error) { return os.ReadFile(path) },
	}
}
