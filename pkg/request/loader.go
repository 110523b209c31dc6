// loader.go - Load batch.json files and .storycard (ZIP) bundles.
package request

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// maxBundleEntry caps a single decompressed bundle entry.
const maxBundleEntry = 64 << 20

// DecodeBatch parses a batch from r. Numbers are kept as json.Number so
// color channels keep their exact text until normalization.
func DecodeBatch(r io.Reader) (*Batch, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var b Batch
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}
	return &b, nil
}

// LoadBatch reads a batch from a JSON file, or from a bundle when path ends
// in .zip or .storycard.
func LoadBatch(path string) (*Bundle, error) {
	if isBundle(path) {
		return LoadBundle(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	b, err := DecodeBatch(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &Bundle{Batch: b}, nil
}

func isBundle(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".zip" || ext == ".storycard"
}

// LoadBundle opens a ZIP holding batch.json at its root and any number of
// .ttf/.otf/.ttc files under fonts/. Everything is read into memory.
func LoadBundle(p string) (*Bundle, error) {
	r, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer r.Close()

	var bundle Bundle
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Clean(f.Name)
		switch {
		case name == "batch.json":
			data, err := readEntry(f)
			if err != nil {
				return nil, fmt.Errorf("read batch.json: %w", err)
			}
			if bundle.Batch, err = DecodeBatch(bytes.NewReader(data)); err != nil {
				return nil, err
			}
		case strings.HasPrefix(name, "fonts/") && isFontFile(name):
			data, err := readEntry(f)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			bundle.Fonts = append(bundle.Fonts, FontFile{Name: path.Base(name), Data: data})
		}
	}
	if bundle.Batch == nil {
		return nil, fmt.Errorf("open %s: bundle has no batch.json", p)
	}
	return &bundle, nil
}

func isFontFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".ttf", ".otf", ".ttc":
		return true
	}
	return false
}

// readEntry reads a single zip entry, refusing oversized files.
func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxBundleEntry+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxBundleEntry {
		return nil, fmt.Errorf("entry %s exceeds %d bytes", f.Name, maxBundleEntry)
	}
	return data, nil
}
