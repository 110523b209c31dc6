// provider.go - Font sources and the bundled and in-memory providers.

package fonts

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font/gofont/goregular"
)

// Candidate is one font a Provider can offer. Load is called lazily, only
// when the resolver reaches this candidate.
type Candidate struct {
	Name string
	Load func(ctx context.Context) ([]byte, error)
}

// Provider is one source of candidate fonts. The resolver polls providers in
// order and takes the first candidate that satisfies its requirements.
type Provider interface {
	Name() string
	Candidates(ctx context.Context) ([]Candidate, error)
}

// scriptOnly is implemented by providers that should only be consulted when
// a script-capable font is required (for example, network downloads).
type scriptOnly interface {
	ScriptOnly() bool
}

// BundledProvider offers an optional custom font file followed by the
// embedded Go Regular font.
type BundledProvider struct {
	CustomPath string
}

func (p BundledProvider) Name() string { return "bundled" }

func (p BundledProvider) Candidates(context.Context) ([]Candidate, error) {
	var out []Candidate
	if p.CustomPath != "" {
		path := p.CustomPath
		out = append(out, Candidate{
			Name: path,
			Load: func(context.Context) ([]byte, error) { return os.ReadFile(path) },
		})
	}
	out = append(out, Candidate{
		Name: "goregular",
		Load: func(context.Context) ([]byte, error) { return goregular.TTF, nil },
	})
	return out, nil
}

// MemoryFont is a font registered with a MemoryProvider.
type MemoryFont struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int    `json:"size"`
}

type memoryEntry struct {
	MemoryFont
	data []byte
}

// MemoryProvider holds fonts added at runtime, offered in insertion order.
// It is safe for concurrent use.
type MemoryProvider struct {
	mu      sync.RWMutex
	entries []memoryEntry
}

// NewMemoryProvider returns an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{}
}

func (p *MemoryProvider) Name() string { return "memory" }

// Add validates data as a font and registers it under a fresh ID.
func (p *MemoryProvider) Add(name string, data []byte) (MemoryFont, error) {
	if _, err := parseFont(name, data); err != nil {
		return MemoryFont{}, err
	}
	e := memoryEntry{
		MemoryFont: MemoryFont{ID: randomID(), Name: name, Size: len(data)},
		data:       append([]byte(nil), data...),
	}
	p.mu.Lock()
	p.entries = append(p.entries, e)
	p.mu.Unlock()
	return e.MemoryFont, nil
}

// Remove deletes a font by ID and reports whether it existed.
func (p *MemoryProvider) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.entries {
		if e.ID == id {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the registered fonts in insertion order.
func (p *MemoryProvider) List() []MemoryFont {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]MemoryFont, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e.MemoryFont)
	}
	return out
}

func (p *MemoryProvider) Candidates(context.Context) ([]Candidate, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Candidate, 0, len(p.entries))
	for _, e := range p.entries {
		data := e.data
		out = append(out, Candidate{
			Name: fmt.Sprintf("memory:%s", e.Name),
			Load: func(context.Context) ([]byte, error) { return data, nil },
		})
	}
	return out, nil
}

func randomID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
