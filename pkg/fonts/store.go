// store.go - On-disk cache of validated script fonts.

package fonts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-text/typesetting/language"

	"github.com/xob0t/storycard/internal/util"
)

// Store is an on-disk cache holding at most one validated font per script.
// A stored font is trusted on later runs without probing again; it is only
// replaced after Evict.
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// DefaultStoreDir is ~/.storycard/fonts, or a temp directory when the home
// directory cannot be determined.
func DefaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "storycard-fonts")
	}
	return filepath.Join(home, ".storycard", "fonts")
}

// Path returns the cache file for script.
func (s *Store) Path(script language.Script) string {
	return filepath.Join(s.Dir, ScriptName(script)+".ttf")
}

// Load returns the stored font for script. A missing entry reports an error
// satisfying errors.Is(err, os.ErrNotExist).
func (s *Store) Load(script language.Script) ([]byte, error) {
	return os.ReadFile(s.Path(script))
}

// Save stores data for script unless an entry already exists, so the first
// successful population wins.
func (s *Store) Save(script language.Script, data []byte) error {
	path := s.Path(script)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := util.EnsureDir(s.Dir); err != nil {
		return fmt.Errorf("create font cache %s: %w", s.Dir, err)
	}
	return util.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
}

// Evict removes the stored font for script. A missing entry is not an error.
func (s *Store) Evict(script language.Script) error {
	err := os.Remove(s.Path(script))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
