// errors.go - Render and batch error types.

package generator

import (
	"errors"
	"fmt"
)

// ErrOutput marks fatal output failures: the directory cannot be created or
// the image cannot be encoded or moved into place.
var ErrOutput = errors.New("output failure")

func outputError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrOutput, op, path, err)
}

// ItemError identifies the batch item that failed.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
