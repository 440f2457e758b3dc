package data

import (
	"errors"
	"fmt"
)

// ErrLoad is matched by every error returned from this package.
var ErrLoad = errors.New("load failed")

// LoadError provides detailed information about a failed load.
//
// errors.Is(err, ErrLoad) holds for every LoadError, and the underlying
// cause stays reachable through Unwrap (for example fs.ErrNotExist).
type LoadError struct {
	Path string // File being loaded
	Op   string // Operation that failed (e.g., "open", "read", "vocabulary")
	Err  error  // Underlying cause
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrLoad.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}
