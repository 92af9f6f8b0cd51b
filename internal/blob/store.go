// Package blob stores opaque payloads by reference.
//
// A reference is a slash-separated relative path such as
// "artifacts/3f1c....json". Implementations must treat a Delete of a missing
// reference as success so retries are safe.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotExist is returned by Get for an unknown reference.
var ErrNotExist = errors.New("blob does not exist")

// Store is a byte-addressable blob store.
type Store interface {
	Put(ctx context.Context, ref string, data []byte) error
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
	List(ctx context.Context) ([]string, error)
}

// ValidateRef rejects references that are empty, absolute, or that escape
// the store root.
func ValidateRef(ref string) error {
	if ref == "" {
		return errors.New("empty blob reference")
	}
	if strings.HasPrefix(ref, "/") || strings.Contains(ref, "\\") {
		return fmt.Errorf("invalid blob reference %q", ref)
	}
	clean := path.Clean(ref)
	if clean != ref || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("invalid blob reference %q", ref)
	}
	return nil
}
