// Package blob abstracts the file store holding evidence attachments.
// Implementations are chosen at construction time; the export
// assembler only sees this interface.
package blob

import (
	"context"
	"io"
)

// Store holds evidence attachment binaries keyed by opaque string.
type Store interface {
	// Exists reports whether a key is present. Evidence metadata can
	// outlive its blob, so callers must tolerate false.
	Exists(ctx context.Context, key string) (bool, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, data io.Reader) error
	Delete(ctx context.Context, key string) error
}
