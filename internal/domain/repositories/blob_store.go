package repositories

import (
	"context"
	"io"
)

// BlobStore holds published attachment files, addressed by their
// root-relative database path. Publish must be atomic: a reader never
// observes a partially written object.
type BlobStore interface {
	// Stage returns a scratch location the assembler can write to before
	// publishing. For the local backend it lives on the same filesystem as
	// the final path so Publish can be a single rename.
	Stage(dbPath string) (string, error)
	Publish(ctx context.Context, stagedPath, dbPath string) error
	Open(ctx context.Context, dbPath string) (io.ReadCloser, int64, error)
	// Delete removes the object; a missing object is not an error.
	Delete(ctx context.Context, dbPath string) error
	Exists(ctx context.Context, dbPath string) bool
}
