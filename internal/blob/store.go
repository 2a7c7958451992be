package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no object exists for the key.
var ErrNotFound = errors.New("blob not found")

// Metadata carries optional string metadata stored alongside an object.
type Metadata map[string]string

// Store is the object-storage contract consumed by the pipeline. Transcript
// and GitHub-context artifacts are persisted through it by content-addressed
// key; the implementation may be a local directory or a remote object store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, meta Metadata) error
	List(ctx context.Context, prefix string) ([]string, error)
}
