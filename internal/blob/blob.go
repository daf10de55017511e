// Package blob stores named byte objects in a local directory or a GCS bucket.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the named object does not exist.
var ErrNotFound = errors.New("blob: object not found")

// Store provides an interface for flat, named object storage.
// This interface enables swapping the local directory for a bucket and
// mocking storage in tests.
type Store interface {
	// Put writes data under name, replacing any existing object.
	Put(ctx context.Context, name string, data []byte) error

	// Get reads the object stored under name.
	Get(ctx context.Context, name string) ([]byte, error)

	// List returns the names of all stored objects, in no particular order.
	List(ctx context.Context) ([]string, error)
}
