// Package storage provides the media store: per-request scratch workspaces
// for uploaded frames and produced clips, and URL exposure so the upstream
// provider can fetch source images. It defines the Store interface (port)
// with local-disk and S3-mirroring implementations.
package storage

import (
	"context"
	"io"
)

// Store defines the media store contract. A scope is a scratch workspace
// exclusively owned by one request; it must be removed on every exit path
// once the response is produced.
type Store interface {
	// NewScope creates a fresh scratch workspace and returns its id.
	NewScope(ctx context.Context) (scope string, err error)

	// ScopeDir returns the local directory backing a scope.
	ScopeDir(scope string) string

	// Save persists data under the given name inside a scope and returns
	// the local file path. Names are the caller's responsibility to keep
	// unique within the scope.
	Save(ctx context.Context, scope, name string, data io.Reader) (path string, err error)

	// ResolveURL returns a URL the upstream provider can fetch the saved
	// file from.
	ResolveURL(ctx context.Context, scope, path string) (url string, err error)

	// RemoveScope deletes a scope and everything in it.
	RemoveScope(ctx context.Context, scope string) error
}
