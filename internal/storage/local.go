package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Static errors for store operations.
var (
	// ErrUnknownScope is returned when a scope id does not resolve to a
	// directory under the store.
	ErrUnknownScope = errors.New("storage: unknown scope")
	// ErrPathOutsideScope is returned when a path escapes its scope.
	ErrPathOutsideScope = errors.New("storage: path outside scope")
)

// Compile-time check that LocalStore implements Store.
var _ Store = (*LocalStore)(nil)

// LocalStore implements Store on the local filesystem. Scopes are
// uuid-named subdirectories of the base directory, and saved files are
// exposed by URL under publicBaseURL/files/ via the server's static route.
type LocalStore struct {
	baseDir       string
	publicBaseURL string
}

// NewLocalStore creates a LocalStore rooted at baseDir, creating the
// directory if needed. publicBaseURL is the externally reachable address
// of this service, used to build fetchable file URLs.
func NewLocalStore(baseDir, publicBaseURL string) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "i2v-stitcher")
	}

	if err := os.MkdirAll(baseDir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	return &LocalStore{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// BaseDir returns the store's root directory, for the static file route.
func (s *LocalStore) BaseDir() string {
	return s.baseDir
}

// NewScope creates a fresh scratch directory and returns its id.
func (s *LocalStore) NewScope(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	scope := uuid.NewString()
	if err := os.MkdirAll(filepath.Join(s.baseDir, scope), 0750); err != nil {
		return "", fmt.Errorf("create scope directory: %w", err)
	}
	return scope, nil
}

// ScopeDir returns the directory backing a scope.
func (s *LocalStore) ScopeDir(scope string) string {
	return filepath.Join(s.baseDir, scope)
}

// Save writes data to <baseDir>/<scope>/<name> and returns the path.
func (s *LocalStore) Save(ctx context.Context, scope, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	dir := s.ScopeDir(scope)
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}

	path := filepath.Join(dir, filepath.Base(name))
	f, err := os.Create(path) // #nosec G304 - path is confined to the scope dir
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close file: %w", err)
	}

	return path, nil
}

// ResolveURL maps a saved file to its /files/ URL on this service.
func (s *LocalStore) ResolveURL(_ context.Context, scope, path string) (string, error) {
	rel, err := s.relToScope(scope, path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/files/%s/%s", s.publicBaseURL, scope, rel), nil
}

// RemoveScope deletes a scope directory and everything in it.
func (s *LocalStore) RemoveScope(_ context.Context, scope string) error {
	if scope == "" || strings.ContainsAny(scope, "/\\") {
		return fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	if err := os.RemoveAll(filepath.Join(s.baseDir, scope)); err != nil {
		return fmt.Errorf("remove scope: %w", err)
	}
	return nil
}

// relToScope validates that path lives inside the scope directory and
// returns its scope-relative form.
func (s *LocalStore) relToScope(scope, path string) (string, error) {
	rel, err := filepath.Rel(s.ScopeDir(scope), path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideScope, path)
	}
	return filepath.ToSlash(rel), nil
}
