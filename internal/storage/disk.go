package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps objects on the local filesystem under a root directory.
// The server mounts the root as a static route so FileURLs resolve.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore creates a disk-backed object store
func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %q: %w", root, err)
	}
	return &DiskStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Save writes the object under the storage root and returns its public URL
func (s *DiskStore) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create object %q: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write object %q: %w", key, err)
	}

	return s.baseURL + "/" + key, nil
}

// Delete removes the object; a missing object is not an error
func (s *DiskStore) Delete(ctx context.Context, key string) error {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}
