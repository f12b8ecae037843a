package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AssetStore stores uploaded receipt files and returns an opaque reference.
// Removal is best effort; a failed remove never blocks the caller.
type AssetStore interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
	Remove(ctx context.Context, ref string) error
}

// DiskAssetStore keeps uploads on the local filesystem and serves them under
// a base URL.
type DiskAssetStore struct {
	dir     string
	baseURL string
}

// NewDiskAssetStore creates a store rooted at dir, creating it if needed.
func NewDiskAssetStore(dir, baseURL string) (*DiskAssetStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskAssetStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Upload writes the file under a collision-free name and returns its URL.
func (s *DiskAssetStore) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	name := fmt.Sprintf("%d_%s_%s", time.Now().UnixMilli(), uuid.New().String()[:8], filepath.Base(filename))

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}

	return s.baseURL + "/" + name, nil
}

// Remove deletes the file behind the reference. Unknown references are not
// an error.
func (s *DiskAssetStore) Remove(ctx context.Context, ref string) error {
	name := filepath.Base(ref)
	if name == "." || name == "/" {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Ensure DiskAssetStore implements AssetStore.
var _ AssetStore = (*DiskAssetStore)(nil)
