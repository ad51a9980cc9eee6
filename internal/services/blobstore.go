package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud-storage-api/internal/config"
)

// BlobStorage is the contract the file lifecycle consumes: blobs addressed
// by owner-scoped relative paths.
type BlobStorage interface {
	AllocatePath(owner, filename string) string
	Write(path string, src io.Reader) (int64, error)
	Open(path string) (io.ReadCloser, error)
	Delete(path string) error
	Exists(path string) bool
	Size(path string) (int64, error)
	RemoveOwnerDir(owner string) error
}

// BlobStore maps file records to bytes on local disk. Paths are relative to
// the configured upload root and scoped by owner: uploads/<username>/<name>.
type BlobStore struct {
	root       string
	createDirs bool
}

// NewBlobStore creates a blob store rooted at the configured upload dir.
func NewBlobStore(cfg config.LocalStorageConfig) *BlobStore {
	return &BlobStore{
		root:       cfg.UploadDir,
		createDirs: cfg.CreateDirs,
	}
}

// NewBlobStoreAt creates a blob store rooted at an explicit directory.
func NewBlobStoreAt(root string) *BlobStore {
	return &BlobStore{root: root, createDirs: true}
}

// AllocatePath returns an owner-scoped relative path for a new blob. When the
// name is already taken, a numeric suffix is inserted before the extension.
func (b *BlobStore) AllocatePath(owner, filename string) string {
	name := sanitizeFilename(filename)
	path := filepath.Join(owner, name)
	if !b.Exists(path) {
		return path
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		path = filepath.Join(owner, fmt.Sprintf("%s_%d%s", base, i, ext))
		if !b.Exists(path) {
			return path
		}
	}
}

// Write stores blob bytes at the given relative path and returns the number
// of bytes written.
func (b *BlobStore) Write(path string, src io.Reader) (int64, error) {
	full := b.abs(path)

	if b.createDirs {
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return 0, fmt.Errorf("create blob directory: %w", err)
		}
	}

	dst, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("create blob file: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		return n, fmt.Errorf("copy blob content: %w", err)
	}
	return n, nil
}

// Open returns a reader over the blob at the given relative path.
func (b *BlobStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(b.abs(path))
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// Delete removes the blob at the given relative path.
func (b *BlobStore) Delete(path string) error {
	return os.Remove(b.abs(path))
}

// Exists reports whether a blob is present at the given relative path.
func (b *BlobStore) Exists(path string) bool {
	info, err := os.Stat(b.abs(path))
	return err == nil && !info.IsDir()
}

// Size returns the byte size of the blob at the given relative path.
func (b *BlobStore) Size(path string) (int64, error) {
	info, err := os.Stat(b.abs(path))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// RemoveOwnerDir deletes an owner's entire storage subtree, including nested
// subdirectories. A missing subtree is not an error.
func (b *BlobStore) RemoveOwnerDir(owner string) error {
	dir := b.abs(owner)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(dir)
}

func (b *BlobStore) abs(path string) string {
	return filepath.Join(b.root, path)
}

// sanitizeFilename strips path separators and traversal segments so blob
// paths stay inside the owner's directory.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == ".." {
		return "unnamed"
	}
	return name
}
