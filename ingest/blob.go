package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// BlobDir is a content-addressed payload directory: blobs live at
// <root>/<digest[:2]>/<digest>, so identical attachments are stored once.
type BlobDir struct {
	root string
}

// NewBlobDir returns a BlobDir rooted at root. The directory is created
// lazily on first write.
func NewBlobDir(root string) *BlobDir {
	return &BlobDir{root: root}
}

// Put writes payload under its digest and returns the stored path. Writing
// an already-present digest is a no-op returning the existing path.
func (b *BlobDir) Put(digest string, payload []byte) (string, error) {
	if len(digest) < 2 {
		return "", errors.New("ingest: digest too short")
	}
	dir := filepath.Join(b.root, digest[:2])
	path := filepath.Join(dir, digest)

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ingest: mkdir blob dir: %w", err)
	}

	// Write-then-rename so readers never observe a partial blob.
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("ingest: temp blob: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("ingest: write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("ingest: close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("ingest: rename blob: %w", err)
	}
	return path, nil
}

// Open returns the payload for a digest.
func (b *BlobDir) Open(digest string) ([]byte, error) {
	if len(digest) < 2 {
		return nil, errors.New("ingest: digest too short")
	}
	data, err := os.ReadFile(filepath.Join(b.root, digest[:2], digest))
	if err != nil {
		return nil, fmt.Errorf("ingest: read blob %s: %w", digest, err)
	}
	return data, nil
}
