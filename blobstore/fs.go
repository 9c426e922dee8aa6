package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS stores objects as files under a base directory. Suitable for
// development and single-node deployments; URLs are baseURL + object path.
type FS struct {
	basePath string
	baseURL  string
}

// NewFS creates a filesystem store rooted at basePath. baseURL is
// prepended to object paths when building URLs (e.g. a static file
// server's origin); it defaults to "file://" + basePath.
func NewFS(basePath, baseURL string) (*FS, error) {
	if basePath == "" {
		return nil, fmt.Errorf("blobstore: base path required")
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("blobstore: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create base path: %w", err)
	}
	if baseURL == "" {
		baseURL = "file://" + abs
	}
	return &FS{basePath: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (f *FS) Put(_ context.Context, objPath string, data []byte, _ string) (string, error) {
	full, err := f.fullPath(objPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", &StorageError{Op: "put", Path: objPath, Err: err}
	}

	// Write to a temp file then rename so readers never see partial objects.
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", &StorageError{Op: "put", Path: objPath, Err: err}
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return "", &StorageError{Op: "put", Path: objPath, Err: err}
	}

	return f.baseURL + "/" + objPath, nil
}

// MakePublic is a no-op for filesystem storage: visibility is governed by
// whatever serves basePath.
func (f *FS) MakePublic(context.Context, string) error { return nil }

func (f *FS) Delete(_ context.Context, objPath string) error {
	full, err := f.fullPath(objPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return &StorageError{Op: "delete", Path: objPath, Err: err}
	}
	return nil
}

func (f *FS) fullPath(objPath string) (string, error) {
	if objPath == "" || strings.Contains(objPath, "..") {
		return "", &StorageError{Op: "resolve", Path: objPath, Err: ErrInvalidIdentifier}
	}
	cleaned := filepath.Join(f.basePath, filepath.Clean("/"+objPath))
	if !strings.HasPrefix(cleaned, f.basePath+string(filepath.Separator)) {
		return "", &StorageError{Op: "resolve", Path: objPath, Err: ErrInvalidIdentifier}
	}
	return cleaned, nil
}
