// Package blobstore abstracts durable, URL-addressable object storage for
// docingest artifacts: uploaded originals, derived thumbnails, and
// converted outputs.
//
// Three implementations are provided: GCS (production), FS (local
// filesystem, single-node deployments), and Memory (tests). All provider
// failures surface as *StorageError so callers can distinguish
// infrastructure trouble from processing failures and decide whether to
// retry.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Store is the narrow contract the pipeline needs from object storage.
type Store interface {
	// Put writes data under path with the given content type and returns
	// a stable URL for the stored object.
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)

	// MakePublic marks the object world-readable.
	MakePublic(ctx context.Context, path string) error

	// Delete removes the object.
	Delete(ctx context.Context, path string) error
}

// StorageError wraps a provider failure with the operation and object path.
type StorageError struct {
	Op   string // put, publish, delete
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ErrInvalidIdentifier is returned when a user or file identifier would
// escape its storage namespace.
var ErrInvalidIdentifier = errors.New("blobstore: invalid identifier")

// ValidateIdentifier checks that id is safe to embed in an object path.
// Identifiers are limited to letters, digits, dot, underscore and hyphen,
// and must not contain "..".
func ValidateIdentifier(id string) error {
	if id == "" || len(id) > 128 {
		return ErrInvalidIdentifier
	}
	if strings.Contains(id, "..") {
		return ErrInvalidIdentifier
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return ErrInvalidIdentifier
		}
	}
	return nil
}

// DocumentPath returns the object path for an uploaded original.
// ext includes the leading dot and may be empty.
func DocumentPath(userID, fileID, ext string) string {
	return path.Join("users", userID, "documents", fileID+ext)
}

// ThumbnailPath returns the object path for a derived thumbnail.
func ThumbnailPath(userID, fileID string) string {
	return path.Join("users", userID, "thumbnails", fileID+".jpg")
}

// ConvertedPath returns the object path for a converted output.
func ConvertedPath(userID, fileID, ext string) string {
	return path.Join("users", userID, "converted", fileID+ext)
}
