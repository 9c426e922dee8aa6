package blobstore

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
)

// GCS stores objects in a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
}

// NewGCS opens a GCS client against the named bucket. Credentials are
// resolved from the environment (application default credentials).
func NewGCS(ctx context.Context, bucket string, logger *slog.Logger) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("blobstore: bucket name required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("blobstore: gcs client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GCS{client: client, bucket: bucket, logger: logger}, nil
}

func (g *GCS) Put(ctx context.Context, objPath string, data []byte, contentType string) (string, error) {
	w := g.client.Bucket(g.bucket).Object(objPath).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", &StorageError{Op: "put", Path: objPath, Err: err}
	}
	if err := w.Close(); err != nil {
		return "", &StorageError{Op: "put", Path: objPath, Err: err}
	}

	g.logger.Debug("object stored", "bucket", g.bucket, "path", objPath, "bytes", len(data))
	return g.URL(objPath), nil
}

func (g *GCS) MakePublic(ctx context.Context, objPath string) error {
	acl := g.client.Bucket(g.bucket).Object(objPath).ACL()
	if err := acl.Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return &StorageError{Op: "publish", Path: objPath, Err: err}
	}
	return nil
}

func (g *GCS) Delete(ctx context.Context, objPath string) error {
	if err := g.client.Bucket(g.bucket).Object(objPath).Delete(ctx); err != nil {
		return &StorageError{Op: "delete", Path: objPath, Err: err}
	}
	return nil
}

// URL returns the public object URL for a path in the bucket.
func (g *GCS) URL(objPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, objPath)
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
