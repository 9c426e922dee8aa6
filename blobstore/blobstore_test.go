package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"user-1", "abc123", "a.b_c-d", "0198f9a2-7b2c-7000-8000-000000000000"}
	for _, id := range valid {
		if err := ValidateIdentifier(id); err != nil {
			t.Errorf("ValidateIdentifier(%q): %v", id, err)
		}
	}

	invalid := []string{"", "../etc", "a/b", "a\\b", "user 1", strings.Repeat("x", 129), "a..b"}
	for _, id := range invalid {
		if err := ValidateIdentifier(id); err == nil {
			t.Errorf("ValidateIdentifier(%q): expected error", id)
		}
	}
}

func TestPaths(t *testing.T) {
	if got := DocumentPath("u1", "f1", ".pdf"); got != "users/u1/documents/f1.pdf" {
		t.Errorf("DocumentPath = %q", got)
	}
	if got := ThumbnailPath("u1", "f1"); got != "users/u1/thumbnails/f1.jpg" {
		t.Errorf("ThumbnailPath = %q", got)
	}
	if got := ConvertedPath("u1", "f1", ".docx"); got != "users/u1/converted/f1.docx" {
		t.Errorf("ConvertedPath = %q", got)
	}
}

func TestFS_PutAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFS(dir, "http://localhost:9000/blobs")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	url, err := store.Put(ctx, "users/u1/documents/f1.pdf", []byte("%PDF-1.4"), "application/pdf")
	if err != nil {
		t.Fatal(err)
	}
	if url != "http://localhost:9000/blobs/users/u1/documents/f1.pdf" {
		t.Errorf("url = %q", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "users", "u1", "documents", "f1.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("stored content = %q", data)
	}

	// No leftover temp file.
	if _, err := os.Stat(filepath.Join(dir, "users", "u1", "documents", "f1.pdf.tmp")); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	if err := store.Delete(ctx, "users/u1/documents/f1.pdf"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "users", "u1", "documents", "f1.pdf")); !os.IsNotExist(err) {
		t.Error("object not deleted")
	}
}

func TestFS_RejectsTraversal(t *testing.T) {
	store, err := NewFS(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.Put(context.Background(), "../outside", []byte("x"), "text/plain")
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StorageError, got %v", err)
	}
	if !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestMemory_PutGetPublic(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	url, err := store.Put(ctx, "users/u1/thumbnails/f1.jpg", []byte{0xFF, 0xD8}, "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if url != "memory://users/u1/thumbnails/f1.jpg" {
		t.Errorf("url = %q", url)
	}

	obj := store.Get("users/u1/thumbnails/f1.jpg")
	if obj == nil {
		t.Fatal("object missing")
	}
	if obj.ContentType != "image/jpeg" {
		t.Errorf("content type = %q", obj.ContentType)
	}
	if obj.Public {
		t.Error("object public before MakePublic")
	}

	if err := store.MakePublic(ctx, "users/u1/thumbnails/f1.jpg"); err != nil {
		t.Fatal(err)
	}
	if !store.Get("users/u1/thumbnails/f1.jpg").Public {
		t.Error("object not public after MakePublic")
	}
}

func TestMemory_FailPut(t *testing.T) {
	store := NewMemory()
	cause := errors.New("bucket unavailable")
	store.FailPut = cause

	_, err := store.Put(context.Background(), "p", []byte("x"), "text/plain")
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StorageError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("StorageError does not wrap the cause")
	}
}
