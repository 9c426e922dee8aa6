package ingest

import (
	"bytes"
	"image"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPreprocessImage_Downscales(t *testing.T) {
	src := buildTestPNG(t, 100, 2000)

	out := preprocessImage(src, 800, discardLogger())
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("preprocessed output does not decode: %v", err)
	}
	if h := img.Bounds().Dy(); h != 800 {
		t.Errorf("height = %d, want 800", h)
	}
}

func TestPreprocessImage_NeverUpscales(t *testing.T) {
	src := buildTestPNG(t, 50, 40)

	out := preprocessImage(src, 1600, discardLogger())
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	if b.Dx() != 50 || b.Dy() != 40 {
		t.Errorf("bounds = %v, small images must keep their size", b)
	}
}

func TestPreprocessImage_BadInputPassesThrough(t *testing.T) {
	garbage := []byte("not an image at all")

	out := preprocessImage(garbage, 1600, discardLogger())
	if !bytes.Equal(out, garbage) {
		t.Error("undecodable input should pass through unchanged")
	}
}

func TestFitInside(t *testing.T) {
	tests := []struct {
		w, h         int
		maxW, maxH   int
		wantW, wantH int
	}{
		{600, 800, 300, 400, 300, 400},
		{800, 600, 300, 400, 300, 225},
		{100, 100, 300, 400, 100, 100}, // already inside, untouched
		{3000, 100, 300, 400, 300, 10},
	}
	for _, tt := range tests {
		src := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
		out := fitInside(src, tt.maxW, tt.maxH)
		b := out.Bounds()
		if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
			t.Errorf("fitInside(%dx%d, %dx%d) = %dx%d, want %dx%d",
				tt.w, tt.h, tt.maxW, tt.maxH, b.Dx(), b.Dy(), tt.wantW, tt.wantH)
		}
	}
}
