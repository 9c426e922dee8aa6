package ingest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"github.com/hazyhaar/docingest/blobstore"
)

// generateThumbnail derives and stores a JPEG thumbnail for an image
// upload. This is a soft feature: on any failure it logs, returns "" and
// the error for the journal, and the primary result is unaffected.
func (p *Pipeline) generateThumbnail(ctx context.Context, data []byte, userID, fileID string) (string, error) {
	url, err := p.buildAndStoreThumbnail(ctx, data, userID, fileID)
	if err != nil {
		p.cfg.Logger.Warn("thumbnail generation failed", "file_id", fileID, "error", err)
		return "", err
	}
	return url, nil
}

func (p *Pipeline) buildAndStoreThumbnail(ctx context.Context, data []byte, userID, fileID string) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	thumb := fitInside(src, p.cfg.ThumbnailMaxWidth, p.cfg.ThumbnailMaxHeight)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}

	thumbPath := blobstore.ThumbnailPath(userID, fileID)
	url, err := p.store.Put(ctx, thumbPath, buf.Bytes(), "image/jpeg")
	if err != nil {
		return "", err
	}
	if err := p.store.MakePublic(ctx, thumbPath); err != nil {
		return "", err
	}
	return url, nil
}

// fitInside scales src to fit within maxW×maxH preserving aspect ratio.
// Images already inside the box are returned as-is: thumbnails are never
// upscaled.
func fitInside(src image.Image, maxW, maxH int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxW && h <= maxH {
		return src
	}

	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	outW := int(float64(w) * scale)
	outH := int(float64(h) * scale)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
