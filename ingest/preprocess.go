package ingest

import (
	"bytes"
	"image"
	"image/png"
	"log/slog"

	"golang.org/x/image/draw"

	_ "image/jpeg"

	// webp decoding for image.Decode
	_ "golang.org/x/image/webp"
)

// preprocessImage prepares an image for recognition: downscale so the
// height does not exceed maxHeight (never upscaling), convert to
// greyscale, stretch contrast, sharpen, and re-encode losslessly as PNG.
// Every step is best-effort: on any failure the original bytes are
// returned and the recognition call still proceeds.
func preprocessImage(data []byte, maxHeight int, logger *slog.Logger) []byte {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Warn("image preprocessing skipped", "error", err)
		return data
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		logger.Warn("image preprocessing skipped", "error", "zero-sized image")
		return data
	}

	if maxHeight > 0 && h > maxHeight {
		w = w * maxHeight / h
		h = maxHeight
		if w < 1 {
			w = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)
		src = scaled
		bounds = scaled.Bounds()
	}

	grey := toGreyscale(src)
	stretchContrast(grey)
	sharpened := sharpen(grey)

	var buf bytes.Buffer
	if err := png.Encode(&buf, sharpened); err != nil {
		logger.Warn("image re-encode failed, using original", "error", err)
		return data
	}
	return buf.Bytes()
}

func toGreyscale(src image.Image) *image.Gray {
	bounds := src.Bounds()
	grey := image.NewGray(bounds)
	draw.Draw(grey, bounds, src, bounds.Min, draw.Src)
	return grey
}

// stretchContrast linearly rescales pixel values so the darkest pixel
// maps to 0 and the brightest to 255. A flat image is left untouched.
func stretchContrast(img *image.Gray) {
	min, max := uint8(255), uint8(0)
	for _, px := range img.Pix {
		if px < min {
			min = px
		}
		if px > max {
			max = px
		}
	}
	if min >= max {
		return
	}
	span := int(max) - int(min)
	for i, px := range img.Pix {
		img.Pix[i] = uint8((int(px) - int(min)) * 255 / span)
	}
}

// sharpen applies a 3×3 unsharp kernel (center 5, cross -1).
func sharpen(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	copy(out.Pix, img.Pix)

	w, h := bounds.Dx(), bounds.Dy()
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*img.Stride + x
			v := 5*int(img.Pix[i]) -
				int(img.Pix[i-1]) - int(img.Pix[i+1]) -
				int(img.Pix[i-img.Stride]) - int(img.Pix[i+img.Stride])
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			out.Pix[i] = uint8(v)
		}
	}
	return out
}
