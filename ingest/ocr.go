package ingest

import (
	"context"
	"strings"

	"github.com/hazyhaar/docingest/ocrengine"
)

// ocrExtractor recognizes text in raster images through the remote OCR
// engine. Confidence below the configured threshold is reported, not
// rejected: the pipeline only ever relays the number.
type ocrExtractor struct {
	cfg Config
	rec Recognizer
}

func (e *ocrExtractor) canHandle(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}

func (e *ocrExtractor) extract(ctx context.Context, data []byte) (*ExtractionResult, error) {
	if e.rec == nil {
		return nil, &FileProcessingError{Reason: "no OCR engine configured"}
	}

	// Preprocessing is best-effort: on any failure the original bytes go
	// to the engine unmodified and recognition quality takes the hit.
	img := preprocessImage(data, e.cfg.PreprocessMaxHeight, e.cfg.Logger)

	result, err := e.rec.Recognize(ctx, img, ocrengine.Options{
		Language: e.cfg.OCRLanguage,
		PSM:      e.cfg.OCRPSMMode,
	})
	if err != nil {
		return nil, wrapEngine("", "OCR recognition failed", err)
	}

	text := collapseSpaces(result.Text)
	if isBlank(text) {
		return nil, &FileProcessingError{Reason: "no text recognized in image"}
	}

	confidence := result.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	if confidence < e.cfg.OCRConfidenceThreshold {
		e.cfg.Logger.Warn("low OCR confidence",
			"confidence", confidence,
			"threshold", e.cfg.OCRConfidenceThreshold)
	}

	return &ExtractionResult{
		Text:       text,
		Confidence: &confidence,
		Method:     MethodOCR,
	}, nil
}
