package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hazyhaar/docingest/blobstore"
	"github.com/hazyhaar/docingest/journal"
)

// legacyDocMessage is the fixed rejection for the binary .doc format.
const legacyDocMessage = "legacy .doc format is not supported — please convert the document to .docx first"

// ProcessFile runs the full pipeline for one upload:
//
//	validate → extract → upload → thumbnail (images, best-effort) → metadata
//
// Failures in validation or extraction abort before any storage write. A
// storage failure after successful extraction aborts the whole call with
// a *blobstore.StorageError; extracted text is not returned on that
// path. Thumbnail failures degrade to an empty URL.
//
// userID is used only to namespace storage paths.
func (p *Pipeline) ProcessFile(ctx context.Context, upload FileUpload, userID string) (*ProcessedFile, error) {
	start := time.Now()

	if err := blobstore.ValidateIdentifier(userID); err != nil {
		return nil, &ValidationError{Reason: "invalid user ID"}
	}

	id := p.newID()
	log := p.cfg.Logger.With("file_id", id, "name", upload.OriginalName, "mime", upload.MIMEType)
	log.Debug("processing file", "size", upload.Size, "user", userID)

	// Legacy binary Word documents are rejected before the extractor
	// registry is ever consulted.
	if upload.MIMEType == MimeDoc {
		return nil, &FileProcessingError{MIMEType: MimeDoc, Reason: legacyDocMessage}
	}

	// Validating.
	stageStart := time.Now()
	err := p.validate(upload)
	journal.Record(p.journal, id, "validate", "", time.Since(stageStart), err)
	if err != nil {
		log.Warn("validation rejected upload", "error", err)
		return nil, err
	}

	// Extracting.
	ex := p.selectExtractor(upload.MIMEType)
	if ex == nil {
		return nil, &FileProcessingError{MIMEType: upload.MIMEType, Reason: "no extractor for file type"}
	}
	stageStart = time.Now()
	result, err := ex.extract(ctx, upload.Buffer)
	if err != nil {
		err = tagMIME(err, upload.MIMEType)
		journal.Record(p.journal, id, "extract", "", time.Since(stageStart), err)
		log.Warn("extraction failed", "error", err)
		return nil, err
	}
	journal.Record(p.journal, id, "extract", result.Method, time.Since(stageStart), nil)

	// Uploading. The stored original is published so DownloadURL resolves
	// without credentials.
	docPath := blobstore.DocumentPath(userID, id, mimeExtensions[upload.MIMEType])
	stageStart = time.Now()
	downloadURL, err := p.store.Put(ctx, docPath, upload.Buffer, upload.MIMEType)
	if err == nil {
		err = p.store.MakePublic(ctx, docPath)
	}
	journal.Record(p.journal, id, "upload", "", time.Since(stageStart), err)
	if err != nil {
		log.Error("storing original failed", "path", docPath, "error", err)
		return nil, err
	}

	// ThumbnailGenerating — images only, never fatal.
	thumbnailURL := ""
	if strings.HasPrefix(upload.MIMEType, "image/") {
		stageStart = time.Now()
		var thumbErr error
		thumbnailURL, thumbErr = p.generateThumbnail(ctx, upload.Buffer, userID, id)
		journal.Record(p.journal, id, "thumbnail", "", time.Since(stageStart), thumbErr)
	}

	// MetadataComputing.
	meta := Metadata{
		ProcessedAt:      time.Now().UTC(),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
		Method:           result.Method,
		WordCount:        WordCount(result.Text),
		CharacterCount:   CharacterCount(result.Text),
	}
	if result.Method == MethodOCR {
		meta.OCRLanguage = p.cfg.OCRLanguage
	}
	journal.Record(p.journal, id, "metadata", result.Method, time.Since(start), nil)

	log.Info("file processed",
		"method", result.Method,
		"words", meta.WordCount,
		"duration_ms", meta.ProcessingTimeMS)

	return &ProcessedFile{
		ID:           id,
		OriginalName: upload.OriginalName,
		MIMEType:     upload.MIMEType,
		Size:         upload.Size,
		Text:         result.Text,
		Confidence:   result.Confidence,
		Pages:        result.Pages,
		DownloadURL:  downloadURL,
		ThumbnailURL: thumbnailURL,
		Metadata:     meta,
	}, nil
}

// tagMIME fills in the offending mime type on processing errors that
// bubbled up from an extractor without one.
func tagMIME(err error, mime string) error {
	var pe *FileProcessingError
	if errors.As(err, &pe) && pe.MIMEType == "" {
		pe.MIMEType = mime
		return err
	}
	return err
}
