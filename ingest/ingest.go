// Package ingest is the document ingestion and extraction pipeline.
//
// It accepts an uploaded document (PDF, OOXML word-processing file, or
// raster image), validates it, extracts normalized plain text — directly
// or through OCR — persists the original and any derived artifacts to
// blob storage, and reports extraction metadata (confidence, word and
// character counts, timing, method). A companion Convert entry point
// turns previously extracted text back into a binary document.
//
// Supported inputs:
//   - application/pdf        — embedded text layer (pdfcpu)
//   - OOXML .docx            — archive/zip → word/document.xml
//   - image/jpeg, png, webp  — OCR via a remote recognition engine
//
// The pipeline holds no mutable shared state beyond its Config, so any
// number of calls may run concurrently. It never writes an HTTP response
// and never persists a caller-facing record: it is headless and
// independently testable.
//
// Usage:
//
//	pipe := ingest.New(ingest.DefaultConfig(), store, recognizer)
//	pf, err := pipe.ProcessFile(ctx, upload, userID)
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/docingest/blobstore"
	"github.com/hazyhaar/docingest/idgen"
	"github.com/hazyhaar/docingest/journal"
	"github.com/hazyhaar/docingest/ocrengine"
)

// Recognizer is the OCR engine contract. ocrengine.Client implements it;
// tests substitute fakes.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, opts ocrengine.Options) (*ocrengine.Result, error)
}

// extractor is one text-extraction strategy. The dispatcher consults a
// small ordered registry of these, first match wins.
type extractor interface {
	canHandle(mime string) bool
	extract(ctx context.Context, data []byte) (*ExtractionResult, error)
}

// Pipeline is the ingestion engine. Construct with New.
type Pipeline struct {
	cfg        Config
	store      blobstore.Store
	extractors []extractor
	journal    journal.Recorder
	newID      idgen.Generator
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithJournal attaches a stage journal. A nil recorder is allowed and
// disables persistence.
func WithJournal(r journal.Recorder) Option {
	return func(p *Pipeline) { p.journal = r }
}

// WithIDGenerator overrides the per-call ID strategy (default: UUIDv7).
func WithIDGenerator(gen idgen.Generator) Option {
	return func(p *Pipeline) { p.newID = gen }
}

// New creates a Pipeline over the given blob store and OCR recognizer.
func New(cfg Config, store blobstore.Store, rec Recognizer, opts ...Option) *Pipeline {
	cfg.defaults()
	p := &Pipeline{
		cfg:   cfg,
		store: store,
		newID: idgen.Default,
	}
	p.extractors = []extractor{
		&pdfExtractor{cfg: cfg},
		&docxExtractor{cfg: cfg},
		&ocrExtractor{cfg: cfg, rec: rec},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// selectExtractor returns the first registered strategy that handles mime,
// or nil.
func (p *Pipeline) selectExtractor(mime string) extractor {
	for _, ex := range p.extractors {
		if ex.canHandle(mime) {
			return ex
		}
	}
	return nil
}

// DetectMIME returns the mime type for a file path based on its
// extension, for callers (CLI, MCP tools) that read uploads from disk.
func DetectMIME(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mime, ok := extensionMimes[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file extension: %q", ext)
	}
	return mime, nil
}

// SupportedMIMETypes returns the pipeline's accepted upload types.
func (p *Pipeline) SupportedMIMETypes() []string {
	out := make([]string, len(p.cfg.SupportedMIMETypes))
	copy(out, p.cfg.SupportedMIMETypes)
	return out
}
