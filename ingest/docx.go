package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// docxExtractor reads raw text out of the OOXML container by streaming
// word/document.xml. Structural oddities (unknown styles, malformed
// trailing markup) are logged and skipped; only missing or empty text
// fails the call.
type docxExtractor struct {
	cfg Config
}

func (e *docxExtractor) canHandle(mime string) bool {
	return mime == MimeDocx
}

func (e *docxExtractor) extract(ctx context.Context, data []byte) (*ExtractionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, wrapEngine(MimeDocx, "failed to open document archive", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, &FileProcessingError{MIMEType: MimeDocx, Reason: "word/document.xml not found in archive"}
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, wrapEngine(MimeDocx, "failed to open document.xml", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var paragraphs []string
	var current strings.Builder
	var inParagraph bool

	for {
		if err := ctx.Err(); err != nil {
			return nil, wrapEngine(MimeDocx, "extraction cancelled", err)
		}

		tok, err := decoder.Token()
		if err != nil {
			// EOF ends the walk. Anything else is a structural
			// warning, not a failure; whatever parsed so far is kept.
			if !errors.Is(err, io.EOF) {
				e.cfg.Logger.Warn("docx parser warning", "error", err)
			}
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				inParagraph = true
				current.Reset()
			}
		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
			}
		}
	}

	text := strings.Join(paragraphs, "\n")
	if isBlank(text) {
		return nil, &FileProcessingError{MIMEType: MimeDocx, Reason: "no text content found in document"}
	}

	return &ExtractionResult{
		Text:   text,
		Method: MethodDocx,
	}, nil
}
