package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/docingest/blobstore"
	"github.com/hazyhaar/docingest/journal"
)

// Conversion format tags accepted by Convert.
const (
	FormatPDF  = "pdf"
	FormatDocx = "docx"
)

// Convert turns previously extracted text into a binary document in a
// different format and stores it. Only pdf → docx is implemented;
// docx → pdf always fails with a "not yet available" error, and every
// other pair is rejected as unsupported.
func (p *Pipeline) Convert(ctx context.Context, text, fromFormat, toFormat, userID string) (*ConversionResult, error) {
	if err := blobstore.ValidateIdentifier(userID); err != nil {
		return nil, &ValidationError{Reason: "invalid user ID"}
	}

	switch {
	case fromFormat == FormatDocx && toFormat == FormatPDF:
		return nil, &FileProcessingError{
			MIMEType: MimeDocx,
			Reason:   "docx to pdf conversion is not yet available",
		}

	case fromFormat == FormatPDF && toFormat == FormatDocx:
		return p.convertToDocx(ctx, text, userID)

	default:
		return nil, &FileProcessingError{
			Reason: fmt.Sprintf("unsupported conversion: %s to %s", fromFormat, toFormat),
		}
	}
}

func (p *Pipeline) convertToDocx(ctx context.Context, text, userID string) (*ConversionResult, error) {
	if isBlank(text) {
		return nil, &FileProcessingError{Reason: "no text to convert"}
	}

	start := time.Now()
	id := p.newID()

	buf, err := buildDocx(text)
	if err != nil {
		return nil, wrapEngine(MimeDocx, "failed to build document", err)
	}

	objPath := blobstore.ConvertedPath(userID, id, ".docx")
	url, err := p.store.Put(ctx, objPath, buf, MimeDocx)
	if err == nil {
		err = p.store.MakePublic(ctx, objPath)
	}
	journal.Record(p.journal, id, "convert", "", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	p.cfg.Logger.Info("text converted",
		"file_id", id,
		"to", FormatDocx,
		"bytes", len(buf))

	return &ConversionResult{
		Buffer:      buf,
		MIMEType:    MimeDocx,
		DownloadURL: url,
	}, nil
}

// OOXML boilerplate for a minimal wordprocessing package. The document
// body is assembled paragraph by paragraph from the input text.
const (
	docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

	docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

	docxDocumentOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

	docxDocumentClose = `</w:body></w:document>`
)

// buildDocx serializes text into a minimal OOXML package: one paragraph
// per blank-line-separated block, the mirror image of what the docx
// extractor reads back out.
func buildDocx(text string) ([]byte, error) {
	var doc strings.Builder
	doc.WriteString(docxDocumentOpen)
	for _, block := range splitParagraphs(text) {
		var escaped bytes.Buffer
		if err := xml.EscapeText(&escaped, []byte(block)); err != nil {
			return nil, fmt.Errorf("escape paragraph: %w", err)
		}
		doc.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		doc.Write(escaped.Bytes())
		doc.WriteString(`</w:t></w:r></w:p>`)
	}
	doc.WriteString(docxDocumentClose)

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	parts := []struct {
		name, body string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", doc.String()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return out.Bytes(), nil
}

// splitParagraphs splits on blank lines; single newlines inside a block
// collapse into the same paragraph.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(strings.ReplaceAll(block, "\n", " "))
		if block != "" {
			out = append(out, block)
		}
	}
	if len(out) == 0 && !isBlank(text) {
		out = []string{strings.TrimSpace(text)}
	}
	return out
}
