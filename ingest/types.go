package ingest

import "time"

// Supported mime types.
const (
	MimePDF  = "application/pdf"
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWebP = "image/webp"

	// MimeDoc is the legacy binary Word format. It is never extracted:
	// the dispatcher rejects it with a fixed message before consulting
	// the extractor registry.
	MimeDoc = "application/msword"
)

// Extraction methods recorded on results.
const (
	MethodPDF  = "pdf-extract"
	MethodDocx = "docx-extract"
	MethodOCR  = "ocr"
)

// FileUpload is the raw input handed to the dispatcher. It lives for the
// duration of one call and is never persisted by this package.
type FileUpload struct {
	Buffer       []byte
	OriginalName string
	MIMEType     string
	Size         int64
}

// ExtractionResult is produced by one extractor strategy.
type ExtractionResult struct {
	Text string `json:"text"`
	// Confidence is present only for OCR, bounded to [0,100]. It is
	// advisory: threshold comparison belongs to the caller.
	Confidence *float64 `json:"confidence,omitempty"`
	// Pages is present only for paginated formats, ≥ 1.
	Pages  *int   `json:"pages,omitempty"`
	Method string `json:"method"`
}

// Metadata describes how a file was processed.
type Metadata struct {
	ProcessedAt      time.Time `json:"processed_at"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
	Method           string    `json:"method"`
	OCRLanguage      string    `json:"ocr_language,omitempty"`
	WordCount        int       `json:"word_count"`
	CharacterCount   int       `json:"character_count"`
}

// ProcessedFile is the pipeline's output aggregate, constructed exactly
// once per successful call. Further persistence is the caller's business.
type ProcessedFile struct {
	ID           string   `json:"id"`
	OriginalName string   `json:"original_name"`
	MIMEType     string   `json:"mime_type"`
	Size         int64    `json:"size"`
	Text         string   `json:"text"`
	Confidence   *float64 `json:"confidence,omitempty"`
	Pages        *int     `json:"pages,omitempty"`
	DownloadURL  string   `json:"download_url"`
	// ThumbnailURL is "" when generation was skipped or failed.
	ThumbnailURL string   `json:"thumbnail_url"`
	Metadata     Metadata `json:"metadata"`
}

// ConversionResult is the output of Convert.
type ConversionResult struct {
	Buffer      []byte `json:"-"`
	MIMEType    string `json:"mime_type"`
	DownloadURL string `json:"download_url"`
}

// mimeExtensions maps supported mime types to storage file extensions.
var mimeExtensions = map[string]string{
	MimePDF:  ".pdf",
	MimeDocx: ".docx",
	MimeJPEG: ".jpg",
	MimePNG:  ".png",
	MimeWebP: ".webp",
}

// extensionMimes is the reverse mapping used by DetectMIME.
var extensionMimes = map[string]string{
	".pdf":  MimePDF,
	".docx": MimeDocx,
	".doc":  MimeDoc,
	".jpg":  MimeJPEG,
	".jpeg": MimeJPEG,
	".png":  MimePNG,
	".webp": MimeWebP,
}
