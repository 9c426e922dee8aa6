package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/hazyhaar/docingest/blobstore"
	"github.com/hazyhaar/docingest/ocrengine"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func newTestPipeline(t *testing.T, rec Recognizer, opts ...Option) (*Pipeline, *blobstore.Memory) {
	t.Helper()
	store := blobstore.NewMemory()
	return New(testConfig(), store, rec, opts...), store
}

func TestProcessFile_EmptyBuffer(t *testing.T) {
	pipe, _ := newTestPipeline(t, nil)

	upload := FileUpload{OriginalName: "x.pdf", MIMEType: MimePDF}
	_, err := pipe.ProcessFile(context.Background(), upload, "user1")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if !strings.Contains(ve.Reason, "empty") {
		t.Errorf("reason = %q", ve.Reason)
	}
}

func TestProcessFile_Oversize(t *testing.T) {
	tests := []struct {
		name       string
		limit      int64
		size       int64
		wantReason string
	}{
		{"mb limit", 10 * 1024 * 1024, 10*1024*1024 + 1, "exceeds the 10 MB limit"},
		{"sub-mb limit reported in bytes", 1024, 2048, "exceeds the 1024 byte limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.MaxFileSize = tt.limit
			store := blobstore.NewMemory()
			pipe := New(cfg, store, nil)

			upload := FileUpload{
				Buffer:       make([]byte, 16),
				OriginalName: "big.pdf",
				MIMEType:     MimePDF,
				Size:         tt.size,
			}
			_, err := pipe.ProcessFile(context.Background(), upload, "user1")
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if !strings.Contains(ve.Reason, tt.wantReason) {
				t.Errorf("reason = %q, want substring %q", ve.Reason, tt.wantReason)
			}
			if store.Len() != 0 {
				t.Error("rejected upload must not reach storage")
			}
		})
	}
}

func TestProcessFile_UnsupportedType(t *testing.T) {
	pipe, _ := newTestPipeline(t, nil)

	upload := FileUpload{
		Buffer:       []byte("data"),
		OriginalName: "video.mp4",
		MIMEType:     "video/mp4",
		Size:         4,
	}
	_, err := pipe.ProcessFile(context.Background(), upload, "user1")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	// The rejection enumerates what is accepted.
	if !strings.Contains(ve.Reason, MimePDF) {
		t.Errorf("reason should list supported types, got %q", ve.Reason)
	}
}

// spyExtractor claims every mime type and records whether it ran.
type spyExtractor struct {
	called bool
}

func (s *spyExtractor) canHandle(string) bool { return true }

func (s *spyExtractor) extract(context.Context, []byte) (*ExtractionResult, error) {
	s.called = true
	return &ExtractionResult{Text: "spy", Method: MethodDocx}, nil
}

func TestProcessFile_LegacyDoc(t *testing.T) {
	pipe, store := newTestPipeline(t, nil)

	// Even an extractor claiming every type must never see a legacy doc.
	spy := &spyExtractor{}
	pipe.extractors = []extractor{spy}

	upload := FileUpload{
		Buffer:       []byte("\xd0\xcf\x11\xe0legacy"),
		OriginalName: "old.doc",
		MIMEType:     MimeDoc,
		Size:         10,
	}
	_, err := pipe.ProcessFile(context.Background(), upload, "user1")
	var pe *FileProcessingError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *FileProcessingError, got %v", err)
	}
	if pe.Reason != legacyDocMessage {
		t.Errorf("reason = %q", pe.Reason)
	}
	if spy.called {
		t.Error("extractor consulted for legacy doc")
	}
	if store.Len() != 0 {
		t.Error("legacy doc must be rejected before any storage write")
	}
}

func TestValidate_AcceptsSupportedTypes(t *testing.T) {
	pipe, _ := newTestPipeline(t, nil)

	for _, mime := range []string{MimePDF, MimeDocx, MimeJPEG, MimePNG, MimeWebP} {
		u := FileUpload{Buffer: []byte("x"), OriginalName: "f", MIMEType: mime, Size: 1}
		if err := pipe.validate(u); err != nil {
			t.Errorf("validate(%s): %v", mime, err)
		}
		u.Size = pipe.cfg.MaxFileSize
		u.Buffer = []byte("at the limit")
		if err := pipe.validate(u); err != nil {
			t.Errorf("validate(%s) at size limit: %v", mime, err)
		}
	}
}

func TestProcessFile_InvalidUserID(t *testing.T) {
	pipe, _ := newTestPipeline(t, nil)

	upload := FileUpload{Buffer: []byte("x"), OriginalName: "a.pdf", MIMEType: MimePDF, Size: 1}
	for _, uid := range []string{"", "../escape", "a/b", strings.Repeat("x", 200)} {
		if _, err := pipe.ProcessFile(context.Background(), upload, uid); err == nil {
			t.Errorf("user id %q: expected error", uid)
		}
	}
}

func TestProcessFile_Docx(t *testing.T) {
	pipe, store := newTestPipeline(t, nil)

	data := buildTestDocx(t, "Hello from the test.", "A second paragraph.")
	upload := FileUpload{
		Buffer:       data,
		OriginalName: "report.docx",
		MIMEType:     MimeDocx,
		Size:         int64(len(data)),
	}

	pf, err := pipe.ProcessFile(context.Background(), upload, "user1")
	if err != nil {
		t.Fatal(err)
	}

	if pf.ID == "" {
		t.Error("missing file ID")
	}
	if pf.Text != "Hello from the test.\nA second paragraph." {
		t.Errorf("text = %q", pf.Text)
	}
	if pf.Metadata.Method != MethodDocx {
		t.Errorf("method = %q", pf.Metadata.Method)
	}
	if pf.Metadata.WordCount != 7 {
		t.Errorf("word count = %d", pf.Metadata.WordCount)
	}
	if pf.Metadata.OCRLanguage != "" {
		t.Error("non-OCR result must not carry an OCR language")
	}
	if pf.ThumbnailURL != "" {
		t.Error("documents get no thumbnail")
	}

	// The original was stored under the user's namespace and published.
	docPath := blobstore.DocumentPath("user1", pf.ID, ".docx")
	obj := store.Get(docPath)
	if obj == nil {
		t.Fatalf("original not stored at %s", docPath)
	}
	if !obj.Public {
		t.Error("stored original should be public")
	}
	if obj.ContentType != MimeDocx {
		t.Errorf("content type = %q", obj.ContentType)
	}
	if pf.DownloadURL == "" {
		t.Error("missing download URL")
	}
}

func TestProcessFile_PDF(t *testing.T) {
	pipe, store := newTestPipeline(t, nil)

	data := buildTestPDF(t, "BT\n/F1 12 Tf\n(Quarterly report text) Tj\nET")
	upload := FileUpload{
		Buffer:       data,
		OriginalName: "report.pdf",
		MIMEType:     MimePDF,
		Size:         int64(len(data)),
	}

	pf, err := pipe.ProcessFile(context.Background(), upload, "user1")
	if err != nil {
		t.Fatal(err)
	}
	if pf.Metadata.Method != MethodPDF {
		t.Errorf("method = %q", pf.Metadata.Method)
	}
	if pf.Pages == nil || *pf.Pages < 1 {
		t.Errorf("pages = %v, want >= 1", pf.Pages)
	}
	if !strings.Contains(pf.Text, "Quarterly report text") {
		t.Errorf("text = %q", pf.Text)
	}
	if pf.Confidence != nil {
		t.Error("pdf results carry no confidence")
	}
	if store.Get(blobstore.DocumentPath("user1", pf.ID, ".pdf")) == nil {
		t.Error("original not stored")
	}
}

func TestProcessFile_PDFWithoutTextLayer(t *testing.T) {
	pipe, store := newTestPipeline(t, nil)

	data := buildTestPDF(t, "q\n1 0 0 1 10 10 cm\n0 0 100 100 re f\nQ")
	upload := FileUpload{
		Buffer:       data,
		OriginalName: "scan.pdf",
		MIMEType:     MimePDF,
		Size:         int64(len(data)),
	}

	_, err := pipe.ProcessFile(context.Background(), upload, "user1")
	var pe *FileProcessingError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *FileProcessingError, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("failed extraction must not reach storage")
	}
}

func TestProcessFile_ImageWithThumbnail(t *testing.T) {
	rec := &fakeRecognizer{result: &ocrengine.Result{Text: "scanned receipt text", Confidence: 91}}
	pipe, store := newTestPipeline(t, rec)

	data := buildTestPNG(t, 800, 600)
	upload := FileUpload{
		Buffer:       data,
		OriginalName: "receipt.png",
		MIMEType:     MimePNG,
		Size:         int64(len(data)),
	}

	pf, err := pipe.ProcessFile(context.Background(), upload, "user1")
	if err != nil {
		t.Fatal(err)
	}
	if pf.Metadata.Method != MethodOCR {
		t.Errorf("method = %q", pf.Metadata.Method)
	}
	if pf.Metadata.OCRLanguage != "eng" {
		t.Errorf("ocr language = %q", pf.Metadata.OCRLanguage)
	}
	if pf.Confidence == nil || *pf.Confidence != 91 {
		t.Errorf("confidence = %v", pf.Confidence)
	}
	if pf.ThumbnailURL == "" {
		t.Error("image upload should produce a thumbnail URL")
	}

	thumb := store.Get(blobstore.ThumbnailPath("user1", pf.ID))
	if thumb == nil {
		t.Fatal("thumbnail not stored")
	}
	if thumb.ContentType != "image/jpeg" {
		t.Errorf("thumbnail content type = %q", thumb.ContentType)
	}
}

// thumbFailStore fails writes to thumbnail paths only.
type thumbFailStore struct {
	*blobstore.Memory
}

func (s *thumbFailStore) Put(ctx context.Context, objPath string, data []byte, contentType string) (string, error) {
	if strings.Contains(objPath, "/thumbnails/") {
		return "", &blobstore.StorageError{Op: "put", Path: objPath, Err: errors.New("simulated outage")}
	}
	return s.Memory.Put(ctx, objPath, data, contentType)
}

func TestProcessFile_ThumbnailFailureIsSoft(t *testing.T) {
	rec := &fakeRecognizer{result: &ocrengine.Result{Text: "text", Confidence: 80}}
	store := &thumbFailStore{Memory: blobstore.NewMemory()}
	pipe := New(testConfig(), store, rec)

	data := buildTestPNG(t, 500, 500)
	upload := FileUpload{
		Buffer:       data,
		OriginalName: "photo.png",
		MIMEType:     MimePNG,
		Size:         int64(len(data)),
	}

	pf, err := pipe.ProcessFile(context.Background(), upload, "user1")
	if err != nil {
		t.Fatalf("thumbnail failure must not fail the pipeline: %v", err)
	}
	if pf.ThumbnailURL != "" {
		t.Errorf("thumbnail URL = %q, want empty", pf.ThumbnailURL)
	}
	if pf.Text != "text" {
		t.Errorf("text = %q", pf.Text)
	}
}

func TestProcessFile_StorageFailureAborts(t *testing.T) {
	pipe, store := newTestPipeline(t, nil)
	store.FailPut = errors.New("bucket unavailable")

	data := buildTestDocx(t, "content that extracts fine")
	upload := FileUpload{
		Buffer:       data,
		OriginalName: "doc.docx",
		MIMEType:     MimeDocx,
		Size:         int64(len(data)),
	}

	pf, err := pipe.ProcessFile(context.Background(), upload, "user1")
	var se *blobstore.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *blobstore.StorageError, got %v", err)
	}
	if pf != nil {
		t.Error("no partial result on storage failure")
	}
}

func TestProcessFile_ConcurrentDistinctIDs(t *testing.T) {
	pipe, store := newTestPipeline(t, nil)

	const n = 50
	texts := make([]string, n)
	uploads := make([]FileUpload, n)
	for i := 0; i < n; i++ {
		texts[i] = fmt.Sprintf("workload number %d", i)
		data := buildTestDocx(t, texts[i])
		uploads[i] = FileUpload{
			Buffer:       data,
			OriginalName: fmt.Sprintf("doc-%d.docx", i),
			MIMEType:     MimeDocx,
			Size:         int64(len(data)),
		}
	}

	var mu sync.Mutex
	ids := make(map[string]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pf, err := pipe.ProcessFile(context.Background(), uploads[i], fmt.Sprintf("user-%d", i))
			if err != nil {
				t.Errorf("concurrent process: %v", err)
				return
			}
			// No cross-contamination: each result carries its own text.
			if pf.Text != texts[i] {
				t.Errorf("text = %q, want %q", pf.Text, texts[i])
			}
			mu.Lock()
			ids[pf.ID] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(ids) != n {
		t.Errorf("got %d distinct IDs, want %d", len(ids), n)
	}
	if store.Len() != n {
		t.Errorf("got %d stored objects, want %d", store.Len(), n)
	}
}

func TestProcessAll(t *testing.T) {
	pipe, _ := newTestPipeline(t, nil)

	good := buildTestDocx(t, "fine document")
	uploads := []FileUpload{
		{Buffer: good, OriginalName: "a.docx", MIMEType: MimeDocx, Size: int64(len(good))},
		{OriginalName: "empty.docx", MIMEType: MimeDocx}, // fails validation
		{Buffer: good, OriginalName: "b.docx", MIMEType: MimeDocx, Size: int64(len(good))},
	}

	results := pipe.ProcessAll(context.Background(), uploads, "user1", 2)
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Err != nil || results[0].File == nil {
		t.Errorf("result 0: err=%v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Error("result 1: expected validation error")
	}
	if results[2].Err != nil || results[2].File == nil {
		t.Errorf("result 2: err=%v", results[2].Err)
	}
	// Order matches input.
	if results[0].Upload.OriginalName != "a.docx" || results[2].Upload.OriginalName != "b.docx" {
		t.Error("results out of order")
	}
}

func TestWithIDGenerator(t *testing.T) {
	seq := 0
	gen := func() string {
		seq++
		return fmt.Sprintf("fixed-%d", seq)
	}
	pipe, _ := newTestPipeline(t, nil, WithIDGenerator(gen))

	data := buildTestDocx(t, "text")
	upload := FileUpload{Buffer: data, OriginalName: "d.docx", MIMEType: MimeDocx, Size: int64(len(data))}
	pf, err := pipe.ProcessFile(context.Background(), upload, "user1")
	if err != nil {
		t.Fatal(err)
	}
	if pf.ID != "fixed-1" {
		t.Errorf("ID = %q", pf.ID)
	}
}

func TestDetectMIME(t *testing.T) {
	tests := []struct {
		path string
		mime string
	}{
		{"file.pdf", MimePDF},
		{"file.docx", MimeDocx},
		{"file.doc", MimeDoc},
		{"photo.JPG", MimeJPEG},
		{"photo.jpeg", MimeJPEG},
		{"img.png", MimePNG},
		{"img.webp", MimeWebP},
	}
	for _, tt := range tests {
		mime, err := DetectMIME(tt.path)
		if err != nil {
			t.Errorf("DetectMIME(%q): %v", tt.path, err)
			continue
		}
		if mime != tt.mime {
			t.Errorf("DetectMIME(%q) = %q, want %q", tt.path, mime, tt.mime)
		}
	}
	if _, err := DetectMIME("file.xyz"); err == nil {
		t.Error("expected error for unknown extension")
	}
}
