// Package journal persists per-file pipeline stage records to SQLite.
//
// Every ProcessFile call emits one entry per completed stage (validate,
// extract, upload, thumbnail, metadata), carrying the stage duration and
// any error text. Writes are asynchronous and never block the pipeline:
// entries are buffered in a channel and flushed in batches; when the
// buffer is full new entries are dropped silently.
//
// A nil Recorder disables persistence — the pipeline then reports stages
// through slog only.
package journal

import "time"

// Entry is a single pipeline stage record.
type Entry struct {
	FileID     string // per-call ID generated by the dispatcher
	Stage      string // validate, extract, upload, thumbnail, metadata, convert
	Method     string // pdf-extract, docx-extract, ocr — empty for non-extract stages
	DurationUS int64  // microseconds
	Error      string // empty on success
	Timestamp  int64  // unix microseconds
}

// Recorder is the interface for journal persistence backends.
type Recorder interface {
	RecordAsync(e *Entry)
	Close() error
}

// Record builds an Entry for a stage that took d and queues it on r.
// Safe to call with a nil Recorder.
func Record(r Recorder, fileID, stage, method string, d time.Duration, err error) {
	if r == nil {
		return
	}
	e := &Entry{
		FileID:     fileID,
		Stage:      stage,
		Method:     method,
		DurationUS: d.Microseconds(),
		Timestamp:  time.Now().UnixMicro(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	r.RecordAsync(e)
}
