package ingest

import "fmt"

// ValidationError reports a precondition failure detected before any
// extraction work: empty buffer, oversize upload, unsupported type.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// FileProcessingError reports that extraction or conversion failed after
// preconditions passed. MIMEType carries the offending type as context.
// Unexpected errors from an underlying engine are wrapped here so callers
// never meet engine-specific error types.
type FileProcessingError struct {
	MIMEType string
	Reason   string
	Err      error
}

func (e *FileProcessingError) Error() string {
	msg := e.Reason
	if e.MIMEType != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.MIMEType)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FileProcessingError) Unwrap() error { return e.Err }

// wrapEngine wraps an unclassified engine error into a FileProcessingError
// carrying the original message.
func wrapEngine(mime, reason string, err error) *FileProcessingError {
	return &FileProcessingError{MIMEType: mime, Reason: reason, Err: err}
}
