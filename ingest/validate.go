package ingest

import (
	"fmt"
	"strings"
)

// validate runs the precondition checks against one upload. Pure, no
// I/O; must pass before any extractor is invoked so oversize or
// unsupported uploads never cost extraction CPU.
func (p *Pipeline) validate(u FileUpload) error {
	if len(u.Buffer) == 0 || u.Size <= 0 {
		return &ValidationError{Reason: "file buffer is empty"}
	}
	if u.Size > p.cfg.MaxFileSize {
		// Limits below 1 MiB are reported in bytes so the message never
		// rounds down to a 0 MB limit.
		if mb := p.cfg.MaxFileSize / (1024 * 1024); mb >= 1 {
			return &ValidationError{Reason: fmt.Sprintf(
				"file size exceeds the %d MB limit", mb)}
		}
		return &ValidationError{Reason: fmt.Sprintf(
			"file size exceeds the %d byte limit", p.cfg.MaxFileSize)}
	}
	if !p.cfg.supports(u.MIMEType) {
		return &ValidationError{Reason: fmt.Sprintf(
			"unsupported file type %q (supported: %s)",
			u.MIMEType, strings.Join(p.cfg.SupportedMIMETypes, ", "))}
	}
	return nil
}
