package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Config holds the immutable pipeline settings, resolved once at startup
// and passed into every component. Extractors never read ambient state.
type Config struct {
	// MaxFileSize is the upload size ceiling in bytes (default: 25 MB).
	MaxFileSize int64 `yaml:"max_file_size"`

	// SupportedMIMETypes is the accepted upload type set.
	SupportedMIMETypes []string `yaml:"supported_mime_types"`

	// OCRLanguage is the recognition language tag (default: "eng").
	OCRLanguage string `yaml:"ocr_language"`

	// OCRConfidenceThreshold is the confidence level below which a
	// warning is logged. Results are reported either way (default: 60).
	OCRConfidenceThreshold float64 `yaml:"ocr_confidence_threshold"`

	// OCRPSMMode is the page segmentation mode passed to the engine;
	// 6 assumes a single uniform block of text (default: 6).
	OCRPSMMode int `yaml:"ocr_psm_mode"`

	// PDFMaxPages caps how many pages are read from a PDF. Pages beyond
	// the cap are not parsed, bounding worst-case latency (default: 20).
	PDFMaxPages int `yaml:"pdf_max_pages"`

	// ThumbnailMaxWidth/Height bound the thumbnail box (default: 300×400).
	ThumbnailMaxWidth  int `yaml:"thumbnail_max_width"`
	ThumbnailMaxHeight int `yaml:"thumbnail_max_height"`

	// PreprocessMaxHeight is the OCR pre-resize target; smaller images
	// are never upscaled (default: 1600).
	PreprocessMaxHeight int `yaml:"preprocess_max_height"`

	// Logger for pipeline messages.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	var c Config
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 25 * 1024 * 1024
	}
	if len(c.SupportedMIMETypes) == 0 {
		c.SupportedMIMETypes = []string{MimePDF, MimeDocx, MimeJPEG, MimePNG, MimeWebP}
	}
	if c.OCRLanguage == "" {
		c.OCRLanguage = "eng"
	}
	if c.OCRConfidenceThreshold <= 0 {
		c.OCRConfidenceThreshold = 60
	}
	if c.OCRPSMMode <= 0 {
		c.OCRPSMMode = 6
	}
	if c.PDFMaxPages <= 0 {
		c.PDFMaxPages = 20
	}
	if c.ThumbnailMaxWidth <= 0 {
		c.ThumbnailMaxWidth = 300
	}
	if c.ThumbnailMaxHeight <= 0 {
		c.ThumbnailMaxHeight = 400
	}
	if c.PreprocessMaxHeight <= 0 {
		c.PreprocessMaxHeight = 1600
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// LoadConfig reads a YAML config file merged over the defaults. Limits
// that are explicitly configured out of range are rejected; only absent
// keys fall back to defaults.
func LoadConfig(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	// A second decode into pointer fields distinguishes absent keys from
	// explicit zero or negative values, which defaults() would otherwise
	// silently replace.
	var raw struct {
		MaxFileSize            *int64   `yaml:"max_file_size"`
		PDFMaxPages            *int     `yaml:"pdf_max_pages"`
		OCRConfidenceThreshold *float64 `yaml:"ocr_confidence_threshold"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if raw.MaxFileSize != nil && *raw.MaxFileSize <= 0 {
		return cfg, fmt.Errorf("config %s: max_file_size must be > 0", path)
	}
	if raw.PDFMaxPages != nil && *raw.PDFMaxPages <= 0 {
		return cfg, fmt.Errorf("config %s: pdf_max_pages must be > 0", path)
	}
	if raw.OCRConfidenceThreshold != nil &&
		(*raw.OCRConfidenceThreshold < 0 || *raw.OCRConfidenceThreshold > 100) {
		return cfg, fmt.Errorf("config %s: ocr_confidence_threshold must be within [0,100]", path)
	}
	cfg.defaults()
	return cfg, cfg.Validate()
}

// Validate checks that values are sane.
func (c *Config) Validate() error {
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be > 0")
	}
	if len(c.SupportedMIMETypes) == 0 {
		return fmt.Errorf("supported_mime_types must not be empty")
	}
	if c.OCRConfidenceThreshold < 0 || c.OCRConfidenceThreshold > 100 {
		return fmt.Errorf("ocr_confidence_threshold must be within [0,100]")
	}
	if c.PDFMaxPages <= 0 {
		return fmt.Errorf("pdf_max_pages must be > 0")
	}
	return nil
}

func (c *Config) supports(mime string) bool {
	return slices.Contains(c.SupportedMIMETypes, mime)
}
