// Package ocrengine is an HTTP client for a remote OCR recognition
// service. The pipeline treats recognition as an external engine reached
// over HTTP: the image is posted base64-encoded together with the
// language and page-segmentation mode, and the service answers with the
// recognized text and a 0–100 confidence score.
package ocrengine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Options configures one recognition call.
type Options struct {
	// Language is the recognition language tag (e.g. "eng").
	Language string
	// PSM is the page segmentation mode; 6 assumes a single uniform
	// block of text.
	PSM int
}

// Result is the engine's answer for one image.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0–100
}

// Client talks to one OCR server.
type Client struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a client for the OCR server at baseURL.
// Recognition is CPU-bound on the server side, so the HTTP timeout is
// generous (120 s); per-call deadlines come from the caller's context.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

type recognizeRequest struct {
	Image    string `json:"image"` // base64
	Language string `json:"language"`
	PSM      int    `json:"psm"`
}

// Recognize posts image to the server and returns the recognition result.
func (c *Client) Recognize(ctx context.Context, image []byte, opts Options) (*Result, error) {
	payload := recognizeRequest{
		Image:    base64.StdEncoding.EncodeToString(image),
		Language: opts.Language,
		PSM:      opts.PSM,
	}
	reqJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/recognize", bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending OCR request",
		"url", c.baseURL,
		"image_bytes", len(image),
		"language", opts.Language,
		"psm", opts.PSM)

	startTime := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(startTime)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("OCR server error",
			"status", resp.StatusCode,
			"body", string(body),
			"duration", duration)
		return nil, fmt.Errorf("OCR server returned status %d: %s", resp.StatusCode, string(body))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode OCR response: %w", err)
	}

	c.logger.Debug("OCR response received",
		"duration", duration,
		"text_len", len(result.Text),
		"confidence", result.Confidence)

	return &result, nil
}
