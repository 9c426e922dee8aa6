package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/docingest/kit"
)

// RegisterMCP registers document ingestion tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerProcessTool(srv)
	p.registerConvertTool(srv)
	p.registerFormatsTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- process ---

type processReq struct {
	Path   string `json:"path"`
	UserID string `json:"user_id"`
}

func (p *Pipeline) registerProcessTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docingest_process",
		Description: "Ingest a document file (pdf, docx, jpeg, png, webp): extract its text, store it, and return the processed metadata.",
		InputSchema: inputSchema(map[string]any{
			"path":    map[string]any{"type": "string", "description": "File path to ingest"},
			"user_id": map[string]any{"type": "string", "description": "Owner of the uploaded file"},
		}, []string{"path", "user_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*processReq)
		data, err := os.ReadFile(r.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", r.Path, err)
		}
		mime, err := DetectMIME(r.Path)
		if err != nil {
			return nil, err
		}
		upload := FileUpload{
			Buffer:       data,
			OriginalName: filepath.Base(r.Path),
			MIMEType:     mime,
			Size:         int64(len(data)),
		}
		return p.ProcessFile(ctx, upload, r.UserID)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r processReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		enrich := func(ctx context.Context) context.Context {
			return kit.WithTransport(kit.WithUserID(ctx, r.UserID), "mcp")
		}
		return &kit.MCPDecodeResult{Request: &r, EnrichCtx: enrich}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- convert ---

type convertReq struct {
	Text   string `json:"text"`
	From   string `json:"from"`
	To     string `json:"to"`
	UserID string `json:"user_id"`
}

type convertResp struct {
	MIMEType    string `json:"mimeType"`
	DownloadURL string `json:"downloadUrl"`
	Size        int    `json:"size"`
}

func (p *Pipeline) registerConvertTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docingest_convert",
		Description: "Convert extracted text into a document of another format and store it. Currently supports pdf to docx.",
		InputSchema: inputSchema(map[string]any{
			"text":    map[string]any{"type": "string", "description": "Text to convert"},
			"from":    map[string]any{"type": "string", "description": "Source format (pdf, docx)"},
			"to":      map[string]any{"type": "string", "description": "Target format (pdf, docx)"},
			"user_id": map[string]any{"type": "string", "description": "Owner of the converted file"},
		}, []string{"text", "from", "to", "user_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*convertReq)
		res, err := p.Convert(ctx, r.Text, r.From, r.To, r.UserID)
		if err != nil {
			return nil, err
		}
		// The raw buffer stays out of the tool result; callers fetch
		// it from the download URL.
		return &convertResp{
			MIMEType:    res.MIMEType,
			DownloadURL: res.DownloadURL,
			Size:        len(res.Buffer),
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r convertReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		enrich := func(ctx context.Context) context.Context {
			return kit.WithTransport(kit.WithUserID(ctx, r.UserID), "mcp")
		}
		return &kit.MCPDecodeResult{Request: &r, EnrichCtx: enrich}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- formats ---

func (p *Pipeline) registerFormatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docingest_formats",
		Description: "List all supported upload MIME types.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{"mimeTypes": p.cfg.SupportedMIMETypes}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
