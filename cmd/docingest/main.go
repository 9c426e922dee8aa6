// docingest ingests documents from the command line or serves the
// pipeline as MCP tools over stdio.
//
// Usage:
//
//	docingest file.pdf [file2.docx ...]   process files, print JSON results
//	MCP_TRANSPORT=stdio docingest         serve MCP tools
//
// Environment:
//
//	DOCINGEST_CONFIG   optional YAML config path
//	GCS_BUCKET         use Google Cloud Storage (default: local filesystem)
//	BLOB_DIR           filesystem store root (default: data/blobs)
//	OCR_ENGINE_URL     remote OCR engine base URL
//	JOURNAL_DB         stage journal SQLite path (default: db/journal.db)
//	USER_ID            storage namespace for CLI runs (default: "local")
//	LOG_LEVEL          debug | info | warn | error
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/docingest/blobstore"
	"github.com/hazyhaar/docingest/dbopen"
	"github.com/hazyhaar/docingest/ingest"
	"github.com/hazyhaar/docingest/journal"
	"github.com/hazyhaar/docingest/ocrengine"
)

func main() {
	logLevel := env("LOG_LEVEL", "info")

	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	// MCP stdio owns stdout, so logs always go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Config.
	cfg := ingest.DefaultConfig()
	if path := os.Getenv("DOCINGEST_CONFIG"); path != "" {
		var err error
		cfg, err = ingest.LoadConfig(path)
		if err != nil {
			slog.Error("config", "error", err)
			os.Exit(1)
		}
	}
	cfg.Logger = logger

	// Blob store: GCS when a bucket is configured, local filesystem otherwise.
	var store blobstore.Store
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		gcs, err := blobstore.NewGCS(ctx, bucket, logger)
		if err != nil {
			slog.Error("gcs store", "error", err)
			os.Exit(1)
		}
		defer gcs.Close()
		store = gcs
	} else {
		fs, err := blobstore.NewFS(env("BLOB_DIR", "data/blobs"), "")
		if err != nil {
			slog.Error("fs store", "error", err)
			os.Exit(1)
		}
		store = fs
	}

	// Remote OCR engine. Without one, image uploads fail at extraction.
	var rec ingest.Recognizer
	if engineURL := os.Getenv("OCR_ENGINE_URL"); engineURL != "" {
		rec = ocrengine.NewClient(engineURL, logger)
	}

	// Stage journal.
	journalPath := env("JOURNAL_DB", "db/journal.db")
	journalDB, err := dbopen.Open(journalPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("journal db", "error", err)
		os.Exit(1)
	}
	defer journalDB.Close()
	journalStore := journal.NewStore(journalDB)
	if err := journalStore.Init(); err != nil {
		slog.Error("journal init", "error", err)
		os.Exit(1)
	}
	defer journalStore.Close()

	pipe := ingest.New(cfg, store, rec, ingest.WithJournal(journalStore))

	if env("MCP_TRANSPORT", "") == "stdio" {
		runMCP(ctx, pipe)
		return
	}

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: docingest file.pdf [file2.docx ...]")
		os.Exit(2)
	}
	runFiles(ctx, pipe, os.Args[1:])
}

func runMCP(ctx context.Context, pipe *ingest.Pipeline) {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "docingest",
		Version: "0.1.0",
	}, nil)
	pipe.RegisterMCP(srv)

	slog.Info("serving MCP over stdio")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
		slog.Error("mcp server", "error", err)
		os.Exit(1)
	}
}

func runFiles(ctx context.Context, pipe *ingest.Pipeline, paths []string) {
	userID := env("USER_ID", "local")

	uploads := make([]ingest.FileUpload, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("read file", "path", path, "error", err)
			os.Exit(1)
		}
		mime, err := ingest.DetectMIME(path)
		if err != nil {
			slog.Error("detect type", "path", path, "error", err)
			os.Exit(1)
		}
		uploads = append(uploads, ingest.FileUpload{
			Buffer:       data,
			OriginalName: filepath.Base(path),
			MIMEType:     mime,
			Size:         int64(len(data)),
		})
	}

	failed := 0
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, res := range pipe.ProcessAll(ctx, uploads, userID, 4) {
		if res.Err != nil {
			slog.Error("process failed", "name", res.Upload.OriginalName, "error", res.Err)
			failed++
			continue
		}
		if err := enc.Encode(res.File); err != nil {
			slog.Error("encode result", "error", err)
			os.Exit(1)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
