package main

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/paperdesk/docintake/constants"
	"github.com/paperdesk/docintake/internal/common"
	"github.com/paperdesk/docintake/internal/extract"
	"github.com/paperdesk/docintake/internal/observability/logging"
	"github.com/paperdesk/docintake/internal/ocr"
)

// extracttext runs only the text extraction stage against one file and
// prints the raw text, useful for debugging format handlers and OCR.
func main() {
	logger := logging.NewJSONLogger("extracttext", os.Getenv("LOG_LEVEL"))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "extracttext <file>")
		os.Exit(2)
	}
	path := os.Args[1]

	_ = godotenv.Load()
	cfg := common.LoadConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	var ocrBackend extract.OCRBackend
	if cfg.OCR.Enabled() {
		ocrBackend = ocr.NewClient(ocr.Config{
			BaseURL: cfg.OCR.BaseURL,
			APIKey:  cfg.OCR.APIKey,
			Model:   cfg.OCR.Model,
			Timeout: cfg.OCR.Timeout,
		}, logger, nil)
	}
	extractor := extract.NewExtractor(logger, ocrBackend)

	mt := mime.TypeByExtension(filepath.Ext(path))
	if mt == "" {
		mt = http.DetectContentType(data)
	}
	mt = constants.NormalizeMIME(mt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	content := extractor.Extract(ctx, data, mt)
	dur := time.Since(start)

	if content.Text == nil {
		logger.Error("no text extracted",
			"mime_type", mt, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	logger.Info("text extraction OK",
		"mime_type", mt,
		"pages", pageCount(content),
		"bytes", len(*content.Text),
		"duration_ms", dur.Milliseconds(),
	)
	fmt.Println(*content.Text)
}

func pageCount(c extract.Content) int {
	if c.PageCount == nil {
		return 0
	}
	return *c.PageCount
}
