package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/paperdesk/docintake/constants"
	"github.com/paperdesk/docintake/internal/classify"
	"github.com/paperdesk/docintake/internal/common"
	"github.com/paperdesk/docintake/internal/extract"
	"github.com/paperdesk/docintake/internal/fields"
	"github.com/paperdesk/docintake/internal/inference"
	"github.com/paperdesk/docintake/internal/observability/logging"
	"github.com/paperdesk/docintake/internal/observability/metrics"
	"github.com/paperdesk/docintake/internal/ocr"
	"github.com/paperdesk/docintake/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		company = flag.String("company", "", "recipient company name passed to field extraction")
		pretty  = flag.Bool("pretty", false, "indent JSON output")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		printError("usage: docintake [--company NAME] [--pretty] FILE...\n")
		os.Exit(2)
	}

	// .env is optional; environment variables may already be set.
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	logger := logging.NewJSONLogger("docintake", os.Getenv("LOG_LEVEL"))
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	proc := buildProcessor(cfg, logger, m)

	queue := pipeline.NewQueue(proc, logger,
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithQueueSize(cfg.Pipeline.QueueSize),
		pipeline.WithProcessTimeout(cfg.Pipeline.ProcessTimeout),
	)

	type outcome struct {
		File   string           `json:"file"`
		Result *pipeline.Result `json:"result,omitempty"`
		Error  string           `json:"error,omitempty"`
	}

	var (
		mu       sync.Mutex
		outcomes = make([]outcome, 0, flag.NArg())
		wg       sync.WaitGroup
	)

	ctx := context.Background()
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("read file", "path", path, "error", err)
			mu.Lock()
			outcomes = append(outcomes, outcome{File: path, Error: err.Error()})
			mu.Unlock()
			continue
		}

		mt := detectMIME(path, data)
		if !constants.IsAllowedUpload(mt) {
			logger.Warn("unsupported upload type", "path", path, "mime_type", mt)
			mu.Lock()
			outcomes = append(outcomes, outcome{File: path, Error: common.ErrUnsupportedFormat.Error()})
			mu.Unlock()
			continue
		}

		req := pipeline.LoadDocumentRequest{
			Content:     data,
			MIMEType:    mt,
			Filename:    filepath.Base(path),
			CompanyName: *company,
		}

		wg.Add(1)
		p := path
		err = queue.Enqueue(ctx, pipeline.Job{
			Request: req,
			Done: func(res *pipeline.Result, err error) {
				defer wg.Done()
				o := outcome{File: p, Result: res}
				if err != nil {
					o.Error = err.Error()
				}
				mu.Lock()
				outcomes = append(outcomes, o)
				mu.Unlock()
			},
		})
		if err != nil {
			wg.Done()
			logger.Error("enqueue", "path", path, "error", err)
		}
	}

	wg.Wait()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	queue.Shutdown(shutdownCtx)
	cancel()

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	failures := 0
	for _, o := range outcomes {
		if o.Error != "" {
			failures++
		}
		if err := enc.Encode(o); err != nil {
			logger.Error("encode result", "file", o.File, "error", err)
		}
	}

	logger.Info("batch complete", "files", len(outcomes), "failures", failures)
	if failures > 0 {
		os.Exit(1)
	}
}

func buildProcessor(cfg *common.Config, logger *slog.Logger, m *metrics.Metrics) *pipeline.Processor {
	var ocrBackend extract.OCRBackend
	if cfg.OCR.Enabled() {
		ocrBackend = ocr.NewClient(ocr.Config{
			BaseURL: cfg.OCR.BaseURL,
			APIKey:  cfg.OCR.APIKey,
			Model:   cfg.OCR.Model,
			Timeout: cfg.OCR.Timeout,
		}, logger, m)
		logger.Info("ocr backend configured", "model", cfg.OCR.Model)
	} else {
		logger.Warn("OCR not configured, scanned documents will yield no text")
	}

	if cfg.Inference.APIKey == "" {
		logger.Warn("inference API key not configured, classification and extraction will fail")
	}
	client := inference.NewClient(inference.Config{
		BaseURL:     cfg.Inference.BaseURL,
		APIKey:      cfg.Inference.APIKey,
		Model:       cfg.Inference.Model,
		Temperature: cfg.Inference.Temperature,
		Timeout:     cfg.Inference.Timeout,
		RateLimit:   cfg.Inference.RateLimit,
		RateBurst:   cfg.Inference.RateBurst,
	}, logger)

	extractor := extract.NewExtractor(logger, ocrBackend)
	classifier := classify.NewClassifier(client, logger)
	invoices := fields.NewInvoiceProcessor(client, logger, m)
	receipts := fields.NewReceiptProcessor(client, logger, m)

	return pipeline.NewProcessor(logger, extractor, classifier, invoices, receipts, m, cfg.Pipeline.MaxSampleTokens)
}

// detectMIME prefers the file extension and falls back to content sniffing.
func detectMIME(path string, data []byte) string {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return constants.NormalizeMIME(mt)
	}
	return constants.NormalizeMIME(http.DetectContentType(data))
}
