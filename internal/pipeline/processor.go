// Package pipeline coordinates the ingestion stages: format extraction,
// OCR fallback, text normalization, classification, and field extraction.
// Each invocation is independent and stateless; callers may process
// documents concurrently over the same Processor.
package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/paperdesk/docintake/constants"
	"github.com/paperdesk/docintake/internal/classify"
	"github.com/paperdesk/docintake/internal/extract"
	"github.com/paperdesk/docintake/internal/fields"
	"github.com/paperdesk/docintake/internal/observability/metrics"
	"github.com/paperdesk/docintake/internal/textutil"
)

// LoadDocumentRequest is the pipeline boundary input: raw upload bytes and
// their declared metadata.
type LoadDocumentRequest struct {
	Content  []byte
	MIMEType string
	Filename string

	// CompanyName is the tenant's company, used to disambiguate the
	// recipient from the vendor during field extraction.
	CompanyName string
}

// Result is everything the vault layer needs from one document run.
// Invoice and Receipt are set only when classification routed there.
type Result struct {
	Content        extract.Content           `json:"content"`
	Classification *classify.Classification  `json:"classification,omitempty"`
	Invoice        *fields.ExtractedInvoice  `json:"invoice,omitempty"`
	Receipt        *fields.ExtractedReceipt  `json:"receipt,omitempty"`
}

// Processor wires the stages together. Construct once per process; the
// backing clients are cheap, shared handles.
type Processor struct {
	logger          *slog.Logger
	extractor       *extract.Extractor
	classifier      *classify.Classifier
	invoices        *fields.InvoiceProcessor
	receipts        *fields.ReceiptProcessor
	metrics         *metrics.Metrics
	maxSampleTokens int
}

func NewProcessor(
	logger *slog.Logger,
	extractor *extract.Extractor,
	classifier *classify.Classifier,
	invoices *fields.InvoiceProcessor,
	receipts *fields.ReceiptProcessor,
	m *metrics.Metrics,
	maxSampleTokens int,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSampleTokens <= 0 {
		maxSampleTokens = 4000
	}
	return &Processor{
		logger:          logger,
		extractor:       extractor,
		classifier:      classifier,
		invoices:        invoices,
		receipts:        receipts,
		metrics:         m,
		maxSampleTokens: maxSampleTokens,
	}
}

// Process runs one document through the full pipeline. A document that
// yields no text is not an error: the Result comes back with a nil or
// empty text and no classification, and the caller decides what to do.
// Classification and field-extraction failures are errors.
func (p *Processor) Process(ctx context.Context, req LoadDocumentRequest) (*Result, error) {
	mt := constants.NormalizeMIME(req.MIMEType)
	p.logger.Info("pipeline.start", "mime_type", mt, "filename", req.Filename, "bytes", len(req.Content))

	if constants.IsImageMIME(mt) {
		return p.processImage(ctx, req, mt)
	}

	res := &Result{Content: p.extractor.Extract(ctx, req.Content, mt)}
	if res.Content.Text == nil || strings.TrimSpace(*res.Content.Text) == "" {
		p.metrics.DocumentProcessed("no_text")
		p.logger.Warn("pipeline.no_text", "mime_type", mt, "filename", req.Filename)
		return res, nil
	}

	text := textutil.Clean(*res.Content.Text)
	sampled := textutil.Sample(text, p.maxSampleTokens)

	cls, err := p.classifier.Classify(ctx, sampled, false)
	if err != nil {
		p.metrics.DocumentProcessed("classification_failed")
		return res, fmt.Errorf("classify: %w", err)
	}
	res.Classification = &cls

	switch cls.Type {
	case constants.DocTypeInvoice:
		inv, err := p.invoices.ProcessText(ctx, text, req.CompanyName)
		if err != nil {
			p.metrics.DocumentProcessed("extraction_failed")
			return res, fmt.Errorf("extract invoice: %w", err)
		}
		res.Invoice = inv
		if inv.NeedsReview {
			p.metrics.PoorQuality("invoice")
		}
	case constants.DocTypeReceipt:
		rec, err := p.receipts.ProcessText(ctx, text, req.CompanyName)
		if err != nil {
			p.metrics.DocumentProcessed("extraction_failed")
			return res, fmt.Errorf("extract receipt: %w", err)
		}
		res.Receipt = rec
		if rec.NeedsReview {
			p.metrics.PoorQuality("receipt")
		}
	}

	p.metrics.DocumentProcessed("ok")
	p.logger.Info("pipeline.ok",
		"mime_type", mt,
		"type", classifiedType(res),
		"confidence", cls.Confidence,
	)
	return res, nil
}

// processImage skips text extraction: the image goes straight to image
// classification, and receipts take the image extraction path. Invoices
// have no image entry point, so an invoice-classified image is handed to
// the invoice processor as a document reference.
func (p *Processor) processImage(ctx context.Context, req LoadDocumentRequest, mt string) (*Result, error) {
	res := &Result{Content: extract.Content{SourceMIMEType: mt}}

	dataURL := "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(req.Content)
	cls, err := p.classifier.Classify(ctx, dataURL, true)
	if err != nil {
		p.metrics.DocumentProcessed("classification_failed")
		return res, fmt.Errorf("classify image: %w", err)
	}
	res.Classification = &cls

	switch cls.Type {
	case constants.DocTypeReceipt:
		rec, err := p.receipts.ProcessImage(ctx, req.Content, mt, req.CompanyName)
		if err != nil {
			p.metrics.DocumentProcessed("extraction_failed")
			return res, fmt.Errorf("extract receipt from image: %w", err)
		}
		res.Receipt = rec
		if rec.NeedsReview {
			p.metrics.PoorQuality("receipt")
		}
	case constants.DocTypeInvoice:
		inv, err := p.invoices.ProcessDocument(ctx, fields.DocumentInput{Data: req.Content, MIMEType: mt}, req.CompanyName)
		if err != nil {
			p.metrics.DocumentProcessed("extraction_failed")
			return res, fmt.Errorf("extract invoice from image: %w", err)
		}
		res.Invoice = inv
		if inv.NeedsReview {
			p.metrics.PoorQuality("invoice")
		}
	}

	p.metrics.DocumentProcessed("ok")
	return res, nil
}

func classifiedType(res *Result) string {
	if res.Classification == nil {
		return ""
	}
	return string(res.Classification.Type)
}
