package fields

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/paperdesk/docintake/internal/common"
	"github.com/paperdesk/docintake/internal/inference"
	"github.com/paperdesk/docintake/internal/observability/metrics"
	"github.com/paperdesk/docintake/internal/prompts"
	"github.com/paperdesk/docintake/internal/retry"
)

// ReceiptProcessor extracts structured receipt fields from a document
// reference, raw text, or a photo of the receipt.
type ReceiptProcessor struct {
	client  *inference.Client
	logger  *slog.Logger
	metrics *metrics.Metrics

	Retry retry.Config
}

func NewReceiptProcessor(client *inference.Client, logger *slog.Logger, m *metrics.Metrics) *ReceiptProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReceiptProcessor{
		client:  client,
		logger:  logger,
		metrics: m,
	}
}

// ProcessDocument extracts receipt fields from a document reference.
func (p *ReceiptProcessor) ProcessDocument(ctx context.Context, doc DocumentInput, companyName string) (*ExtractedReceipt, error) {
	url, err := doc.documentURL()
	if err != nil {
		return nil, err
	}
	parts := []inference.Part{
		{Text: "Extract the receipt fields from the attached document."},
		{ImageURL: url},
	}
	return p.extract(ctx, parts, companyName)
}

// ProcessText extracts receipt fields from already-extracted text.
func (p *ReceiptProcessor) ProcessText(ctx context.Context, text, companyName string) (*ExtractedReceipt, error) {
	return p.extract(ctx, []inference.Part{{Text: text}}, companyName)
}

// ProcessImage extracts receipt fields from a photo or scan.
func (p *ReceiptProcessor) ProcessImage(ctx context.Context, data []byte, mimeType, companyName string) (*ExtractedReceipt, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", common.ErrInvalidInput)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	parts := []inference.Part{
		{Text: "Extract the receipt fields from the attached image."},
		{ImageURL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)},
	}
	return p.extract(ctx, parts, companyName)
}

func (p *ReceiptProcessor) extract(ctx context.Context, parts []inference.Part, companyName string) (*ExtractedReceipt, error) {
	system := prompts.ReceiptInstruction(companyName)
	schema := prompts.ReceiptSchema()

	attempt := 0
	var raw []byte
	err := retry.Do(ctx, p.Retry, p.logger, "receipt.extract", func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			p.metrics.InferenceRetry("receipt.extract")
		}
		var cerr error
		raw, cerr = p.client.Complete(ctx, inference.Request{
			System: system,
			User:   parts,
			Schema: schema,
		})
		return cerr
	})
	if err != nil {
		return nil, fmt.Errorf("extract receipt fields: %w", err)
	}

	var r rawReceipt
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("unmarshal receipt fields: %w", err)
	}

	rec := receiptFromRaw(r)
	rec.NeedsReview = receiptNeedsReview(rec)
	if rec.NeedsReview {
		p.logger.Warn("receipt.extract.needs_review",
			"has_total", rec.TotalAmount != nil,
			"has_currency", !isBlank(rec.Currency),
			"has_merchant", !isBlank(rec.MerchantName),
		)
	}

	p.logger.Info("receipt.extract.ok",
		"merchant", strOrEmpty(rec.MerchantName),
		"items", len(rec.Items),
		"needs_review", rec.NeedsReview,
	)
	return rec, nil
}
