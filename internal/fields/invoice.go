package fields

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/paperdesk/docintake/internal/inference"
	"github.com/paperdesk/docintake/internal/observability/metrics"
	"github.com/paperdesk/docintake/internal/prompts"
	"github.com/paperdesk/docintake/internal/retry"
)

// InvoiceProcessor extracts structured invoice fields. It accepts a
// document reference or raw text; there is deliberately no image entry
// point here (receipts have one, invoices do not).
type InvoiceProcessor struct {
	client  *inference.Client
	logger  *slog.Logger
	metrics *metrics.Metrics

	// Retry wraps every inference call: transient failures are masked up
	// to the attempt budget, then the last error surfaces.
	Retry retry.Config
}

func NewInvoiceProcessor(client *inference.Client, logger *slog.Logger, m *metrics.Metrics) *InvoiceProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceProcessor{
		client:  client,
		logger:  logger,
		metrics: m,
	}
}

// ProcessDocument extracts invoice fields from a document reference.
// companyName, when known, is passed to the prompt as the invoice
// recipient to prevent vendor self-misattribution.
func (p *InvoiceProcessor) ProcessDocument(ctx context.Context, doc DocumentInput, companyName string) (*ExtractedInvoice, error) {
	url, err := doc.documentURL()
	if err != nil {
		return nil, err
	}
	parts := []inference.Part{
		{Text: "Extract the invoice fields from the attached document."},
		{ImageURL: url},
	}
	return p.extract(ctx, parts, companyName)
}

// ProcessText extracts invoice fields from already-extracted text.
func (p *InvoiceProcessor) ProcessText(ctx context.Context, text, companyName string) (*ExtractedInvoice, error) {
	return p.extract(ctx, []inference.Part{{Text: text}}, companyName)
}

func (p *InvoiceProcessor) extract(ctx context.Context, parts []inference.Part, companyName string) (*ExtractedInvoice, error) {
	system := prompts.InvoiceInstruction(companyName)
	schema := prompts.InvoiceSchema()

	attempt := 0
	var raw []byte
	err := retry.Do(ctx, p.Retry, p.logger, "invoice.extract", func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			p.metrics.InferenceRetry("invoice.extract")
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
		return nil, fmt.Errorf("extract invoice fields: %w", err)
	}

	var r rawInvoice
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("unmarshal invoice fields: %w", err)
	}

	inv := invoiceFromRaw(r)
	inv.NeedsReview = invoiceNeedsReview(inv)
	if inv.NeedsReview {
		p.logger.Warn("invoice.extract.needs_review",
			"has_total", inv.TotalAmount != nil,
			"has_currency", !isBlank(inv.Currency),
			"has_vendor", !isBlank(inv.VendorName),
		)
	}

	p.logger.Info("invoice.extract.ok",
		"vendor", strOrEmpty(inv.VendorName),
		"invoice_number", strOrEmpty(inv.InvoiceNumber),
		"line_items", len(inv.LineItems),
		"needs_review", inv.NeedsReview,
	)
	return inv, nil
}
