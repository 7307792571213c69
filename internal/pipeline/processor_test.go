package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdesk/docintake/constants"
	"github.com/paperdesk/docintake/internal/classify"
	"github.com/paperdesk/docintake/internal/extract"
	"github.com/paperdesk/docintake/internal/fields"
	"github.com/paperdesk/docintake/internal/inference"
	"github.com/paperdesk/docintake/internal/retry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// inferenceStub answers classification and field-extraction calls from one
// endpoint, dispatching on the schema embedded in the request.
func inferenceStub(t *testing.T, classification, invoice, receipt string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		content := classification
		switch {
		case strings.Contains(string(body), "invoice_number"):
			content = invoice
		case strings.Contains(string(body), "merchant_name"):
			content = receipt
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}))
}

func newTestProcessor(srvURL string) *Processor {
	logger := discardLogger()
	client := inference.NewClient(inference.Config{BaseURL: srvURL, APIKey: "k"}, logger)
	invoices := fields.NewInvoiceProcessor(client, logger, nil)
	invoices.Retry = retry.Config{MaxAttempts: 1}
	receipts := fields.NewReceiptProcessor(client, logger, nil)
	receipts.Retry = retry.Config{MaxAttempts: 1}

	return NewProcessor(
		logger,
		extract.NewExtractor(logger, nil),
		classify.NewClassifier(client, logger),
		invoices,
		receipts,
		nil,
		4000,
	)
}

func TestProcessTextInvoiceEndToEnd(t *testing.T) {
	srv := inferenceStub(t,
		`{"type":"invoice","confidence":0.95,"language":"en"}`,
		`{"invoice_number":"INV-7","vendor_name":"Acme Corp","invoice_date":"2026-01-15","total_amount":42.0,"currency":"EUR","line_items":[]}`,
		`{"items":[]}`,
	)
	defer srv.Close()

	p := newTestProcessor(srv.URL)
	res, err := p.Process(context.Background(), LoadDocumentRequest{
		Content:  []byte("ACME Corp Invoice INV-7 total 42.00 EUR"),
		MIMEType: "text/plain",
		Filename: "inv.txt",
	})
	require.NoError(t, err)

	require.NotNil(t, res.Classification)
	assert.Equal(t, constants.DocTypeInvoice, res.Classification.Type)
	require.NotNil(t, res.Invoice)
	assert.Equal(t, "INV-7", *res.Invoice.InvoiceNumber)
	assert.Nil(t, res.Receipt)
	assert.False(t, res.Invoice.NeedsReview)
}

func TestProcessReceiptEndToEnd(t *testing.T) {
	srv := inferenceStub(t,
		`{"type":"receipt","confidence":0.9}`,
		`{"line_items":[]}`,
		`{"merchant_name":"Corner Store LLC","date":"2026-02-01","total_amount":12.3,"currency":"USD","items":[]}`,
	)
	defer srv.Close()

	p := newTestProcessor(srv.URL)
	res, err := p.Process(context.Background(), LoadDocumentRequest{
		Content:  []byte("CORNER STORE 12.30 USD thank you"),
		MIMEType: "text/plain",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Receipt)
	assert.Equal(t, "Corner Store LLC", *res.Receipt.MerchantName)
	assert.Nil(t, res.Invoice)
}

func TestProcessContractStopsAfterClassification(t *testing.T) {
	srv := inferenceStub(t, `{"type":"contract","confidence":0.85}`, `{}`, `{}`)
	defer srv.Close()

	p := newTestProcessor(srv.URL)
	res, err := p.Process(context.Background(), LoadDocumentRequest{
		Content:  []byte("SERVICE AGREEMENT between the parties"),
		MIMEType: "text/plain",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Classification)
	assert.Equal(t, constants.DocTypeContract, res.Classification.Type)
	assert.Nil(t, res.Invoice)
	assert.Nil(t, res.Receipt)
}

func TestProcessNoTextIsNotAnError(t *testing.T) {
	p := newTestProcessor("http://127.0.0.1:1")
	res, err := p.Process(context.Background(), LoadDocumentRequest{
		Content:  []byte{0x50, 0x4b, 0x03, 0x04},
		MIMEType: "application/zip",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Content.Text)
	assert.Nil(t, res.Classification)
}

func TestProcessClassificationFailureIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := newTestProcessor(srv.URL)
	res, err := p.Process(context.Background(), LoadDocumentRequest{
		Content:  []byte("some document text"),
		MIMEType: "text/plain",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classify")
	// extracted text is still returned alongside the error
	require.NotNil(t, res)
	assert.NotNil(t, res.Content.Text)
}

func TestProcessImageReceipt(t *testing.T) {
	srv := inferenceStub(t,
		`{"type":"receipt","confidence":0.9}`,
		`{"line_items":[]}`,
		`{"merchant_name":"Corner Store LLC","date":"2026-02-01","total_amount":12.3,"currency":"USD","items":[]}`,
	)
	defer srv.Close()

	p := newTestProcessor(srv.URL)
	res, err := p.Process(context.Background(), LoadDocumentRequest{
		Content:  []byte("fake png bytes"),
		MIMEType: "image/png",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Classification)
	require.NotNil(t, res.Receipt)
	assert.Nil(t, res.Content.Text)
	assert.Equal(t, "image/png", res.Content.SourceMIMEType)
}
