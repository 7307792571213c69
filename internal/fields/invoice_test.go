package fields

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdesk/docintake/internal/inference"
	"github.com/paperdesk/docintake/internal/retry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func completionResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

const validInvoiceJSON = `{
	"invoice_number": "INV-42",
	"invoice_date": "2026-01-15",
	"vendor_name": "Acme Corp",
	"total_amount": 99.5,
	"currency": "EUR",
	"line_items": [
		{"description": "Widget", "quantity": 2, "unit_price": 40, "total": 80},
		{"description": "Shipping", "total": 19.5}
	]
}`

func newInvoiceProcessor(srvURL string) *InvoiceProcessor {
	client := inference.NewClient(inference.Config{BaseURL: srvURL, APIKey: "k"}, discardLogger())
	p := NewInvoiceProcessor(client, discardLogger(), nil)
	p.Retry = fastRetry()
	return p
}

func TestProcessTextMapsFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(completionResponse(validInvoiceJSON))
	}))
	defer srv.Close()

	p := newInvoiceProcessor(srv.URL)
	inv, err := p.ProcessText(context.Background(), "invoice text", "")
	require.NoError(t, err)

	assert.Equal(t, "INV-42", *inv.InvoiceNumber)
	assert.Equal(t, "Acme Corp", *inv.VendorName)
	assert.InDelta(t, 99.5, *inv.TotalAmount, 0.0001)
	assert.Equal(t, "EUR", *inv.Currency)
	require.Len(t, inv.LineItems, 2)
	assert.Equal(t, "Widget", inv.LineItems[0].Description)
	assert.InDelta(t, 2, inv.LineItems[0].Quantity, 0.0001)
	assert.InDelta(t, 19.5, inv.LineItems[1].Total, 0.0001)
	assert.False(t, inv.NeedsReview)
}

func TestProcessTextEmptyLineItemsIsNonNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(completionResponse(`{"line_items": []}`))
	}))
	defer srv.Close()

	p := newInvoiceProcessor(srv.URL)
	inv, err := p.ProcessText(context.Background(), "sparse invoice", "")
	require.NoError(t, err)

	assert.NotNil(t, inv.LineItems)
	assert.Empty(t, inv.LineItems)
	assert.True(t, inv.NeedsReview)

	// the empty slice must survive serialization as [], not null
	out, err := json.Marshal(inv)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"lineItems":[]`)
}

func TestProcessTextRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(completionResponse(validInvoiceJSON))
	}))
	defer srv.Close()

	p := newInvoiceProcessor(srv.URL)
	inv, err := p.ProcessText(context.Background(), "invoice text", "")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "INV-42", *inv.InvoiceNumber)
}

func TestProcessTextExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := newInvoiceProcessor(srv.URL)
	_, err := p.ProcessText(context.Background(), "invoice text", "")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, err.Error(), "extract invoice fields")
}

func TestProcessTextRecipientVariant(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(completionResponse(validInvoiceJSON))
	}))
	defer srv.Close()

	p := newInvoiceProcessor(srv.URL)
	_, err := p.ProcessText(context.Background(), "invoice text", "Paperdesk d.o.o.")
	require.NoError(t, err)

	msgs := captured["messages"].([]any)
	system := msgs[0].(map[string]any)["content"].(string)
	assert.Contains(t, system, "Paperdesk d.o.o.")
	assert.Contains(t, system, "RECIPIENT")
}

func TestProcessDocumentRequiresInput(t *testing.T) {
	p := newInvoiceProcessor("http://127.0.0.1:1")
	_, err := p.ProcessDocument(context.Background(), DocumentInput{}, "")
	require.Error(t, err)
}

func TestDocumentURL(t *testing.T) {
	u, err := DocumentInput{URL: "https://example.com/a.pdf"}.documentURL()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.pdf", u)

	u, err = DocumentInput{Data: []byte("hello"), MIMEType: "application/pdf"}.documentURL()
	require.NoError(t, err)
	assert.Equal(t, "data:application/pdf;base64,aGVsbG8=", u)
}
