package fields

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdesk/docintake/internal/inference"
)

const validReceiptJSON = `{
	"merchant_name": "Corner Store LLC",
	"date": "2026-02-01",
	"total_amount": 12.3,
	"currency": "USD",
	"payment_method": "card",
	"items": [
		{"name": "Coffee", "quantity": 2, "price": 3.5},
		{"name": "Bagel", "quantity": 1, "price": 5.3}
	]
}`

func newReceiptProcessor(srvURL string) *ReceiptProcessor {
	client := inference.NewClient(inference.Config{BaseURL: srvURL, APIKey: "k"}, discardLogger())
	p := NewReceiptProcessor(client, discardLogger(), nil)
	p.Retry = fastRetry()
	return p
}

func TestReceiptProcessTextMapsFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(completionResponse(validReceiptJSON))
	}))
	defer srv.Close()

	p := newReceiptProcessor(srv.URL)
	rec, err := p.ProcessText(context.Background(), "receipt text", "")
	require.NoError(t, err)

	assert.Equal(t, "Corner Store LLC", *rec.MerchantName)
	assert.InDelta(t, 12.3, *rec.TotalAmount, 0.0001)
	require.Len(t, rec.Items, 2)
	assert.Equal(t, "Coffee", rec.Items[0].Name)
	assert.InDelta(t, 3.5, rec.Items[0].Price, 0.0001)
	assert.False(t, rec.NeedsReview)
}

func TestReceiptEmptyItemsIsNonNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(completionResponse(`{"items": []}`))
	}))
	defer srv.Close()

	p := newReceiptProcessor(srv.URL)
	rec, err := p.ProcessText(context.Background(), "blurry receipt", "")
	require.NoError(t, err)

	assert.NotNil(t, rec.Items)
	assert.Empty(t, rec.Items)
	assert.True(t, rec.NeedsReview)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"items":[]`)
}

func TestReceiptProcessImageBuildsDataURL(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(completionResponse(validReceiptJSON))
	}))
	defer srv.Close()

	p := newReceiptProcessor(srv.URL)
	_, err := p.ProcessImage(context.Background(), []byte("fake image bytes"), "image/png", "")
	require.NoError(t, err)

	msgs := captured["messages"].([]any)
	content := msgs[1].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	img := content[1].(map[string]any)["image_url"].(map[string]any)
	assert.Contains(t, img["url"], "data:image/png;base64,")
}

func TestReceiptProcessImageRejectsEmpty(t *testing.T) {
	p := newReceiptProcessor("http://127.0.0.1:1")
	_, err := p.ProcessImage(context.Background(), nil, "image/png", "")
	require.Error(t, err)
}

func TestReceiptRetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := newReceiptProcessor(srv.URL)
	_, err := p.ProcessText(context.Background(), "receipt text", "")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestReceiptRecipientVariant(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(completionResponse(validReceiptJSON))
	}))
	defer srv.Close()

	p := newReceiptProcessor(srv.URL)
	_, err := p.ProcessText(context.Background(), "receipt text", "Paperdesk d.o.o.")
	require.NoError(t, err)

	system := captured["messages"].([]any)[0].(map[string]any)["content"].(string)
	assert.Contains(t, system, "Paperdesk d.o.o.")
	assert.Contains(t, system, "NOT the merchant")
}
