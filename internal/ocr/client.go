// Package ocr is the client for the external document-OCR endpoint used as
// the fallback when a document carries no text layer.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/paperdesk/docintake/internal/observability/metrics"
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string        // default "mistral-ocr-latest"
	Timeout time.Duration // default 60s
}

// Client talks to a Mistral-style OCR endpoint: document in as a base64
// data URL, per-page markdown out. A circuit breaker keeps a flapping OCR
// service from stalling every scanned upload; an open breaker behaves
// exactly like an OCR failure.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewClient(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "mistral-ocr-latest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "ocr",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("ocr.breaker_state_change", "from", from.String(), "to", to.String())
		},
	})
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		logger:     logger,
		metrics:    m,
	}
}

type ocrRequest struct {
	Model    string      `json:"model"`
	Document documentURL `json:"document"`
}

type documentURL struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type ocrResponse struct {
	Pages []ocrPage `json:"pages"`
}

type ocrPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// OCR submits the document bytes and returns the concatenated page text,
// pages separated by a blank line. Best effort: any network or service
// error is logged and yields "", so the caller treats it as "no text".
func (c *Client) OCR(ctx context.Context, data []byte) string {
	reqID := uuid.New().String()
	start := time.Now()

	mimeType := http.DetectContentType(data)
	body := ocrRequest{
		Model: c.cfg.Model,
		Document: documentURL{
			Type:        "document_url",
			DocumentURL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		},
	}

	c.metrics.OCRFallback()
	c.logger.Info("ocr.fallback.start", "req_id", reqID, "mime_type", mimeType, "bytes", len(data))

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		c.logger.Error("ocr.fallback.failed",
			"req_id", reqID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return ""
	}

	var resp ocrResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Error("ocr.fallback.decode_error", "req_id", reqID, "error", err, "raw_bytes", len(raw))
		return ""
	}

	parts := make([]string, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		if t := strings.TrimSpace(p.Markdown); t != "" {
			parts = append(parts, t)
		}
	}
	text := strings.Join(parts, "\n\n")

	c.logger.Info("ocr.fallback.ok",
		"req_id", reqID, "pages", len(resp.Pages), "text_bytes", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text
}

func (c *Client) post(ctx context.Context, body any) ([]byte, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/ocr"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if cerr := Body.Close(); cerr != nil {
			c.logger.Warn("ocr response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ocr status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
