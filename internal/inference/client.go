// Package inference is the client for the schema-constrained inference
// endpoint consumed by the classifier and the field extractors.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/paperdesk/docintake/internal/common"
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32       // low temperature: deterministic extraction over creative generation
	Timeout     time.Duration // default 45s
	RateLimit   float64       // requests per second; 0 disables
	RateBurst   int
}

// Part is one piece of user content: text, or an image by URL (data URLs
// included).
type Part struct {
	Text     string
	ImageURL string
}

// Request is a single schema-constrained call: a system instruction, user
// content, and the JSON schema the response must satisfy.
type Request struct {
	System string
	User   []Part
	Schema map[string]any
}

// Client is a chat/completions client that validates every response
// against the request schema before handing it back. It is a cheap,
// effectively stateless handle: construct once per process and share.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		logger:     logger,
	}
}

// Complete issues the call and returns the raw JSON content, already
// validated against req.Schema. Schema violations are errors, never
// silently passed through.
func (c *Client) Complete(ctx context.Context, req Request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	reqID := uuid.New().String()
	start := time.Now()

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": req.System},
			{"role": "user", "content": userContent(req.User)},
			{"role": "system", "content": "Return ONLY JSON that matches this JSON Schema:\n" + mustJSON(req.Schema)},
		},
	}

	c.logger.Info("inference.request",
		"req_id", reqID,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"parts", len(req.User),
	)

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("inference.http_error",
			"req_id", reqID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode inference response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, fmt.Errorf("no choices in inference response")
	}

	content := []byte(trimCodeFence(cc.Choices[0].Message.Content))
	if err := ValidateJSONAgainstSchema(req.Schema, content); err != nil {
		c.logger.Error("inference.schema_validation_failed",
			"req_id", reqID, "error", err, "content", string(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	c.logger.Info("inference.ok",
		"req_id", reqID, "content_bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// userContent renders parts as a plain string when the request is
// text-only, or as the multi-part content array when an image is attached.
func userContent(parts []Part) any {
	hasImage := false
	for _, p := range parts {
		if p.ImageURL != "" {
			hasImage = true
			break
		}
	}
	if !hasImage {
		texts := make([]string, 0, len(parts))
		for _, p := range parts {
			texts = append(texts, p.Text)
		}
		return strings.Join(texts, "\n")
	}

	content := make([]map[string]any, 0, len(parts))
	for _, p := range parts {
		if p.ImageURL != "" {
			content = append(content, map[string]any{
				"type":      "image_url",
				"image_url": map[string]any{"url": p.ImageURL},
			})
			continue
		}
		content = append(content, map[string]any{"type": "text", "text": p.Text})
	}
	return content
}

func (c *Client) post(ctx context.Context, url string, body any) ([]byte, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if cerr := Body.Close(); cerr != nil {
			c.logger.Warn("inference response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, common.NewAppError("inference_http", fmt.Sprintf("status %d", resp.StatusCode), errors.New(string(raw)))
	}
	return raw, nil
}

// trimCodeFence unwraps ```json fences some models insist on emitting
// despite the json_object response format.
func trimCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
