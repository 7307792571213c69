package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "https://api.openai.com/v1", cfg.Inference.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Inference.Model)
	assert.Equal(t, 45*time.Second, cfg.Inference.Timeout)
	assert.Equal(t, "mistral-ocr-latest", cfg.OCR.Model)
	assert.Equal(t, 4000, cfg.Pipeline.MaxSampleTokens)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("INFERENCE_MODEL", "gpt-4.1")
	t.Setenv("INFERENCE_TIMEOUT", "90s")
	t.Setenv("INFERENCE_RATE_LIMIT", "2.5")
	t.Setenv("PIPELINE_WORKERS", "8")

	cfg := LoadConfig()
	assert.Equal(t, "gpt-4.1", cfg.Inference.Model)
	assert.Equal(t, 90*time.Second, cfg.Inference.Timeout)
	assert.InDelta(t, 2.5, cfg.Inference.RateLimit, 0.0001)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("PIPELINE_WORKERS", "many")
	t.Setenv("INFERENCE_TIMEOUT", "soon")

	cfg := LoadConfig()
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 45*time.Second, cfg.Inference.Timeout)
}

func TestOCRConfigEnabled(t *testing.T) {
	assert.False(t, OCRConfig{}.Enabled())
	assert.False(t, OCRConfig{BaseURL: "https://api.mistral.ai/v1"}.Enabled())
	assert.True(t, OCRConfig{BaseURL: "https://api.mistral.ai/v1", APIKey: "k"}.Enabled())
}
