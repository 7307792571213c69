package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	OCR       OCRConfig
	Inference InferenceConfig
	Pipeline  PipelineConfig
}

// OCRConfig holds the OCR fallback endpoint configuration.
// The fallback is optional: with an empty BaseURL or APIKey the extractor
// runs without it and scanned documents yield no text.
type OCRConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Enabled reports whether an OCR backend is configured.
func (c OCRConfig) Enabled() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// InferenceConfig holds the inference endpoint configuration shared by the
// classifier and the field extractors.
type InferenceConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
	RateLimit   float64 // requests per second; 0 disables client-side limiting
	RateBurst   int
}

// PipelineConfig holds pipeline-level knobs.
type PipelineConfig struct {
	MaxSampleTokens int
	Workers         int
	QueueSize       int
	ProcessTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			BaseURL: getEnv("OCR_BASE_URL", ""),
			APIKey:  getEnv("OCR_API_KEY", ""),
			Model:   getEnv("OCR_MODEL", "mistral-ocr-latest"),
			Timeout: getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
		},
		Inference: InferenceConfig{
			BaseURL:     getEnv("INFERENCE_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("INFERENCE_API_KEY", ""),
			Model:       getEnv("INFERENCE_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("INFERENCE_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("INFERENCE_TIMEOUT", 45*time.Second),
			RateLimit:   getEnvAsFloat64("INFERENCE_RATE_LIMIT", 0),
			RateBurst:   getEnvAsInt("INFERENCE_RATE_BURST", 1),
		},
		Pipeline: PipelineConfig{
			MaxSampleTokens: getEnvAsInt("PIPELINE_MAX_SAMPLE_TOKENS", 4000),
			Workers:         getEnvAsInt("PIPELINE_WORKERS", 4),
			QueueSize:       getEnvAsInt("PIPELINE_QUEUE_SIZE", 256),
			ProcessTimeout:  getEnvAsDuration("PIPELINE_PROCESS_TIMEOUT", 3*time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
