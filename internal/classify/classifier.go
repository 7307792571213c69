// Package classify decides the business type of an ingested document.
package classify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/paperdesk/docintake/constants"
	"github.com/paperdesk/docintake/internal/common"
	"github.com/paperdesk/docintake/internal/inference"
	"github.com/paperdesk/docintake/internal/prompts"
)

// Classification is the business-type verdict for a document.
type Classification struct {
	Type       constants.DocumentType `json:"type"`
	Confidence float32                `json:"confidence"`
	Language   string                 `json:"language,omitempty"`
}

type Classifier struct {
	client *inference.Client
	logger *slog.Logger
}

func NewClassifier(client *inference.Client, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{client: client, logger: logger}
}

// Classify asks the inference backend for a category verdict. content is
// either normalized document text or an image URL (isImage selects the
// instruction template and content shape). The schema-validated response is
// returned as-is; there is no retry here. Callers retry at a higher level
// if they need to.
func (c *Classifier) Classify(ctx context.Context, content string, isImage bool) (Classification, error) {
	system := prompts.ClassifyTextInstruction()
	parts := []inference.Part{{Text: content}}
	if isImage {
		system = prompts.ClassifyImageInstruction()
		parts = []inference.Part{{ImageURL: content}}
	}

	raw, err := c.client.Complete(ctx, inference.Request{
		System: system,
		User:   parts,
		Schema: prompts.ClassificationSchema(),
	})
	if err != nil {
		return Classification{}, common.WrapError(err, "classify document")
	}

	var out Classification
	if err := json.Unmarshal(raw, &out); err != nil {
		return Classification{}, common.WrapError(err, "unmarshal classification")
	}

	c.logger.Info("classify.ok",
		"type", string(out.Type),
		"confidence", out.Confidence,
		"language", out.Language,
		"is_image", isImage,
	)
	return out, nil
}
