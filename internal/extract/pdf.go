package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/paperdesk/docintake/internal/common"
)

// pdfHandler parses the PDF page stream and concatenates per-page text.
// When the document carries no text layer (scanned PDF) and an OCR backend
// is configured, the OCR output is used instead.
type pdfHandler struct {
	logger *slog.Logger
	ocr    OCRBackend
	parse  func(data []byte) (string, int, error)
}

func (h *pdfHandler) Extract(ctx context.Context, data []byte) (string, int, error) {
	text, pages, err := h.parse(data)
	if err != nil {
		return "", 0, err
	}

	if strings.TrimSpace(text) == "" {
		if h.ocr == nil {
			h.logger.Warn("extract.pdf.no_text_layer", "pages", pages, "hint", "ocr backend not configured")
			return "", pages, common.ErrNoText
		}
		h.logger.Info("extract.pdf.ocr_fallback", "pages", pages, "bytes", len(data))
		text = h.ocr.OCR(ctx, data)
		if strings.TrimSpace(text) == "" {
			return "", pages, common.ErrNoText
		}
	}
	return text, pages, nil
}

// parsePDF extracts the text layer with ledongthuc/pdf. Individual page
// failures are skipped; the rest of the document still counts.
func parsePDF(data []byte) (string, int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	pages := r.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), pages, nil
}
