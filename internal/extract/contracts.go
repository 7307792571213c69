package extract

import "context"

// Content is the extracted plain text of an uploaded document.
// Text is nil only when extraction and the OCR fallback both failed,
// or when the declared type is unsupported.
type Content struct {
	Text           *string `json:"text"`
	PageCount      *int    `json:"pageCount,omitempty"`
	SourceMIMEType string  `json:"sourceMimeType"`
}

// Handler extracts plain text from one document format.
// pageCount is zero for formats without a page concept.
type Handler interface {
	Extract(ctx context.Context, data []byte) (text string, pageCount int, err error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, data []byte) (string, int, error)

func (f HandlerFunc) Extract(ctx context.Context, data []byte) (string, int, error) {
	return f(ctx, data)
}

// OCRBackend is the fallback for documents without a text layer.
// Implementations are best-effort and return "" on failure.
type OCRBackend interface {
	OCR(ctx context.Context, data []byte) string
}
