package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/paperdesk/docintake/constants"
)

// Extractor dispatches uploaded bytes to a format handler keyed by
// normalized MIME type. Extraction failures are data-quality events:
// Extract never panics or returns an error, it returns a Content with a
// nil Text instead.
type Extractor struct {
	logger   *slog.Logger
	handlers map[string]Handler
}

// NewExtractor builds the extractor with the full dispatch table.
// ocr may be nil; scanned PDFs then yield no text.
func NewExtractor(logger *slog.Logger, ocr OCRBackend) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		logger:   logger,
		handlers: make(map[string]Handler),
	}

	pdf := &pdfHandler{logger: logger, ocr: ocr, parse: parsePDF}
	e.Register(constants.MIMEPDF, pdf)
	e.Register(constants.MIMEXPDF, pdf)

	e.Register(constants.MIMECSV, csvHandler{})
	e.Register(constants.MIMERTF, rtfHandler{})
	e.Register(constants.MIMEText, textHandler{})
	e.Register(constants.MIMEMarkdown, textHandler{})

	e.Register(constants.MIMEXlsx, &xlsxHandler{logger: logger})
	for _, mt := range []string{
		constants.MIMEDocx,
		constants.MIMEPptx,
		constants.MIMEDoc,
		constants.MIMEXls,
		constants.MIMEOdt,
		constants.MIMEOds,
		constants.MIMEOdp,
	} {
		e.Register(mt, &officeHandler{logger: logger, mimeType: mt})
	}
	return e
}

// Register installs a handler for a MIME type, replacing any existing one.
func (e *Extractor) Register(mimeType string, h Handler) {
	e.handlers[constants.NormalizeMIME(mimeType)] = h
}

// Extract dispatches on the declared MIME type. Unknown text/* types fall
// back to plain-text decoding; other unknown types return a nil Text with
// a warning.
func (e *Extractor) Extract(ctx context.Context, data []byte, declaredMIME string) Content {
	mt := constants.NormalizeMIME(declaredMIME)
	out := Content{SourceMIMEType: mt}

	h, ok := e.handlers[mt]
	if !ok {
		if constants.IsTextMIME(mt) {
			h = textHandler{}
		} else {
			e.logger.Warn("extract.unsupported_format", "mime_type", mt)
			return out
		}
	}

	text, pages, err := e.safeExtract(ctx, h, data)
	if err != nil {
		e.logger.Error("extract.failed", "mime_type", mt, "bytes", len(data), "error", err)
		return out
	}
	if pages > 0 {
		out.PageCount = &pages
	}
	out.Text = &text

	e.logger.Debug("extract.ok", "mime_type", mt, "text_bytes", len(text), "pages", pages)
	return out
}

// safeExtract converts handler panics into errors so a corrupt file can
// never take down an ingestion request.
func (e *Extractor) safeExtract(ctx context.Context, h Handler, data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract panic: %v", r)
		}
	}()
	return h.Extract(ctx, data)
}

// textHandler decodes bytes as UTF-8 text (plain text and Markdown).
type textHandler struct{}

func (textHandler) Extract(_ context.Context, data []byte) (string, int, error) {
	if !isMostlyText(data) {
		return "", 0, fmt.Errorf("binary content declared as text")
	}
	return string(data), 0, nil
}

// isMostlyText rejects byte streams that are clearly binary despite a text
// content type: NUL bytes are a reliable tell.
func isMostlyText(data []byte) bool {
	return !strings.ContainsRune(string(data), '\x00')
}
