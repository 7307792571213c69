package extract

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"code.sajari.com/docconv"
	"github.com/xuri/excelize/v2"
)

// officeHandler delegates Office/OpenDocument formats to docconv.
// Extraction exceptions are non-fatal here: a corrupt .docx yields empty
// text and a logged error, not a failed ingestion request.
type officeHandler struct {
	logger   *slog.Logger
	mimeType string
}

func (h *officeHandler) Extract(_ context.Context, data []byte) (string, int, error) {
	res, err := docconv.Convert(bytes.NewReader(data), h.mimeType, true)
	if err != nil {
		h.logger.Error("extract.office.failed", "mime_type", h.mimeType, "bytes", len(data), "error", err)
		return "", 0, nil
	}
	return strings.TrimSpace(res.Body), 0, nil
}

// xlsxHandler reads OOXML spreadsheets with excelize, sheet by sheet,
// joining each row's cells the same way the CSV handler does.
type xlsxHandler struct {
	logger *slog.Logger
}

func (h *xlsxHandler) Extract(_ context.Context, data []byte) (string, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		h.logger.Error("extract.xlsx.failed", "bytes", len(data), "error", err)
		return "", 0, nil
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			h.logger.Warn("extract.xlsx.close_failed", "error", cerr)
		}
	}()

	var sheets []string
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			h.logger.Warn("extract.xlsx.sheet_failed", "sheet", name, "error", err)
			continue
		}
		var b strings.Builder
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, csvFieldSeparator))
			if line == "" {
				continue
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			sheets = append(sheets, name+"\n"+text)
		}
	}
	return strings.Join(sheets, "\n\n"), 0, nil
}
