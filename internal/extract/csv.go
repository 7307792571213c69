package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// csvFieldSeparator joins a row's fields into prose-like tabular text so the
// classifier and field extractors can read it, instead of raw CSV.
const csvFieldSeparator = " | "

type csvHandler struct{}

func (csvHandler) Extract(_ context.Context, data []byte) (string, int, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	var lines []string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("parse csv: %w", err)
		}
		lines = append(lines, strings.Join(record, csvFieldSeparator))
	}
	return strings.Join(lines, "\n"), 0, nil
}
