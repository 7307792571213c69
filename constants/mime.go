package constants

import "strings"

// Canonical MIME types handled by the format extractor.
const (
	MIMEPDF  = "application/pdf"
	MIMEXPDF = "application/x-pdf"

	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPptx = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MIMEDoc  = "application/msword"
	MIMEXls  = "application/vnd.ms-excel"

	MIMEOdt = "application/vnd.oasis.opendocument.text"
	MIMEOds = "application/vnd.oasis.opendocument.spreadsheet"
	MIMEOdp = "application/vnd.oasis.opendocument.presentation"

	MIMEText     = "text/plain"
	MIMECSV      = "text/csv"
	MIMEMarkdown = "text/markdown"
	MIMERTF      = "application/rtf"

	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEHEIC = "image/heic"
)

// AllowedUploadTypes holds the MIME types accepted at the ingestion boundary.
var AllowedUploadTypes = map[string]struct{}{
	MIMEPDF:      {},
	MIMEXPDF:     {},
	MIMEDocx:     {},
	MIMEXlsx:     {},
	MIMEPptx:     {},
	MIMEDoc:      {},
	MIMEXls:      {},
	MIMEOdt:      {},
	MIMEOds:      {},
	MIMEOdp:      {},
	MIMEText:     {},
	MIMECSV:      {},
	MIMEMarkdown: {},
	MIMERTF:      {},
	MIMEPNG:      {},
	MIMEJPEG:     {},
	MIMEHEIC:     {},
}

// NormalizeMIME lowercases a declared content type and strips any parameters
// (e.g. "text/CSV; charset=utf-8" -> "text/csv").
func NormalizeMIME(mimeType string) string {
	mt := strings.TrimSpace(strings.ToLower(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// IsImageMIME reports whether the normalized type is any image/* type.
func IsImageMIME(mimeType string) bool {
	return strings.HasPrefix(NormalizeMIME(mimeType), "image/")
}

// IsTextMIME reports whether the normalized type is a generic text/* type.
func IsTextMIME(mimeType string) bool {
	return strings.HasPrefix(NormalizeMIME(mimeType), "text/")
}

// IsAllowedUpload reports whether the declared type is in the upload allow-list.
// Any image/* type is accepted for the image classification path.
func IsAllowedUpload(mimeType string) bool {
	mt := NormalizeMIME(mimeType)
	if _, ok := AllowedUploadTypes[mt]; ok {
		return true
	}
	return strings.HasPrefix(mt, "image/")
}
