package constants

import "strings"

// DocumentType is the closed set of business document categories the
// classifier may return.
type DocumentType string

const (
	DocTypeInvoice  DocumentType = "invoice"
	DocTypeReceipt  DocumentType = "receipt"
	DocTypeContract DocumentType = "contract"
	DocTypeOther    DocumentType = "other"
)

var allDocumentTypes = []DocumentType{
	DocTypeInvoice,
	DocTypeReceipt,
	DocTypeContract,
	DocTypeOther,
}

// DocumentTypes returns the category enum as strings, in stable order.
func DocumentTypes() []string {
	result := make([]string, len(allDocumentTypes))
	for i, dt := range allDocumentTypes {
		result[i] = string(dt)
	}
	return result
}

// ParseDocumentType canonicalizes a label into the closed enum.
// Unknown labels map to DocTypeOther.
func ParseDocumentType(input string) (DocumentType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, dt := range allDocumentTypes {
		if normalized == string(dt) {
			return dt, true
		}
	}
	return DocTypeOther, false
}
