package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentTypes(t *testing.T) {
	assert.Equal(t, []string{"invoice", "receipt", "contract", "other"}, DocumentTypes())
}

func TestParseDocumentType(t *testing.T) {
	dt, ok := ParseDocumentType("Invoice")
	assert.True(t, ok)
	assert.Equal(t, DocTypeInvoice, dt)

	dt, ok = ParseDocumentType("  receipt ")
	assert.True(t, ok)
	assert.Equal(t, DocTypeReceipt, dt)

	dt, ok = ParseDocumentType("purchase order")
	assert.False(t, ok)
	assert.Equal(t, DocTypeOther, dt)
}
