package fields

import "strings"

// A result is poor quality when the fields the vault cannot post without
// are missing: total amount, currency, the counterparty name, or every
// date on the document.

func invoiceNeedsReview(inv *ExtractedInvoice) bool {
	if inv.TotalAmount == nil {
		return true
	}
	if isBlank(inv.Currency) {
		return true
	}
	if isBlank(inv.VendorName) {
		return true
	}
	if isBlank(inv.InvoiceDate) && isBlank(inv.DueDate) {
		return true
	}
	return false
}

func receiptNeedsReview(rec *ExtractedReceipt) bool {
	if rec.TotalAmount == nil {
		return true
	}
	if isBlank(rec.Currency) {
		return true
	}
	if isBlank(rec.MerchantName) {
		return true
	}
	if isBlank(rec.Date) {
		return true
	}
	return false
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
