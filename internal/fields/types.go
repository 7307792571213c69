// Package fields extracts validated structured records (invoice and receipt
// fields) from classified documents.
package fields

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/paperdesk/docintake/internal/common"
)

// LineItem is one row of an invoice.
type LineItem struct {
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	UnitPrice   float64  `json:"unitPrice"`
	Total       float64  `json:"total"` // as printed on the document, not recomputed
	VATRate     *float64 `json:"vatRate,omitempty"`
}

// ExtractedInvoice is the public invoice record. Every scalar field is
// independently nullable; LineItems defaults to empty, never nil.
type ExtractedInvoice struct {
	InvoiceNumber *string `json:"invoiceNumber"`
	InvoiceDate   *string `json:"invoiceDate"`
	DueDate       *string `json:"dueDate"`

	VendorName      *string `json:"vendorName"`
	VendorAddress   *string `json:"vendorAddress"`
	CustomerName    *string `json:"customerName"`
	CustomerAddress *string `json:"customerAddress"`
	Email           *string `json:"email"`
	Website         *string `json:"website"`

	TotalAmount *float64 `json:"totalAmount"`
	TaxAmount   *float64 `json:"taxAmount"`
	TaxRate     *float64 `json:"taxRate"`
	Currency    *string  `json:"currency"`
	TaxType     *string  `json:"taxType"`

	LineItems []LineItem `json:"lineItems"`

	PaymentInstructions *string `json:"paymentInstructions"`
	Notes               *string `json:"notes"`
	Language            *string `json:"language"`

	// NeedsReview flags extractions missing critical fields so the vault
	// layer can route them to manual review. It never changes control flow
	// here.
	NeedsReview bool `json:"needsReview"`
}

// ReceiptItem is one purchased item on a receipt.
type ReceiptItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// ExtractedReceipt is the public receipt record, same nullability rules as
// ExtractedInvoice.
type ExtractedReceipt struct {
	MerchantName    *string `json:"merchantName"`
	MerchantAddress *string `json:"merchantAddress"`
	Date            *string `json:"date"`

	TotalAmount *float64 `json:"totalAmount"`
	TaxAmount   *float64 `json:"taxAmount"`
	Currency    *string  `json:"currency"`

	PaymentMethod *string `json:"paymentMethod"`

	Items []ReceiptItem `json:"items"`

	Language *string `json:"language"`

	NeedsReview bool `json:"needsReview"`
}

// DocumentInput references the document to extract from: a URL, or raw
// bytes with their MIME type.
type DocumentInput struct {
	URL      string
	Data     []byte
	MIMEType string
}

// documentURL resolves the input to a URL the inference backend can fetch:
// the given URL as-is, or the bytes packed into a data URL.
func (d DocumentInput) documentURL() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	if len(d.Data) == 0 {
		return "", fmt.Errorf("%w: document input has neither url nor data", common.ErrInvalidInput)
	}
	mt := d.MIMEType
	if mt == "" {
		mt = http.DetectContentType(d.Data)
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(d.Data), nil
}

// Raw wire shapes, matching the snake_case field names of the extraction
// schemas in the prompts registry.

type rawLineItem struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	Total       *float64 `json:"total"`
	VATRate     *float64 `json:"vat_rate"`
}

type rawInvoice struct {
	InvoiceNumber       *string       `json:"invoice_number"`
	InvoiceDate         *string       `json:"invoice_date"`
	DueDate             *string       `json:"due_date"`
	VendorName          *string       `json:"vendor_name"`
	VendorAddress       *string       `json:"vendor_address"`
	CustomerName        *string       `json:"customer_name"`
	CustomerAddress     *string       `json:"customer_address"`
	Email               *string       `json:"email"`
	Website             *string       `json:"website"`
	TotalAmount         *float64      `json:"total_amount"`
	TaxAmount           *float64      `json:"tax_amount"`
	TaxRate             *float64      `json:"tax_rate"`
	Currency            *string       `json:"currency"`
	TaxType             *string       `json:"tax_type"`
	LineItems           []rawLineItem `json:"line_items"`
	PaymentInstructions *string       `json:"payment_instructions"`
	Notes               *string       `json:"notes"`
	Language            *string       `json:"language"`
}

type rawReceiptItem struct {
	Name     *string  `json:"name"`
	Quantity *float64 `json:"quantity"`
	Price    *float64 `json:"price"`
}

type rawReceipt struct {
	MerchantName    *string          `json:"merchant_name"`
	MerchantAddress *string          `json:"merchant_address"`
	Date            *string          `json:"date"`
	TotalAmount     *float64         `json:"total_amount"`
	TaxAmount       *float64         `json:"tax_amount"`
	Currency        *string          `json:"currency"`
	PaymentMethod   *string          `json:"payment_method"`
	Items           []rawReceiptItem `json:"items"`
	Language        *string          `json:"language"`
}

func invoiceFromRaw(r rawInvoice) *ExtractedInvoice {
	items := make([]LineItem, 0, len(r.LineItems))
	for _, li := range r.LineItems {
		items = append(items, LineItem{
			Description: strOrEmpty(li.Description),
			Quantity:    numOrZero(li.Quantity),
			UnitPrice:   numOrZero(li.UnitPrice),
			Total:       numOrZero(li.Total),
			VATRate:     li.VATRate,
		})
	}
	return &ExtractedInvoice{
		InvoiceNumber:       r.InvoiceNumber,
		InvoiceDate:         r.InvoiceDate,
		DueDate:             r.DueDate,
		VendorName:          r.VendorName,
		VendorAddress:       r.VendorAddress,
		CustomerName:        r.CustomerName,
		CustomerAddress:     r.CustomerAddress,
		Email:               r.Email,
		Website:             r.Website,
		TotalAmount:         r.TotalAmount,
		TaxAmount:           r.TaxAmount,
		TaxRate:             r.TaxRate,
		Currency:            r.Currency,
		TaxType:             r.TaxType,
		LineItems:           items,
		PaymentInstructions: r.PaymentInstructions,
		Notes:               r.Notes,
		Language:            r.Language,
	}
}

func receiptFromRaw(r rawReceipt) *ExtractedReceipt {
	items := make([]ReceiptItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, ReceiptItem{
			Name:     strOrEmpty(it.Name),
			Quantity: numOrZero(it.Quantity),
			Price:    numOrZero(it.Price),
		})
	}
	return &ExtractedReceipt{
		MerchantName:    r.MerchantName,
		MerchantAddress: r.MerchantAddress,
		Date:            r.Date,
		TotalAmount:     r.TotalAmount,
		TaxAmount:       r.TaxAmount,
		Currency:        r.Currency,
		PaymentMethod:   r.PaymentMethod,
		Items:           items,
		Language:        r.Language,
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func numOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
