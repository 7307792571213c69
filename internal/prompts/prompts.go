// Package prompts is the registry of instruction templates and JSON schemas
// shared by the classifier and the field extractors. The vendor-name
// normalization rules live here as prompt text: resolving "GOOGLE*" to
// "Google LLC" is domain knowledge the extractor ships with, not a separate
// post-processing step.
package prompts

import (
	"strings"

	"github.com/paperdesk/docintake/constants"
)

// languageRule is the shared language detection convention.
const languageRule = "Report the document language as a lowercase ISO 639-1 code (e.g. 'en', 'de', 'sr')."

// vendorNameRules instructs the model to resolve brand or truncated
// statement names to the full registered legal entity name.
const vendorNameRules = "Always resolve the vendor/merchant to its FULL legal entity name, including the " +
	"jurisdiction-appropriate company suffix: Inc/LLC/Corp/Ltd for US entities; d.o.o./d.d./a.d. for " +
	"Serbian, Croatian, Bosnian and other Balkan entities; GmbH/AG for German and Austrian entities; " +
	"S.A./S.r.l./B.V./N.V. for other EU entities. Apply known brand-to-legal-name mappings: " +
	"'Slack' -> 'Slack Technologies Inc', 'GOOGLE*' or 'Google' -> 'Google LLC', 'AMZN' or 'Amazon' -> " +
	"'Amazon.com Inc', 'MSFT' or 'Microsoft' -> 'Microsoft Corporation', 'FB' or 'Facebook' -> 'Meta " +
	"Platforms Inc'. Never abbreviate or truncate the legal name."

// ClassifyTextInstruction is the system instruction for text classification.
func ClassifyTextInstruction() string {
	return strings.Join([]string{
		"You are a business document classifier.",
		"Given the extracted text of a document, decide which category it belongs to:",
		"one of " + strings.Join(constants.DocumentTypes(), ", ") + ".",
		"Report your confidence as a number between 0 and 1.",
		languageRule,
		"Return ONLY JSON matching the provided schema.",
	}, " ")
}

// ClassifyImageInstruction is the system instruction for image classification.
func ClassifyImageInstruction() string {
	return strings.Join([]string{
		"You are a business document classifier.",
		"Given a photo or scan of a document, decide which category it belongs to:",
		"one of " + strings.Join(constants.DocumentTypes(), ", ") + ".",
		"Report your confidence as a number between 0 and 1.",
		languageRule,
		"Return ONLY JSON matching the provided schema.",
	}, " ")
}

// ClassificationSchema enforces the closed category enum, a [0,1]
// confidence, and an optional language string.
func ClassificationSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"type":       map[string]any{"type": "string", "enum": constants.DocumentTypes()},
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"language":   map[string]any{"type": "string", "minLength": 2, "maxLength": 8},
		},
		"required": []string{"type", "confidence"},
	}
}

// InvoiceInstruction builds the invoice field-extraction system instruction.
// When the recipient company is known, a specialized variant tells the model
// that name is the customer, never the vendor: a buyer's own name printed on
// the invoice is a known self-misattribution failure mode.
func InvoiceInstruction(companyName string) string {
	parts := []string{
		"You are an invoice parser. Extract the structured fields of the invoice.",
		"Use ISO-8601 dates (YYYY-MM-DD). Currency must be a 3-letter ISO 4217 code.",
		vendorNameRules,
		languageRule,
		"Amounts are plain numbers without currency symbols or thousands separators.",
		"If a field is not present in the document, use null. line_items is always an array, possibly empty.",
		"Return ONLY JSON matching the provided schema.",
	}
	if name := strings.TrimSpace(companyName); name != "" {
		parts = append(parts,
			"IMPORTANT: '"+name+"' is the RECIPIENT of this invoice (the customer being billed), "+
				"NOT the vendor. Even if that name appears prominently in the document, never report it "+
				"as vendor_name.")
	}
	return strings.Join(parts, " ")
}

// ReceiptInstruction builds the receipt field-extraction system instruction,
// with the same recipient disambiguation as the invoice variant.
func ReceiptInstruction(companyName string) string {
	parts := []string{
		"You are a receipts parser. Extract the structured fields of the receipt.",
		"Use ISO-8601 dates (YYYY-MM-DD). Currency must be a 3-letter ISO 4217 code.",
		vendorNameRules,
		languageRule,
		"Amounts are plain numbers without currency symbols or thousands separators.",
		"If a field is not present in the document, use null. items is always an array, possibly empty.",
		"Return ONLY JSON matching the provided schema.",
	}
	if name := strings.TrimSpace(companyName); name != "" {
		parts = append(parts,
			"IMPORTANT: '"+name+"' is the purchaser on this receipt, NOT the merchant. Even if that "+
				"name appears in the document, never report it as merchant_name.")
	}
	return strings.Join(parts, " ")
}

// VendorNameRules exposes the normalization rule set for reuse and testing.
func VendorNameRules() string { return vendorNameRules }

func nullable(typ string) map[string]any {
	return map[string]any{"type": []string{typ, "null"}}
}

// InvoiceSchema is the raw wire schema for invoice extraction. Every scalar
// is independently nullable; line_items is an array that may be empty but
// never null.
func InvoiceSchema() map[string]any {
	lineItem := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"description": nullable("string"),
			"quantity":    nullable("number"),
			"unit_price":  nullable("number"),
			"total":       nullable("number"),
			"vat_rate":    nullable("number"),
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"invoice_number":       nullable("string"),
			"invoice_date":         nullable("string"),
			"due_date":             nullable("string"),
			"vendor_name":          nullable("string"),
			"vendor_address":       nullable("string"),
			"customer_name":        nullable("string"),
			"customer_address":     nullable("string"),
			"email":                nullable("string"),
			"website":              nullable("string"),
			"total_amount":         nullable("number"),
			"tax_amount":           nullable("number"),
			"tax_rate":             nullable("number"),
			"currency":             nullable("string"),
			"tax_type":             nullable("string"),
			"line_items":           map[string]any{"type": "array", "items": lineItem},
			"payment_instructions": nullable("string"),
			"notes":                nullable("string"),
			"language":             nullable("string"),
		},
		"required": []string{"line_items"},
	}
}

// ReceiptSchema is the raw wire schema for receipt extraction.
func ReceiptSchema() map[string]any {
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":     nullable("string"),
			"quantity": nullable("number"),
			"price":    nullable("number"),
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"merchant_name":    nullable("string"),
			"merchant_address": nullable("string"),
			"date":             nullable("string"),
			"total_amount":     nullable("number"),
			"tax_amount":       nullable("number"),
			"currency":         nullable("string"),
			"payment_method":   nullable("string"),
			"items":            map[string]any{"type": "array", "items": item},
			"language":         nullable("string"),
		},
		"required": []string{"items"},
	}
}
