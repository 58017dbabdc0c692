package entity

import "errors"

// ErrVerdictAlreadyApplied is returned when a reconciliation verdict is attached twice
var ErrVerdictAlreadyApplied = errors.New("validation verdict already applied")

// ValidationStatus is the reconciliation verdict attached to an extracted invoice
type ValidationStatus string

const (
	ValidationValid                ValidationStatus = "VALID"
	ValidationRequiresHITLApproval ValidationStatus = "REQUIRES_HITL_APPROVAL"
	ValidationRejected             ValidationStatus = "REJECTED"
)

// String returns the string representation of the status
func (s ValidationStatus) String() string {
	return string(s)
}

// LineItem is a single billed line on an invoice
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
	GLAccount   string  `json:"glAccount,omitempty"` // e.g. "5000-Materials"
}

// ExtractedInvoice is the structured invoice produced by the extraction step.
// The same shape doubles as a draft purchase order in procurement chats.
type ExtractedInvoice struct {
	InvoiceID       string     `json:"invoiceId"`
	VendorName      string     `json:"vendorName"`
	Date            string     `json:"date"`
	TotalAmount     float64    `json:"totalAmount"`
	Currency        string     `json:"currency"`
	GLAccountCode   string     `json:"glAccountCode"`
	Items           []LineItem `json:"items"`
	ConfidenceScore float64    `json:"confidenceScore"`

	// MissingFields lists required fields the extraction payload did not carry
	MissingFields []string `json:"missingFields,omitempty"`

	ValidationStatus ValidationStatus `json:"validationStatus,omitempty"`
	DiscrepancyNote  string           `json:"discrepancyNote,omitempty"`
}

// DraftPurchaseOrder is a tentative procurement record inferred from a chat answer
type DraftPurchaseOrder = ExtractedInvoice

// ApplyVerdict attaches the reconciliation verdict. It may only happen once per extraction.
func (inv *ExtractedInvoice) ApplyVerdict(status ValidationStatus, note string) error {
	if inv.ValidationStatus != "" {
		return ErrVerdictAlreadyApplied
	}
	inv.ValidationStatus = status
	inv.DiscrepancyNote = note
	return nil
}

// RequiresReview reports whether the verdict asks for a human decision
func (inv *ExtractedInvoice) RequiresReview() bool {
	return inv.ValidationStatus == ValidationRequiresHITLApproval
}

// PurchaseOrderRecord is read-only reference data keyed by invoice ID
type PurchaseOrderRecord struct {
	InvoiceID      string  `json:"invoiceId"`
	ExpectedAmount float64 `json:"expectedAmount"`
	Status         string  `json:"status"`
}

// MarkRejected records a human rejection of the invoice
func (inv *ExtractedInvoice) MarkRejected() {
	inv.ValidationStatus = ValidationRejected
}
