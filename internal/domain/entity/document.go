package entity

import "time"

// Decision records how a human closed the review of a document
type Decision string

const (
	DecisionApproved         Decision = "APPROVED"
	DecisionApprovedOverride Decision = "APPROVED_OVERRIDE"
	DecisionRejected         Decision = "REJECTED"
)

// Document is one uploaded invoice moving through extraction and review.
// A new upload always produces a new Document; terminal documents are never reopened.
type Document struct {
	ID            string            `json:"id"`
	Workspace     string            `json:"workspace"`
	FileName      string            `json:"file_name"`
	MIMEType      string            `json:"mime_type"`
	State         string            `json:"state"`
	Invoice       *ExtractedInvoice `json:"invoice,omitempty"`
	Decision      Decision          `json:"decision,omitempty"`
	DecidedBy     string            `json:"decided_by,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Clone returns a copy that callers may read without holding the owner's lock
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	cp := *d
	if d.Invoice != nil {
		inv := *d.Invoice
		inv.Items = append([]LineItem(nil), d.Invoice.Items...)
		inv.MissingFields = append([]string(nil), d.Invoice.MissingFields...)
		cp.Invoice = &inv
	}
	return &cp
}
