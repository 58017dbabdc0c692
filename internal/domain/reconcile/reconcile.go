// Package reconcile turns an extracted invoice into an approval verdict using
// deterministic business rules. It performs no I/O: the purchase-order reference
// data is supplied through a Lookup.
package reconcile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
)

const (
	DefaultConfidenceThreshold = 0.85
	DefaultAmountTolerance     = 500.0
)

// Lookup resolves the purchase order issued for an invoice ID.
// A false second return means no PO was issued.
type Lookup func(invoiceID string) (entity.PurchaseOrderRecord, bool)

// MapLookup builds a Lookup over a fixed set of records
func MapLookup(records map[string]entity.PurchaseOrderRecord) Lookup {
	return func(invoiceID string) (entity.PurchaseOrderRecord, bool) {
		po, ok := records[invoiceID]
		return po, ok
	}
}

// Verdict is the outcome of reconciling one invoice
type Verdict struct {
	Status entity.ValidationStatus `json:"status"`
	Note   string                  `json:"note"`
}

// Rules holds the decision boundaries of the engine
type Rules struct {
	ConfidenceThreshold float64 // extractions below this need a human
	AmountTolerance     float64 // absolute currency units, same currency assumed
}

// DefaultRules returns the standard thresholds
func DefaultRules() Rules {
	return Rules{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		AmountTolerance:     DefaultAmountTolerance,
	}
}

// Validate checks the rules are usable
func (r Rules) Validate() error {
	if r.ConfidenceThreshold <= 0 || r.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in (0, 1], got %.2f", r.ConfidenceThreshold)
	}
	if r.AmountTolerance < 0 {
		return fmt.Errorf("amount tolerance must not be negative, got %.2f", r.AmountTolerance)
	}
	return nil
}

// Reconcile applies the default rules
func Reconcile(inv *entity.ExtractedInvoice, lookup Lookup) Verdict {
	return DefaultRules().Reconcile(inv, lookup)
}

// Reconcile evaluates the rules in priority order; the first match wins.
func (r Rules) Reconcile(inv *entity.ExtractedInvoice, lookup Lookup) Verdict {
	if inv == nil {
		return Verdict{Status: entity.ValidationRequiresHITLApproval, Note: r.lowConfidenceNote(nil)}
	}

	// NaN and out-of-range scores fail this comparison and fall into review.
	if !(inv.ConfidenceScore >= r.ConfidenceThreshold) || len(inv.MissingFields) > 0 {
		return Verdict{Status: entity.ValidationRequiresHITLApproval, Note: r.lowConfidenceNote(inv.MissingFields)}
	}

	var (
		po    entity.PurchaseOrderRecord
		found bool
	)
	if lookup != nil {
		po, found = lookup(inv.InvoiceID)
	}
	if !found {
		return Verdict{
			Status: entity.ValidationRequiresHITLApproval,
			Note:   "PO not found in database. Unplanned expense.",
		}
	}

	if math.Abs(inv.TotalAmount-po.ExpectedAmount) > r.AmountTolerance {
		return Verdict{
			Status: entity.ValidationRequiresHITLApproval,
			Note: fmt.Sprintf("Amount discrepancy > $%s. Expected: %s, Scanned: %s",
				formatAmount(r.AmountTolerance), formatAmount(po.ExpectedAmount), formatAmount(inv.TotalAmount)),
		}
	}

	return Verdict{Status: entity.ValidationValid, Note: "Matched with PO."}
}

func (r Rules) lowConfidenceNote(missing []string) string {
	percent := math.Round(r.ConfidenceThreshold*10000) / 100
	note := fmt.Sprintf("Low confidence score (< %s%%). Manual review required.", formatAmount(percent))
	if len(missing) > 0 {
		note = fmt.Sprintf("Extraction incomplete (missing: %s). Manual review required.", strings.Join(missing, ", "))
	}
	return note
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
