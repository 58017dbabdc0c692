package port

import (
	"context"

	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
)

// PurchaseOrderRepository reads the purchase-order reference data.
// GetByInvoiceID returns nil, nil when no PO was issued for the invoice.
type PurchaseOrderRepository interface {
	GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.PurchaseOrderRecord, error)
	List(ctx context.Context) ([]*entity.PurchaseOrderRecord, error)
}

// TransitionRepository stores the approval audit trail
type TransitionRepository interface {
	Create(ctx context.Context, record *entity.TransitionRecord) error
	GetByDocumentID(ctx context.Context, documentID string) ([]*entity.TransitionRecord, error)
}

// ElementRepository reads BIM project elements
type ElementRepository interface {
	List(ctx context.Context) ([]*entity.ProjectElement, error)
	SummarizeByType(ctx context.Context) ([]entity.ElementCostSummary, error)
}

// TransactionManager runs fn inside a database transaction carried by the context
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
