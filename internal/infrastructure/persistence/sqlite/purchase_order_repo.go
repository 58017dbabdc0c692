package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"go.uber.org/zap"
)

// PurchaseOrderRepository implements port.PurchaseOrderRepository
type PurchaseOrderRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewPurchaseOrderRepository creates a new purchase order repository
func NewPurchaseOrderRepository(store *Store, logger *zap.Logger) *PurchaseOrderRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseOrderRepository{store: store, logger: logger}
}

// GetByInvoiceID returns the purchase order for an invoice, or nil when none exists
func (r *PurchaseOrderRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.PurchaseOrderRecord, error) {
	query := `
		SELECT invoice_id, expected_amount, status
		FROM purchase_orders
		WHERE invoice_id = ?
	`

	var po entity.PurchaseOrderRecord
	err := r.store.conn(ctx).QueryRowContext(ctx, query, invoiceID).Scan(&po.InvoiceID, &po.ExpectedAmount, &po.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get purchase order", zap.String("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	return &po, nil
}

// List returns all purchase orders ordered by invoice ID
func (r *PurchaseOrderRepository) List(ctx context.Context) ([]*entity.PurchaseOrderRecord, error) {
	rows, err := r.store.conn(ctx).QueryContext(ctx, `
		SELECT invoice_id, expected_amount, status
		FROM purchase_orders
		ORDER BY invoice_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	defer rows.Close()

	var records []*entity.PurchaseOrderRecord
	for rows.Next() {
		var po entity.PurchaseOrderRecord
		if err := rows.Scan(&po.InvoiceID, &po.ExpectedAmount, &po.Status); err != nil {
			return nil, fmt.Errorf("failed to scan purchase order: %w", err)
		}
		records = append(records, &po)
	}

	return records, rows.Err()
}

var _ port.PurchaseOrderRepository = (*PurchaseOrderRepository)(nil)
