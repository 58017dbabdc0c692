package sqlite

import (
	"context"
	"fmt"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"go.uber.org/zap"
)

// ElementRepository implements port.ElementRepository over project_elements
type ElementRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewElementRepository creates a new BIM element repository
func NewElementRepository(store *Store, logger *zap.Logger) *ElementRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ElementRepository{store: store, logger: logger}
}

// List returns the elements ordered by ID
func (r *ElementRepository) List(ctx context.Context) ([]*entity.ProjectElement, error) {
	rows, err := r.store.conn(ctx).QueryContext(ctx, `
		SELECT id, type, material, volume, cost_estimate, zone
		FROM project_elements
		ORDER BY id ASC
	`)
	if err != nil {
		r.logger.Error("Failed to list project elements", zap.Error(err))
		return nil, fmt.Errorf("failed to list project elements: %w", err)
	}
	defer rows.Close()

	var elements []*entity.ProjectElement
	for rows.Next() {
		var e entity.ProjectElement
		if err := rows.Scan(&e.ID, &e.Type, &e.Material, &e.Volume, &e.CostEstimate, &e.Zone); err != nil {
			return nil, fmt.Errorf("failed to scan project element: %w", err)
		}
		elements = append(elements, &e)
	}

	return elements, rows.Err()
}

// SummarizeByType aggregates cost and volume per element type, ordered by type
func (r *ElementRepository) SummarizeByType(ctx context.Context) ([]entity.ElementCostSummary, error) {
	rows, err := r.store.conn(ctx).QueryContext(ctx, `
		SELECT type, SUM(cost_estimate), SUM(volume)
		FROM project_elements
		GROUP BY type
		ORDER BY type ASC
	`)
	if err != nil {
		r.logger.Error("Failed to summarize project elements", zap.Error(err))
		return nil, fmt.Errorf("failed to summarize project elements: %w", err)
	}
	defer rows.Close()

	var summary []entity.ElementCostSummary
	for rows.Next() {
		var s entity.ElementCostSummary
		if err := rows.Scan(&s.Type, &s.Cost, &s.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan element summary: %w", err)
		}
		summary = append(summary, s)
	}

	return summary, rows.Err()
}

var _ port.ElementRepository = (*ElementRepository)(nil)
