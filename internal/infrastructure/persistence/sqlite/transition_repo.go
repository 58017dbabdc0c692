package sqlite

import (
	"context"
	"fmt"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"go.uber.org/zap"
)

// TransitionRepository implements port.TransitionRepository
type TransitionRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewTransitionRepository creates a new transition history repository
func NewTransitionRepository(store *Store, logger *zap.Logger) *TransitionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransitionRepository{store: store, logger: logger}
}

// Create appends a transition record
func (r *TransitionRepository) Create(ctx context.Context, record *entity.TransitionRecord) error {
	query := `
		INSERT INTO document_transitions (
			document_id, workspace, previous_state, new_state,
			trigger_name, actor, note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.store.conn(ctx).ExecContext(ctx, query,
		record.DocumentID,
		record.Workspace,
		record.PreviousState,
		record.NewState,
		record.Trigger,
		record.Actor,
		record.Note,
		record.Timestamp.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create transition record",
			zap.String("document_id", record.DocumentID),
			zap.Error(err))
		return fmt.Errorf("failed to create transition record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// GetByDocumentID returns a document's transitions in the order they happened
func (r *TransitionRepository) GetByDocumentID(ctx context.Context, documentID string) ([]*entity.TransitionRecord, error) {
	query := `
		SELECT id, document_id, workspace, previous_state, new_state,
			trigger_name, actor, note, created_at
		FROM document_transitions
		WHERE document_id = ?
		ORDER BY id ASC
	`

	rows, err := r.store.conn(ctx).QueryContext(ctx, query, documentID)
	if err != nil {
		r.logger.Error("Failed to get transitions", zap.String("document_id", documentID), zap.Error(err))
		return nil, fmt.Errorf("failed to get transitions: %w", err)
	}
	defer rows.Close()

	var records []*entity.TransitionRecord
	for rows.Next() {
		var record entity.TransitionRecord
		if err := rows.Scan(
			&record.ID,
			&record.DocumentID,
			&record.Workspace,
			&record.PreviousState,
			&record.NewState,
			&record.Trigger,
			&record.Actor,
			&record.Note,
			&record.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transition record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

var _ port.TransitionRepository = (*TransitionRepository)(nil)
