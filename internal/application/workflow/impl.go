package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/dispatcher"
	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/event"
	domainwf "github.com/ayifakhri-cell/ERP-Construction/internal/domain/workflow"
	"go.uber.org/zap"
)

// engineImpl is the concrete implementation of WorkflowEngine
type engineImpl struct {
	historyRepo port.TransitionRepository
	txManager   port.TransactionManager
	dispatcher  dispatcher.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *engineImpl) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source used for audit timestamps
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(historyRepo port.TransitionRepository, txManager port.TransactionManager, opts ...EngineOption) WorkflowEngine {
	e := &engineImpl{
		historyRepo: historyRepo,
		txManager:   txManager,
		logger:      zap.NewNop(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Fire triggers a state transition for a document
func (e *engineImpl) Fire(ctx context.Context, doc *entity.Document, trigger domainwf.Trigger, opts FireOptions) (domainwf.Transition, error) {
	if doc == nil {
		return domainwf.Transition{}, fmt.Errorf("document cannot be nil")
	}

	current := domainwf.State(doc.State)
	if !current.IsValid() {
		return domainwf.Transition{}, fmt.Errorf("invalid state on document %s: %s", doc.ID, doc.State)
	}

	machine := BuildDocumentStateMachine(current)
	transition, err := machine.Fire(ctx, trigger)
	if err != nil {
		return domainwf.Transition{}, err
	}

	actor := opts.Actor
	if actor == "" {
		actor = entity.ActorSystem
	}
	action := opts.Action
	if action == "" {
		action = trigger.String()
	}

	now := e.now()
	record := &entity.TransitionRecord{
		DocumentID:    doc.ID,
		Workspace:     doc.Workspace,
		PreviousState: transition.From.String(),
		NewState:      transition.To.String(),
		Trigger:       action,
		Actor:         actor,
		Note:          opts.Note,
		Timestamp:     now,
	}

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.historyRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("failed to create history record: %w", err)
		}
		return nil
	})
	if err != nil {
		return domainwf.Transition{}, err
	}

	doc.State = transition.To.String()
	doc.UpdatedAt = now

	e.logger.Info("Document state changed",
		zap.String("document_id", doc.ID),
		zap.String("workspace", doc.Workspace),
		zap.String("from", transition.From.String()),
		zap.String("to", transition.To.String()),
		zap.String("action", action),
		zap.String("actor", actor))

	e.emit(ctx, doc, transition, record)

	return transition, nil
}

// PermittedTriggers returns the triggers available in the document's current state
func (e *engineImpl) PermittedTriggers(doc *entity.Document) []domainwf.Trigger {
	state := domainwf.State(doc.State)
	if !state.IsValid() {
		return nil
	}
	return BuildDocumentStateMachine(state).PermittedTriggers()
}

// History returns the recorded transitions of a document
func (e *engineImpl) History(ctx context.Context, documentID string) ([]*entity.TransitionRecord, error) {
	records, err := e.historyRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for document %s: %w", documentID, err)
	}
	return records, nil
}

// emit publishes the status change plus the lifecycle event tied to the new state
func (e *engineImpl) emit(ctx context.Context, doc *entity.Document, transition domainwf.Transition, record *entity.TransitionRecord) {
	if e.dispatcher == nil {
		return
	}

	statusEvent := event.NewEvent(event.TypeStatusChanged, doc.ID, doc.Workspace, map[string]interface{}{
		"previous_state": record.PreviousState,
		"new_state":      record.NewState,
		"trigger":        record.Trigger,
		"actor":          record.Actor,
	})
	e.dispatcher.DispatchAsync(ctx, statusEvent)

	var followUp event.Type
	switch transition.To {
	case domainwf.StateProcessing:
		followUp = event.TypeDocumentUploaded
	case domainwf.StateAwaitingApproval:
		if doc.Invoice != nil && doc.Invoice.RequiresReview() {
			followUp = event.TypeReviewRequired
		}
	case domainwf.StateSuccess:
		followUp = event.TypeDocumentApproved
	case domainwf.StateRejected:
		followUp = event.TypeDocumentRejected
	case domainwf.StateError:
		followUp = event.TypeDocumentFailed
	}
	if followUp == "" {
		return
	}

	// Handlers receive a snapshot of the document
	e.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(followUp, doc.ID, doc.Workspace, map[string]interface{}{
		event.PayloadDocument: doc.Clone(),
		"note":                record.Note,
	}, statusEvent.CorrelationID))
}
