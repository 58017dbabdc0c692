package workflow

import (
	"context"

	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	domainwf "github.com/ayifakhri-cell/ERP-Construction/internal/domain/workflow"
)

// FireOptions carries audit details for a transition
type FireOptions struct {
	// Actor defaults to entity.ActorSystem
	Actor string
	// Action overrides the trigger name written to the audit trail (e.g. APPROVE_OVERRIDE)
	Action string
	Note   string
}

// WorkflowEngine drives document lifecycles through the approval state machine
type WorkflowEngine interface {
	// Fire applies trigger to doc, records the transition and emits events.
	// The caller owns doc and must serialize calls for the same document.
	Fire(ctx context.Context, doc *entity.Document, trigger domainwf.Trigger, opts FireOptions) (domainwf.Transition, error)

	// PermittedTriggers returns the triggers available in the document's current state
	PermittedTriggers(doc *entity.Document) []domainwf.Trigger

	// History returns the recorded transitions of a document in order
	History(ctx context.Context, documentID string) ([]*entity.TransitionRecord, error)
}
