package workflow

import (
	domainwf "github.com/ayifakhri-cell/ERP-Construction/internal/domain/workflow"
)

// BuildDocumentStateMachine creates a state machine configured for the invoice document lifecycle
func BuildDocumentStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateIdle).
		Permit(domainwf.TriggerUpload, domainwf.StateProcessing)

	builder.Configure(domainwf.StateProcessing).
		Permit(domainwf.TriggerExtractionSucceeded, domainwf.StateAwaitingApproval).
		Permit(domainwf.TriggerExtractionFailed, domainwf.StateError)

	// Approve covers both the plain approval and the HITL override;
	// the audit trail tells them apart.
	builder.Configure(domainwf.StateAwaitingApproval).
		Permit(domainwf.TriggerApprove, domainwf.StateSuccess).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	// SUCCESS, ERROR and REJECTED are terminal states - no outgoing transitions

	return builder.Build(initialState)
}
