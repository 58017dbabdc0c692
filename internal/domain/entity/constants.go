package entity

// Actors recorded on lifecycle transitions
const (
	ActorSystem = "system"
	ActorHuman  = "reviewer"
)

// Trigger names recorded in the audit trail for approval decisions
const (
	ActionApprove         = "APPROVE"
	ActionApproveOverride = "APPROVE_OVERRIDE"
	ActionReject          = "REJECT"
)
