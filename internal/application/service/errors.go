package service

import "errors"

var (
	// ErrNoActiveDocument is returned when a workspace has no uploaded invoice
	ErrNoActiveDocument = errors.New("no active document in workspace")

	// ErrStaleDocument is returned when a decision targets a document that was replaced by a newer upload
	ErrStaleDocument = errors.New("document was superseded by a newer upload")

	// ErrVoucherUnavailable is returned when a voucher is requested before approval
	ErrVoucherUnavailable = errors.New("voucher is only available for approved invoices")

	// ErrEmptyUpload is returned for uploads without content
	ErrEmptyUpload = errors.New("uploaded file is empty")

	// ErrSessionNotFound is returned for unknown chat session or conversation IDs
	ErrSessionNotFound = errors.New("session not found")

	// ErrTurnInFlight is returned when a message arrives while the previous turn is still running
	ErrTurnInFlight = errors.New("a turn is already in progress for this session")

	// ErrEmptyMessage is returned for blank chat messages and questions
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoDraft is returned when a session has not produced a draft purchase order yet
	ErrNoDraft = errors.New("no draft purchase order in session")
)
