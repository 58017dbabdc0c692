package event

// Type identifies the type of domain event
type Type string

const (
	TypeDocumentUploaded Type = "document.uploaded"
	TypeStatusChanged    Type = "document.status_changed"
	TypeReviewRequired   Type = "document.review_required"
	TypeDocumentApproved Type = "document.approved"
	TypeDocumentRejected Type = "document.rejected"
	TypeDocumentFailed   Type = "document.failed"
	TypeTurnCompleted    Type = "chat.turn_completed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeDocumentUploaded,
		TypeStatusChanged,
		TypeReviewRequired,
		TypeDocumentApproved,
		TypeDocumentRejected,
		TypeDocumentFailed,
		TypeTurnCompleted:
		return true
	default:
		return false
	}
}
