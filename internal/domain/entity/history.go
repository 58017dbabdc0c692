package entity

import "time"

// TransitionRecord is the audit trail of a document's lifecycle
type TransitionRecord struct {
	ID            int64     `json:"id"`
	DocumentID    string    `json:"document_id"`
	Workspace     string    `json:"workspace"`
	PreviousState string    `json:"previous_state"`
	NewState      string    `json:"new_state"`
	Trigger       string    `json:"trigger"`
	Actor         string    `json:"actor"`
	Note          string    `json:"note"`
	Timestamp     time.Time `json:"timestamp"`
}
