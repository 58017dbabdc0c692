package event

import (
	"testing"
	"time"

	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"uploaded", TypeDocumentUploaded, true},
		{"status changed", TypeStatusChanged, true},
		{"review required", TypeReviewRequired, true},
		{"approved", TypeDocumentApproved, true},
		{"rejected", TypeDocumentRejected, true},
		{"failed", TypeDocumentFailed, true},
		{"turn completed", TypeTurnCompleted, true},
		{"invalid - unknown type", Type("voucher.generated"), false},
		{"invalid - empty string", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(TypeDocumentApproved, "doc-1", "site-a", map[string]interface{}{
		"decision": "APPROVED",
	})

	if event.ID == "" {
		t.Error("Event ID should not be empty")
	}
	if event.Type != TypeDocumentApproved {
		t.Errorf("Event Type = %v, want %v", event.Type, TypeDocumentApproved)
	}
	if event.AggregateID != "doc-1" || event.Workspace != "site-a" {
		t.Errorf("Event subject = %s/%s, want site-a/doc-1", event.Workspace, event.AggregateID)
	}
	if event.CorrelationID == "" || event.CorrelationID == event.ID {
		t.Error("Event CorrelationID should be set and distinct from ID")
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("Event Timestamp should be recent")
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	event := NewEventWithCorrelation(TypeTurnCompleted, "session-9", "", nil, "corr-1")

	if event.CorrelationID != "corr-1" {
		t.Errorf("Event CorrelationID = %v, want corr-1", event.CorrelationID)
	}
	if event.AggregateID != "session-9" {
		t.Errorf("Event AggregateID = %v, want session-9", event.AggregateID)
	}
}

func TestEvent_Document(t *testing.T) {
	doc := &entity.Document{ID: "doc-1"}
	withDoc := NewEvent(TypeReviewRequired, "doc-1", "site-a", map[string]interface{}{PayloadDocument: doc})

	got, ok := withDoc.Document()
	if !ok || got != doc {
		t.Errorf("Document() = %v, %v, want the attached snapshot", got, ok)
	}

	if _, ok := NewEvent(TypeReviewRequired, "doc-1", "site-a", nil).Document(); ok {
		t.Error("Document() should report false without a payload")
	}
	var nilDoc *entity.Document
	if _, ok := NewEvent(TypeReviewRequired, "doc-1", "", map[string]interface{}{PayloadDocument: nilDoc}).Document(); ok {
		t.Error("Document() should report false for a nil snapshot")
	}
}

func TestEvent_GetPayloadString(t *testing.T) {
	event := NewEvent(TypeTurnCompleted, "s-1", "", map[string]interface{}{
		"outcome": stringer("completed"),
		"text":    "hello",
		"rounds":  2,
	})

	if got := event.GetPayloadString("outcome"); got != "completed" {
		t.Errorf("GetPayloadString(outcome) = %q", got)
	}
	if got := event.GetPayloadString("text"); got != "hello" {
		t.Errorf("GetPayloadString(text) = %q", got)
	}
	if got := event.GetPayloadString("rounds"); got != "" {
		t.Errorf("GetPayloadString(rounds) = %q, want empty", got)
	}
	if got := event.GetPayloadString("missing"); got != "" {
		t.Errorf("GetPayloadString(missing) = %q, want empty", got)
	}
}
