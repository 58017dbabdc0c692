package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/dispatcher"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/event"
	domainwf "github.com/ayifakhri-cell/ERP-Construction/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock implementations

type mockHistoryRepo struct {
	records   []*entity.TransitionRecord
	createErr error
}

func (m *mockHistoryRepo) Create(ctx context.Context, record *entity.TransitionRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	record.ID = int64(len(m.records) + 1)
	m.records = append(m.records, record)
	return nil
}

func (m *mockHistoryRepo) GetByDocumentID(ctx context.Context, documentID string) ([]*entity.TransitionRecord, error) {
	var result []*entity.TransitionRecord
	for _, r := range m.records {
		if r.DocumentID == documentID {
			result = append(result, r)
		}
	}
	return result, nil
}

type mockTxManager struct {
	commitErr error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	return fn(ctx)
}

type mockDispatcher struct {
	events []*event.Event
}

func (m *mockDispatcher) Subscribe(eventType event.Type, handler dispatcher.Handler) {}

func (m *mockDispatcher) SubscribeNamed(eventType event.Type, name string, handler dispatcher.Handler) {
}

func (m *mockDispatcher) Unsubscribe(eventType event.Type, name string) {}

func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.events = append(m.events, evt)
	return nil
}

func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.events = append(m.events, evt)
}

func (m *mockDispatcher) Handlers(eventType event.Type) []string {
	return nil
}

func (m *mockDispatcher) Close() error {
	return nil
}

func (m *mockDispatcher) types() []event.Type {
	out := make([]event.Type, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

func newDocument(state domainwf.State) *entity.Document {
	return &entity.Document{
		ID:        "doc-1",
		Workspace: "site-a",
		FileName:  "invoice.png",
		State:     state.String(),
	}
}

// Test factory

func TestBuildDocumentStateMachine(t *testing.T) {
	tests := []struct {
		name         string
		initialState domainwf.State
		trigger      domainwf.Trigger
		wantState    domainwf.State
		wantErr      error
	}{
		{"IDLE -> PROCESSING on UPLOAD", domainwf.StateIdle, domainwf.TriggerUpload, domainwf.StateProcessing, nil},
		{"PROCESSING -> AWAITING_APPROVAL on EXTRACTION_SUCCEEDED", domainwf.StateProcessing, domainwf.TriggerExtractionSucceeded, domainwf.StateAwaitingApproval, nil},
		{"PROCESSING -> ERROR on EXTRACTION_FAILED", domainwf.StateProcessing, domainwf.TriggerExtractionFailed, domainwf.StateError, nil},
		{"AWAITING_APPROVAL -> SUCCESS on APPROVE", domainwf.StateAwaitingApproval, domainwf.TriggerApprove, domainwf.StateSuccess, nil},
		{"AWAITING_APPROVAL -> REJECTED on REJECT", domainwf.StateAwaitingApproval, domainwf.TriggerReject, domainwf.StateRejected, nil},
		{"IDLE cannot APPROVE", domainwf.StateIdle, domainwf.TriggerApprove, domainwf.StateIdle, domainwf.ErrInvalidTransition},
		{"PROCESSING cannot APPROVE", domainwf.StateProcessing, domainwf.TriggerApprove, domainwf.StateProcessing, domainwf.ErrInvalidTransition},
		{"AWAITING_APPROVAL cannot UPLOAD", domainwf.StateAwaitingApproval, domainwf.TriggerUpload, domainwf.StateAwaitingApproval, domainwf.ErrInvalidTransition},
		{"SUCCESS is terminal", domainwf.StateSuccess, domainwf.TriggerReject, domainwf.StateSuccess, domainwf.ErrTerminalState},
		{"ERROR is terminal", domainwf.StateError, domainwf.TriggerUpload, domainwf.StateError, domainwf.ErrTerminalState},
		{"REJECTED is terminal", domainwf.StateRejected, domainwf.TriggerApprove, domainwf.StateRejected, domainwf.ErrTerminalState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := BuildDocumentStateMachine(tt.initialState)
			_, err := machine.Fire(context.Background(), tt.trigger)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, machine.State())
		})
	}
}

func TestTerminalStatesHaveNoTriggers(t *testing.T) {
	for _, state := range []domainwf.State{domainwf.StateSuccess, domainwf.StateError, domainwf.StateRejected} {
		machine := BuildDocumentStateMachine(state)
		assert.Empty(t, machine.PermittedTriggers(), "state %s", state)
	}
}

// Test engine

func TestEngine_FireRecordsHistory(t *testing.T) {
	historyRepo := &mockHistoryRepo{}
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	engine := NewEngine(historyRepo, &mockTxManager{}, WithClock(func() time.Time { return fixed }))

	doc := newDocument(domainwf.StateIdle)
	tr, err := engine.Fire(context.Background(), doc, domainwf.TriggerUpload, FireOptions{})
	require.NoError(t, err)

	assert.Equal(t, domainwf.StateIdle, tr.From)
	assert.Equal(t, domainwf.StateProcessing, tr.To)
	assert.Equal(t, "PROCESSING", doc.State)
	assert.Equal(t, fixed, doc.UpdatedAt)

	require.Len(t, historyRepo.records, 1)
	rec := historyRepo.records[0]
	assert.Equal(t, "doc-1", rec.DocumentID)
	assert.Equal(t, "site-a", rec.Workspace)
	assert.Equal(t, "IDLE", rec.PreviousState)
	assert.Equal(t, "PROCESSING", rec.NewState)
	assert.Equal(t, "UPLOAD", rec.Trigger)
	assert.Equal(t, entity.ActorSystem, rec.Actor)
	assert.Equal(t, fixed, rec.Timestamp)
}

func TestEngine_FireOverrideAudit(t *testing.T) {
	historyRepo := &mockHistoryRepo{}
	engine := NewEngine(historyRepo, &mockTxManager{})

	doc := newDocument(domainwf.StateAwaitingApproval)
	_, err := engine.Fire(context.Background(), doc, domainwf.TriggerApprove, FireOptions{
		Actor:  "alice",
		Action: entity.ActionApproveOverride,
		Note:   "checked with site manager",
	})
	require.NoError(t, err)

	records, err := engine.History(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "APPROVE_OVERRIDE", records[0].Trigger)
	assert.Equal(t, "alice", records[0].Actor)
	assert.Equal(t, "checked with site manager", records[0].Note)
	assert.Equal(t, "SUCCESS", doc.State)
}

func TestEngine_FireInvalidTransition(t *testing.T) {
	historyRepo := &mockHistoryRepo{}
	engine := NewEngine(historyRepo, &mockTxManager{})

	doc := newDocument(domainwf.StateSuccess)
	_, err := engine.Fire(context.Background(), doc, domainwf.TriggerReject, FireOptions{})

	assert.ErrorIs(t, err, domainwf.ErrTerminalState)
	assert.Equal(t, "SUCCESS", doc.State)
	assert.Empty(t, historyRepo.records)
}

func TestEngine_FireInvalidDocumentState(t *testing.T) {
	engine := NewEngine(&mockHistoryRepo{}, &mockTxManager{})

	doc := newDocument(domainwf.State("POSTED"))
	_, err := engine.Fire(context.Background(), doc, domainwf.TriggerUpload, FireOptions{})
	assert.Error(t, err)

	_, err = engine.Fire(context.Background(), nil, domainwf.TriggerUpload, FireOptions{})
	assert.Error(t, err)
}

func TestEngine_FireLeavesStateOnPersistenceFailure(t *testing.T) {
	tests := []struct {
		name        string
		historyRepo *mockHistoryRepo
		txManager   *mockTxManager
	}{
		{"history write fails", &mockHistoryRepo{createErr: errors.New("disk full")}, &mockTxManager{}},
		{"transaction fails", &mockHistoryRepo{}, &mockTxManager{commitErr: errors.New("begin failed")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDispatcher{}
			engine := NewEngine(tt.historyRepo, tt.txManager, WithDispatcher(d))

			doc := newDocument(domainwf.StateIdle)
			_, err := engine.Fire(context.Background(), doc, domainwf.TriggerUpload, FireOptions{})

			assert.Error(t, err)
			assert.Equal(t, "IDLE", doc.State)
			assert.Empty(t, d.events)
		})
	}
}

func TestEngine_EmitsLifecycleEvents(t *testing.T) {
	tests := []struct {
		name       string
		from       domainwf.State
		trigger    domainwf.Trigger
		invoice    *entity.ExtractedInvoice
		wantEvents []event.Type
	}{
		{
			name:       "upload",
			from:       domainwf.StateIdle,
			trigger:    domainwf.TriggerUpload,
			wantEvents: []event.Type{event.TypeStatusChanged, event.TypeDocumentUploaded},
		},
		{
			name:       "extraction with HITL verdict",
			from:       domainwf.StateProcessing,
			trigger:    domainwf.TriggerExtractionSucceeded,
			invoice:    &entity.ExtractedInvoice{ValidationStatus: entity.ValidationRequiresHITLApproval},
			wantEvents: []event.Type{event.TypeStatusChanged, event.TypeReviewRequired},
		},
		{
			name:       "extraction with valid verdict",
			from:       domainwf.StateProcessing,
			trigger:    domainwf.TriggerExtractionSucceeded,
			invoice:    &entity.ExtractedInvoice{ValidationStatus: entity.ValidationValid},
			wantEvents: []event.Type{event.TypeStatusChanged},
		},
		{
			name:       "extraction failure",
			from:       domainwf.StateProcessing,
			trigger:    domainwf.TriggerExtractionFailed,
			wantEvents: []event.Type{event.TypeStatusChanged, event.TypeDocumentFailed},
		},
		{
			name:       "approve",
			from:       domainwf.StateAwaitingApproval,
			trigger:    domainwf.TriggerApprove,
			wantEvents: []event.Type{event.TypeStatusChanged, event.TypeDocumentApproved},
		},
		{
			name:       "reject",
			from:       domainwf.StateAwaitingApproval,
			trigger:    domainwf.TriggerReject,
			wantEvents: []event.Type{event.TypeStatusChanged, event.TypeDocumentRejected},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDispatcher{}
			engine := NewEngine(&mockHistoryRepo{}, &mockTxManager{}, WithDispatcher(d))

			doc := newDocument(tt.from)
			doc.Invoice = tt.invoice
			_, err := engine.Fire(context.Background(), doc, tt.trigger, FireOptions{})
			require.NoError(t, err)

			assert.Equal(t, tt.wantEvents, d.types())
			assert.Equal(t, tt.from.String(), d.events[0].GetPayloadString("previous_state"))
			if len(d.events) > 1 {
				assert.Equal(t, d.events[0].CorrelationID, d.events[1].CorrelationID)
				snapshot, ok := d.events[1].Payload["document"].(*entity.Document)
				require.True(t, ok)
				assert.NotSame(t, doc, snapshot)
				assert.Equal(t, doc.State, snapshot.State)
			}
		})
	}
}

func TestEngine_PermittedTriggers(t *testing.T) {
	engine := NewEngine(&mockHistoryRepo{}, &mockTxManager{})

	assert.Equal(t, []domainwf.Trigger{domainwf.TriggerApprove, domainwf.TriggerReject},
		engine.PermittedTriggers(newDocument(domainwf.StateAwaitingApproval)))
	assert.Empty(t, engine.PermittedTriggers(newDocument(domainwf.StateError)))
	assert.Nil(t, engine.PermittedTriggers(newDocument(domainwf.State("bogus"))))
}
