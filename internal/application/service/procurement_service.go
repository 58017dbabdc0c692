package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/dispatcher"
	"github.com/ayifakhri-cell/ERP-Construction/internal/application/orchestrator"
	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/event"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProcurementGreeting opens every procurement session
const ProcurementGreeting = "Construction Procurement Agent online. I can check 'check_material_price' for you and draft POs. Try asking: 'What's the cost for 100 SS_BAR_A?'"

// SessionView is a read-only snapshot of a chat session
type SessionView struct {
	ID        string                     `json:"id"`
	Messages  []entity.ChatMessage       `json:"messages"`
	Draft     *entity.DraftPurchaseOrder `json:"draft,omitempty"`
	Busy      bool                       `json:"busy"`
	CreatedAt time.Time                  `json:"createdAt"`
}

// TurnView is the session after a turn plus how the turn ended
type TurnView struct {
	SessionView
	Outcome   orchestrator.Outcome `json:"outcome"`
	Rounds    int                  `json:"rounds"`
	ToolCalls int                  `json:"toolCalls"`
}

// ProcurementService manages procurement agent chats
type ProcurementService interface {
	CreateSession(ctx context.Context) (*SessionView, error)
	SendMessage(ctx context.Context, sessionID, text string) (*TurnView, error)
	Session(ctx context.Context, sessionID string) (*SessionView, error)
	DraftWorkbook(ctx context.Context, sessionID string) ([]byte, error)
}

type procurementSession struct {
	id         string
	chat       port.ChatSession
	transcript *entity.Transcript
	createdAt  time.Time
	inFlight   atomic.Bool

	mu    sync.RWMutex
	draft *entity.DraftPurchaseOrder
}

func (p *procurementSession) view() *SessionView {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var draft *entity.DraftPurchaseOrder
	if p.draft != nil {
		cp := *p.draft
		draft = &cp
	}
	return &SessionView{
		ID:        p.id,
		Messages:  p.transcript.Messages(),
		Draft:     draft,
		Busy:      p.inFlight.Load(),
		CreatedAt: p.createdAt,
	}
}

type procurementServiceImpl struct {
	factory    port.SessionFactory
	loop       *orchestrator.Loop
	exporter   port.WorkbookExporter
	dispatcher dispatcher.Dispatcher
	logger     *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*procurementSession
}

// NewProcurementService creates a new ProcurementService. dispatcher may be nil.
func NewProcurementService(
	factory port.SessionFactory,
	loop *orchestrator.Loop,
	exporter port.WorkbookExporter,
	d dispatcher.Dispatcher,
	logger *zap.Logger,
) ProcurementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &procurementServiceImpl{
		factory:    factory,
		loop:       loop,
		exporter:   exporter,
		dispatcher: d,
		logger:     logger,
		sessions:   make(map[string]*procurementSession),
	}
}

// CreateSession opens a reasoning-service chat with the loop's tools and seeds the greeting
func (s *procurementServiceImpl) CreateSession(ctx context.Context) (*SessionView, error) {
	chat, err := s.factory.NewProcurementSession(ctx, s.loop.Registry().Declarations())
	if err != nil {
		return nil, fmt.Errorf("failed to open chat session: %w", err)
	}

	now := time.Now()
	sess := &procurementSession{
		id:   uuid.NewString(),
		chat: chat,
		transcript: entity.NewTranscript(entity.ChatMessage{
			Role:      entity.RoleModel,
			Content:   ProcurementGreeting,
			Timestamp: now,
		}),
		createdAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("Procurement session created", zap.String("session_id", sess.id))
	return sess.view(), nil
}

func (s *procurementServiceImpl) get(sessionID string) (*procurementSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// SendMessage runs one turn. Only one turn may run per session at a time.
func (s *procurementServiceImpl) SendMessage(ctx context.Context, sessionID, text string) (*TurnView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	if !sess.inFlight.CompareAndSwap(false, true) {
		return nil, ErrTurnInFlight
	}
	defer sess.inFlight.Store(false)

	// A turn runs to completion even if the caller goes away. The loop's turn timeout bounds it.
	ctx = context.WithoutCancel(ctx)
	result := s.loop.RunTurn(ctx, sess.chat, sess.transcript, text)

	if result.Draft != nil {
		sess.mu.Lock()
		sess.draft = result.Draft
		sess.mu.Unlock()
	}

	if result.Err != nil {
		s.logger.Warn("Procurement turn ended early",
			zap.String("session_id", sessionID),
			zap.String("outcome", string(result.Outcome)),
			zap.Error(result.Err))
	}

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeTurnCompleted, sessionID, "", map[string]interface{}{
			"outcome":    string(result.Outcome),
			"rounds":     result.Rounds,
			"tool_calls": result.ToolCalls,
			"draft":      result.Draft != nil,
		}))
	}

	view := sess.view()
	view.Busy = false
	return &TurnView{
		SessionView: *view,
		Outcome:     result.Outcome,
		Rounds:      result.Rounds,
		ToolCalls:   result.ToolCalls,
	}, nil
}

// Session returns a snapshot of the session
func (s *procurementServiceImpl) Session(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.view(), nil
}

// DraftWorkbook exports the session's latest draft purchase order
func (s *procurementServiceImpl) DraftWorkbook(ctx context.Context, sessionID string) ([]byte, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	view := sess.view()
	if view.Draft == nil {
		return nil, ErrNoDraft
	}

	data, err := s.exporter.DraftPurchaseOrder(view.Draft)
	if err != nil {
		return nil, fmt.Errorf("failed to render draft purchase order: %w", err)
	}
	return data, nil
}
