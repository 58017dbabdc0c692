package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Assistant transcript texts
const (
	AssistantGreeting = "I am the Site Safety & Protocol Assistant. I am grounded in the 'Project Alpha Safety Handbook'. Ask me about height regulations, excavation permits, or PPE."
	AssistantFallback = "I could not find an answer in the handbook."
	AssistantError    = "Error accessing knowledge base."
)

// AssistantService answers safety questions grounded in the project handbook
type AssistantService interface {
	CreateConversation(ctx context.Context) (*SessionView, error)
	Ask(ctx context.Context, conversationID, question string) (*SessionView, error)
	Conversation(ctx context.Context, conversationID string) (*SessionView, error)
}

type conversation struct {
	id         string
	transcript *entity.Transcript
	createdAt  time.Time
	inFlight   atomic.Bool
}

func (c *conversation) view() *SessionView {
	return &SessionView{
		ID:        c.id,
		Messages:  c.transcript.Messages(),
		Busy:      c.inFlight.Load(),
		CreatedAt: c.createdAt,
	}
}

type assistantServiceImpl struct {
	querier port.KnowledgeQuerier
	timeout time.Duration
	logger  *zap.Logger

	mu            sync.RWMutex
	conversations map[string]*conversation
}

// NewAssistantService creates a new AssistantService
func NewAssistantService(querier port.KnowledgeQuerier, timeout time.Duration, logger *zap.Logger) AssistantService {
	if timeout <= 0 {
		timeout = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &assistantServiceImpl{
		querier:       querier,
		timeout:       timeout,
		logger:        logger,
		conversations: make(map[string]*conversation),
	}
}

// CreateConversation starts a conversation seeded with the greeting
func (s *assistantServiceImpl) CreateConversation(ctx context.Context) (*SessionView, error) {
	now := time.Now()
	conv := &conversation{
		id: uuid.NewString(),
		transcript: entity.NewTranscript(entity.ChatMessage{
			Role:      entity.RoleModel,
			Content:   AssistantGreeting,
			Timestamp: now,
		}),
		createdAt: now,
	}

	s.mu.Lock()
	s.conversations[conv.id] = conv
	s.mu.Unlock()

	return conv.view(), nil
}

func (s *assistantServiceImpl) get(id string) (*conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return conv, nil
}

// Ask appends the question and the grounded answer. Service failures become an in-band message.
func (s *assistantServiceImpl) Ask(ctx context.Context, conversationID, question string) (*SessionView, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyMessage
	}

	conv, err := s.get(conversationID)
	if err != nil {
		return nil, err
	}

	if !conv.inFlight.CompareAndSwap(false, true) {
		return nil, ErrTurnInFlight
	}
	defer conv.inFlight.Store(false)

	conv.transcript.Append(entity.ChatMessage{Role: entity.RoleUser, Content: question, Timestamp: time.Now()})

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	answer, err := s.querier.QueryKnowledge(ctx, question)
	switch {
	case err != nil:
		s.logger.Error("Knowledge query failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		answer = AssistantError
	case strings.TrimSpace(answer) == "":
		answer = AssistantFallback
	}

	conv.transcript.Append(entity.ChatMessage{Role: entity.RoleModel, Content: answer, Timestamp: time.Now()})

	view := conv.view()
	view.Busy = false
	return view, nil
}

// Conversation returns a snapshot of the conversation
func (s *assistantServiceImpl) Conversation(ctx context.Context, conversationID string) (*SessionView, error) {
	conv, err := s.get(conversationID)
	if err != nil {
		return nil, err
	}
	return conv.view(), nil
}
