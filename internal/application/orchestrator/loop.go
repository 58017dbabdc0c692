// Package orchestrator drives a chat turn against the reasoning service,
// running every tool call it requests until it answers in plain text.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"go.uber.org/zap"
)

const (
	DefaultMaxRounds   = 8
	DefaultTurnTimeout = 2 * time.Minute

	// Transcript texts
	MessageCallingTool   = "Calling External API..."
	MessageServiceError  = "Error connecting to service."
	MessageTurnTimedOut  = "The assistant took too long to answer. Please try again."
	messageRoundLimitFmt = "Stopped after %d tool rounds without a final answer. Please rephrase your request."
)

var (
	// ErrRoundLimit is reported when the reasoning service keeps requesting tools past the cap
	ErrRoundLimit = errors.New("tool round limit reached")

	// ErrTurnTimeout is reported when a turn exceeds its time budget
	ErrTurnTimeout = errors.New("turn timed out")
)

// Outcome is how a turn ended
type Outcome string

const (
	OutcomeCompleted  Outcome = "completed"
	OutcomeRoundLimit Outcome = "round_limit"
	OutcomeFailed     Outcome = "failed"
)

// TurnResult summarizes one RunTurn call
type TurnResult struct {
	Outcome   Outcome
	Rounds    int
	ToolCalls int
	Draft     *entity.DraftPurchaseOrder
	Err       error
}

// Config bounds a turn
type Config struct {
	MaxRounds   int
	TurnTimeout time.Duration
}

// Loop runs chat turns with tool dispatch
type Loop struct {
	registry *Registry
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewLoop creates a loop over the given registry. Zero config values fall back to defaults.
func NewLoop(registry *Registry, cfg Config, logger *zap.Logger) *Loop {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{registry: registry, cfg: cfg, logger: logger, now: time.Now}
}

// Registry returns the tools the loop dispatches to
func (l *Loop) Registry() *Registry {
	return l.registry
}

// RunTurn appends the user's message, converses until the service stops asking for
// tools, and appends every step to the transcript. Failures never escape as errors:
// they end the turn with an in-band model message and are reported in TurnResult.
func (l *Loop) RunTurn(ctx context.Context, session port.ChatSession, transcript *entity.Transcript, userText string) *TurnResult {
	result := &TurnResult{}
	started := l.now()

	transcript.Append(l.message(entity.RoleUser, userText))

	ctx, cancel := context.WithTimeout(ctx, l.cfg.TurnTimeout)
	defer cancel()

	reply, err := session.Send(ctx, port.ChatInput{Text: userText})
	if err != nil {
		return l.fail(ctx, transcript, result, err)
	}

	for reply.HasToolCalls() {
		if result.Rounds >= l.cfg.MaxRounds {
			l.logger.Warn("Tool round limit reached",
				zap.Int("max_rounds", l.cfg.MaxRounds),
				zap.Int("tool_calls", result.ToolCalls))
			transcript.Append(l.message(entity.RoleModel, fmt.Sprintf(messageRoundLimitFmt, l.cfg.MaxRounds)))
			result.Outcome = OutcomeRoundLimit
			result.Err = ErrRoundLimit
			return result
		}
		result.Rounds++

		results := make([]port.ToolResult, 0, len(reply.ToolCalls))
		for _, call := range reply.ToolCalls {
			results = append(results, l.runTool(ctx, transcript, call))
			result.ToolCalls++
		}

		l.logger.Debug("Tool round complete",
			zap.Int("round", result.Rounds),
			zap.Int("tools_called", len(results)))

		reply, err = session.Send(ctx, port.ChatInput{ToolResults: results})
		if err != nil {
			return l.fail(ctx, transcript, result, err)
		}
	}

	transcript.Append(l.message(entity.RoleModel, reply.Text))
	result.Outcome = OutcomeCompleted
	result.Draft = ExtractDraft(reply.Text)

	l.logger.Info("Turn complete",
		zap.Int("rounds", result.Rounds),
		zap.Int("tool_calls", result.ToolCalls),
		zap.Bool("draft", result.Draft != nil),
		zap.Duration("elapsed", l.now().Sub(started)))

	return result
}

// runTool records the call, dispatches it and records the outcome.
// Dispatch errors become a failed result the service can react to.
func (l *Loop) runTool(ctx context.Context, transcript *entity.Transcript, call port.ToolCall) port.ToolResult {
	callMsg := l.message(entity.RoleModel, MessageCallingTool)
	callMsg.IsToolCall = true
	callMsg.ToolName = call.Name
	callMsg.ToolArgs = call.Args
	transcript.Append(callMsg)

	toolStart := l.now()
	content, summary, err := l.registry.Dispatch(ctx, call)

	resultMsg := l.message(entity.RoleModel, summary)
	resultMsg.IsToolCall = true
	resultMsg.ToolName = call.Name

	if err != nil {
		l.logger.Warn("Tool call failed",
			zap.String("tool", call.Name),
			zap.String("call_id", call.ID),
			zap.Error(err))

		content, _ = json.Marshal(map[string]string{"error": err.Error()})
		resultMsg.Content = "Tool call failed: " + err.Error()
		resultMsg.ToolFailed = true
		resultMsg.ToolResult = content
		transcript.Append(resultMsg)

		return port.ToolResult{CallID: call.ID, Name: call.Name, Content: content, Failed: true}
	}

	l.logger.Info("Tool call complete",
		zap.String("tool", call.Name),
		zap.String("call_id", call.ID),
		zap.Duration("elapsed", l.now().Sub(toolStart)))

	resultMsg.ToolResult = content
	transcript.Append(resultMsg)

	return port.ToolResult{CallID: call.ID, Name: call.Name, Content: content}
}

func (l *Loop) fail(ctx context.Context, transcript *entity.Transcript, result *TurnResult, err error) *TurnResult {
	result.Outcome = OutcomeFailed

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		l.logger.Warn("Turn timed out",
			zap.Duration("timeout", l.cfg.TurnTimeout),
			zap.Int("rounds", result.Rounds))
		transcript.Append(l.message(entity.RoleModel, MessageTurnTimedOut))
		result.Err = fmt.Errorf("%w: %v", ErrTurnTimeout, err)
		return result
	}

	l.logger.Error("Reasoning service call failed",
		zap.Int("rounds", result.Rounds),
		zap.Error(err))
	transcript.Append(l.message(entity.RoleModel, MessageServiceError))
	result.Err = err
	return result
}

func (l *Loop) message(role entity.Role, content string) entity.ChatMessage {
	return entity.ChatMessage{Role: role, Content: content, Timestamp: l.now()}
}
