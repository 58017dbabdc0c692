package port

//go:generate mockgen -source=chat.go -destination=chat_mock.go -package=port

import (
	"context"
	"encoding/json"
)

// ToolParameter describes one argument of a declared tool
type ToolParameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// ToolDeclaration is a tool the reasoning service may ask the caller to run
type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  []ToolParameter
}

// ToolCall is a pending tool invocation requested by the reasoning service
type ToolCall struct {
	ID   string
	Name string
	Args json.RawMessage
}

// ToolResult is the outcome of one tool call, passed back verbatim
type ToolResult struct {
	CallID  string
	Name    string
	Content json.RawMessage
	Failed  bool
}

// ChatInput is either user text or the results of the previous round's tool calls
type ChatInput struct {
	Text        string
	ToolResults []ToolResult
}

// ChatReply is one response from a chat session
type ChatReply struct {
	Text      string
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the reply is waiting on tool results
func (r *ChatReply) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// ChatSession is a stateful conversation with the reasoning service
type ChatSession interface {
	Send(ctx context.Context, input ChatInput) (*ChatReply, error)
}

// SessionFactory opens chat sessions with a fixed system instruction and tool list
type SessionFactory interface {
	NewProcurementSession(ctx context.Context, tools []ToolDeclaration) (ChatSession, error)
}
