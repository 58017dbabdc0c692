package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
)

// abandonedToolResult answers tool calls the caller never executed, keeping the history well-formed
const abandonedToolResult = `{"error":"tool call was not executed"}`

// chatSession keeps the message history of one procurement conversation
type chatSession struct {
	client *Client
	tools  []openai.Tool
	prompt Prompt

	mu      sync.Mutex
	history []openai.ChatCompletionMessage
	pending []string
}

// NewProcurementSession opens a chat with the procurement prompt and the given tools
func (c *Client) NewProcurementSession(ctx context.Context, tools []port.ToolDeclaration) (port.ChatSession, error) {
	prompt := c.prompts.Procurement
	if prompt.System == "" {
		return nil, fmt.Errorf("procurement prompt is not configured")
	}

	return &chatSession{
		client: c,
		tools:  toOpenAITools(tools),
		prompt: prompt,
		history: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
		},
	}, nil
}

func toOpenAITools(decls []port.ToolDeclaration) []openai.Tool {
	tools := make([]openai.Tool, 0, len(decls))
	for _, d := range decls {
		params := jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: make(map[string]jsonschema.Definition, len(d.Parameters)),
		}
		for _, p := range d.Parameters {
			params.Properties[p.Name] = jsonschema.Definition{
				Type:        jsonschema.DataType(p.Type),
				Description: p.Description,
			}
			if p.Required {
				params.Required = append(params.Required, p.Name)
			}
		}

		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}

// Send submits user text or tool results. On failure the history is left as it was before the call.
func (s *chatSession) Send(ctx context.Context, in port.ChatInput) (*port.ChatReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mark := len(s.history)
	markPending := s.pending

	answered := make(map[string]bool, len(in.ToolResults))
	for _, r := range in.ToolResults {
		s.history = append(s.history, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    string(r.Content),
			Name:       r.Name,
			ToolCallID: r.CallID,
		})
		answered[r.CallID] = true
	}
	for _, id := range s.pending {
		if !answered[id] {
			s.history = append(s.history, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    abandonedToolResult,
				ToolCallID: id,
			})
		}
	}
	s.pending = nil

	if in.Text != "" {
		s.history = append(s.history, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: in.Text,
		})
	}

	msg, err := s.client.complete(ctx, openai.ChatCompletionRequest{
		Temperature: s.prompt.Temperature,
		MaxTokens:   s.prompt.MaxTokens,
		Messages:    append([]openai.ChatCompletionMessage(nil), s.history...),
		Tools:       s.tools,
	})
	if err != nil {
		s.history = s.history[:mark]
		s.pending = markPending
		return nil, err
	}

	s.history = append(s.history, msg)

	reply := &port.ChatReply{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, port.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: toolArgs(tc.Function.Arguments),
		})
		s.pending = append(s.pending, tc.ID)
	}

	if reply.Text == "" && len(reply.ToolCalls) == 0 {
		s.client.logger.Warn("Chat reply carried neither text nor tool calls")
	}
	if len(reply.ToolCalls) > 0 {
		s.client.logger.Debug("Model requested tools", zap.Int("tool_calls", len(reply.ToolCalls)))
	}

	return reply, nil
}

// toolArgs keeps malformed arguments as a JSON string so they still serialize
func toolArgs(arguments string) json.RawMessage {
	if arguments == "" {
		return json.RawMessage(`{}`)
	}
	if json.Valid([]byte(arguments)) {
		return json.RawMessage(arguments)
	}
	quoted, _ := json.Marshal(arguments)
	return quoted
}
