package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
)

type queryPayload struct {
	SQL         string `json:"sql" validate:"required"`
	Explanation string `json:"explanation"`
}

var querySchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"sql":         {Type: jsonschema.String, Description: "The SQL query"},
		"explanation": {Type: jsonschema.String, Description: "Brief explanation of the logic"},
	},
	Required: []string{"sql", "explanation"},
}

// GenerateQuery translates a natural-language question into SQL over the described schema
func (c *Client) GenerateQuery(ctx context.Context, question, schemaDescription string) (*entity.AnalysisQuery, error) {
	prompt := c.prompts.QueryGeneration
	text, err := renderTemplate(prompt.UserTemplate, map[string]interface{}{
		"Question": question,
		"Schema":   schemaDescription,
	})
	if err != nil {
		return nil, err
	}

	msg, err := c.complete(ctx, openai.ChatCompletionRequest{
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "analysis_query",
				Schema: &querySchema,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	content := stripCodeFence(msg.Content)
	if content == "" {
		return nil, port.ErrEmptyResponse
	}

	var payload queryPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		c.logger.Error("Failed to parse query payload", zap.Error(err), zap.String("content", msg.Content))
		return nil, fmt.Errorf("%w: %v", port.ErrMalformedResponse, err)
	}
	if err := c.validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrMalformedResponse, err)
	}

	return &entity.AnalysisQuery{
		SQL:         strings.TrimSpace(payload.SQL),
		Explanation: strings.TrimSpace(payload.Explanation),
	}, nil
}

// QueryKnowledge answers a question grounded in the knowledge corpus.
// An empty answer is returned as is.
func (c *Client) QueryKnowledge(ctx context.Context, question string) (string, error) {
	var corpus string
	if c.knowledge != nil {
		corpus = c.knowledge.Retrieve(question)
	}

	prompt := c.prompts.Safety
	text, err := renderTemplate(prompt.UserTemplate, map[string]interface{}{
		"Context":  corpus,
		"Question": question,
	})
	if err != nil {
		return "", err
	}

	msg, err := c.complete(ctx, openai.ChatCompletionRequest{
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(msg.Content), nil
}
