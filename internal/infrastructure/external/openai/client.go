package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/go-playground/validator/v10"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Config holds the reasoning-service connection settings
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// KnowledgeSource returns the corpus passages relevant to a question
type KnowledgeSource interface {
	Retrieve(question string) string
}

// Client implements the reasoning-service capabilities on top of the OpenAI chat completions API
type Client struct {
	api       *openai.Client
	model     string
	prompts   *PromptConfig
	knowledge KnowledgeSource
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewClient creates a client from explicit configuration
func NewClient(cfg Config, prompts *PromptConfig, knowledge KnowledgeSource, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai model is required")
	}
	if prompts == nil {
		var err error
		if prompts, err = DefaultPrompts(); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		api:       openai.NewClientWithConfig(apiCfg),
		model:     cfg.Model,
		prompts:   prompts,
		knowledge: knowledge,
		validate:  newPayloadValidator(),
		logger:    logger,
	}, nil
}

// complete sends one request and returns the first choice's message
func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionMessage, error) {
	req.Model = c.model

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Error("OpenAI API call failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return openai.ChatCompletionMessage{}, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	c.logger.Debug("OpenAI API call completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, port.ErrEmptyResponse
	}
	return resp.Choices[0].Message, nil
}

func dataURL(a port.Attachment) string {
	return fmt.Sprintf("data:%s;base64,%s", a.MIMEType, base64.StdEncoding.EncodeToString(a.Data))
}

// stripCodeFence unwraps a ```json fenced payload some models return despite the response format
func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var (
	_ port.InvoiceExtractor = (*Client)(nil)
	_ port.QueryGenerator   = (*Client)(nil)
	_ port.KnowledgeQuerier = (*Client)(nil)
	_ port.SessionFactory   = (*Client)(nil)
)
