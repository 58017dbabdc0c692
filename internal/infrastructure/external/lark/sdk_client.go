package lark

import (
	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"go.uber.org/zap"
)

// Config holds Lark client configuration
type Config struct {
	AppID     string
	AppSecret string
	// ReviewChatID is the group chat that receives review alerts
	ReviewChatID string
	// BaseURL overrides the open platform endpoint, e.g. for Feishu
	BaseURL string
}

// Enabled reports whether credentials and a target chat are configured
func (c Config) Enabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.ReviewChatID != ""
}

// NewSDKClient creates a Lark SDK client with token caching
func NewSDKClient(cfg Config) *lark.Client {
	opts := []lark.ClientOptionFunc{
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lark.WithOpenBaseUrl(cfg.BaseURL))
	}
	return lark.NewClient(cfg.AppID, cfg.AppSecret, opts...)
}

// NewReviewNotifierFromConfig wires the SDK client, messenger and notifier
func NewReviewNotifierFromConfig(cfg Config, logger *zap.Logger) *ReviewNotifier {
	return NewReviewNotifier(NewMessenger(NewSDKClient(cfg), logger), cfg.ReviewChatID, logger)
}
