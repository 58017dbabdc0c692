package config

import (
	"github.com/ayifakhri-cell/ERP-Construction/internal/application/orchestrator"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/reconcile"
	"github.com/ayifakhri-cell/ERP-Construction/internal/infrastructure/document"
	"github.com/ayifakhri-cell/ERP-Construction/internal/infrastructure/export"
	"github.com/ayifakhri-cell/ERP-Construction/internal/infrastructure/external/lark"
	"github.com/ayifakhri-cell/ERP-Construction/internal/infrastructure/external/openai"
	httpapi "github.com/ayifakhri-cell/ERP-Construction/internal/interfaces/http"
	"github.com/ayifakhri-cell/ERP-Construction/pkg/database"
	"github.com/ayifakhri-cell/ERP-Construction/pkg/utils"
)

// The methods below bridge the file-based config loaded by viper to the
// configuration structs of the individual components.

func (c *Config) ToDatabaseConfig() database.Config {
	return database.Config{
		Path:            c.Database.Path,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}

func (c *Config) ToOpenAIConfig() openai.Config {
	return openai.Config{
		APIKey:  c.OpenAI.APIKey,
		BaseURL: c.OpenAI.BaseURL,
		Model:   c.OpenAI.Model,
		Timeout: c.OpenAI.Timeout,
	}
}

func (c *Config) ToLoopConfig() orchestrator.Config {
	return orchestrator.Config{
		MaxRounds:   c.Reasoning.MaxRounds,
		TurnTimeout: c.Reasoning.TurnTimeout,
	}
}

func (c *Config) ToRules() reconcile.Rules {
	return reconcile.Rules{
		ConfidenceThreshold: c.Reconciliation.ConfidenceThreshold,
		AmountTolerance:     c.Reconciliation.AmountTolerance,
	}
}

func (c *Config) ToRendererConfig() document.RendererConfig {
	return document.RendererConfig{
		MaxPages:    c.Documents.MaxPages,
		MaxBytes:    c.Documents.MaxBytes,
		JPEGQuality: c.Documents.JPEGQuality,
	}
}

func (c *Config) ToLarkConfig() lark.Config {
	return lark.Config{
		AppID:        c.Lark.AppID,
		AppSecret:    c.Lark.AppSecret,
		ReviewChatID: c.Lark.ReviewChatID,
		BaseURL:      c.Lark.BaseURL,
	}
}

func (c *Config) ToExportConfig() export.Config {
	return export.Config{
		CompanyName:     c.Export.CompanyName,
		PayableAccount:  c.Export.PayableAccount,
		DefaultCurrency: c.Export.DefaultCurrency,
	}
}

func (c *Config) ToLoggerConfig() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}

func (c *Config) ToServerConfig() httpapi.ServerConfig {
	return httpapi.ServerConfig{
		Host:           c.Server.Host,
		Port:           c.Server.Port,
		ReadTimeout:    c.Server.ReadTimeout,
		WriteTimeout:   c.Server.WriteTimeout,
		MaxUploadBytes: c.Documents.MaxBytes,
	}
}
