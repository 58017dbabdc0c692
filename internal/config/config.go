package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	OpenAI         OpenAIConfig         `mapstructure:"openai"`
	Reasoning      ReasoningConfig      `mapstructure:"reasoning"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Documents      DocumentsConfig      `mapstructure:"documents"`
	Lark           LarkConfig           `mapstructure:"lark"`
	Export         ExportConfig         `mapstructure:"export"`
	Logger         LoggerConfig         `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds the session store configuration.
// An empty path or ":memory:" keeps everything in memory.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// OpenAIConfig holds reasoning service credentials
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PromptsPath string        `mapstructure:"prompts_path"`
}

// ReasoningConfig bounds chat turns and extraction calls
type ReasoningConfig struct {
	MaxRounds         int           `mapstructure:"max_tool_rounds"`
	TurnTimeout       time.Duration `mapstructure:"turn_timeout"`
	ExtractionTimeout time.Duration `mapstructure:"extraction_timeout"`
}

// ReconciliationConfig holds the PO matching thresholds
type ReconciliationConfig struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	AmountTolerance     float64 `mapstructure:"amount_tolerance"`
}

// DocumentsConfig limits uploads and locates the safety handbook
type DocumentsConfig struct {
	MaxPages      int    `mapstructure:"max_pages"`
	MaxBytes      int64  `mapstructure:"max_bytes"`
	JPEGQuality   int    `mapstructure:"jpeg_quality"`
	KnowledgePath string `mapstructure:"knowledge_path"`
}

// LarkConfig holds the optional reviewer notification settings
type LarkConfig struct {
	AppID        string `mapstructure:"app_id"`
	AppSecret    string `mapstructure:"app_secret"`
	ReviewChatID string `mapstructure:"review_chat_id"`
	BaseURL      string `mapstructure:"base_url"`
}

// ExportConfig holds workbook export settings
type ExportConfig struct {
	CompanyName     string `mapstructure:"company_name"`
	PayableAccount  string `mapstructure:"payable_account"`
	DefaultCurrency string `mapstructure:"default_currency"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
// An empty configPath uses defaults and the environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 3*time.Minute)

	v.SetDefault("database.path", ":memory:")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.timeout", 90*time.Second)

	v.SetDefault("reasoning.max_tool_rounds", 8)
	v.SetDefault("reasoning.turn_timeout", 2*time.Minute)
	v.SetDefault("reasoning.extraction_timeout", 2*time.Minute)

	v.SetDefault("reconciliation.confidence_threshold", 0.85)
	v.SetDefault("reconciliation.amount_tolerance", 500.0)

	v.SetDefault("documents.max_pages", 2)
	v.SetDefault("documents.max_bytes", 10<<20)
	v.SetDefault("documents.jpeg_quality", 90)

	v.SetDefault("export.company_name", "Construction ERP")
	v.SetDefault("export.payable_account", "2000-Accounts Payable")
	v.SetDefault("export.default_currency", "USD")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds credentials to their conventional environment names
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"openai.api_key":      "OPENAI_API_KEY",
		"openai.base_url":     "OPENAI_BASE_URL",
		"lark.app_id":         "LARK_APP_ID",
		"lark.app_secret":     "LARK_APP_SECRET",
		"lark.review_chat_id": "LARK_REVIEW_CHAT_ID",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}
	if c.OpenAI.Model == "" {
		return fmt.Errorf("openai.model is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	if c.Reasoning.MaxRounds <= 0 {
		return fmt.Errorf("reasoning.max_tool_rounds must be positive")
	}
	if c.Reasoning.TurnTimeout <= 0 {
		return fmt.Errorf("reasoning.turn_timeout must be positive")
	}

	if c.Reconciliation.ConfidenceThreshold <= 0 || c.Reconciliation.ConfidenceThreshold > 1 {
		return fmt.Errorf("reconciliation.confidence_threshold must be in (0, 1]")
	}
	if c.Reconciliation.AmountTolerance < 0 {
		return fmt.Errorf("reconciliation.amount_tolerance must not be negative")
	}

	if c.Documents.MaxBytes <= 0 {
		return fmt.Errorf("documents.max_bytes must be positive")
	}

	// Lark is optional but must be configured completely once started
	if c.Lark.AppID != "" || c.Lark.AppSecret != "" || c.Lark.ReviewChatID != "" {
		if c.Lark.AppID == "" || c.Lark.AppSecret == "" || c.Lark.ReviewChatID == "" {
			return fmt.Errorf("lark.app_id, lark.app_secret and lark.review_chat_id must be set together")
		}
	}

	return nil
}
