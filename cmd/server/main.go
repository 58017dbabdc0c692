package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/dispatcher"
	"github.com/ayifakhri-cell/ERP-Construction/internal/application/orchestrator"
	"github.com/ayifakhri-cell/ERP-Construction/internal/application/service"
	"github.com/ayifakhri-cell/ERP-Construction/internal/application/workflow"
	"github.com/ayifakhri-cell/ERP-Construction/internal/config"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/event"
	"github.com/ayifakhri-cell/ERP-Construction/internal/infrastructure/document"
	"github.com/ayifakhri-cell/ERP-Construction/internal/infrastructure/export"
	"github.com/ayifakhri-cell/ERP-Construction/internal/infrastructure/external/lark"
	"github.com/ayifakhri-cell/ERP-Construction/internal/infrastructure/external/openai"
	"github.com/ayifakhri-cell/ERP-Construction/internal/infrastructure/knowledge"
	"github.com/ayifakhri-cell/ERP-Construction/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/ayifakhri-cell/ERP-Construction/internal/interfaces/http"
	"github.com/ayifakhri-cell/ERP-Construction/pkg/database"
	"github.com/ayifakhri-cell/ERP-Construction/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(cfg.ToLoggerConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Construction ERP backend",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port),
		zap.String("model", cfg.OpenAI.Model))

	// Session store: reference tables and transition history
	db, err := database.OpenSessionStore(cfg.ToDatabaseConfig(), logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	store := sqlite.NewStore(db.DB, logger)
	poRepo := sqlite.NewPurchaseOrderRepository(store, logger)
	elementRepo := sqlite.NewElementRepository(store, logger)
	transitionRepo := sqlite.NewTransitionRepository(store, logger)

	// Events
	eventDispatcher := dispatcher.NewDispatcher(dispatcher.WithLogger(logger))
	engine := workflow.NewEngine(transitionRepo, store,
		workflow.WithDispatcher(eventDispatcher),
		workflow.WithLogger(logger))

	larkCfg := cfg.ToLarkConfig()
	if larkCfg.Enabled() {
		notifier := lark.NewReviewNotifierFromConfig(larkCfg, logger)
		eventDispatcher.SubscribeNamed(event.TypeReviewRequired, "lark-review-notifier", lark.ReviewRequiredHandler(notifier))
		logger.Info("Lark review notifications enabled", zap.String("chat_id", larkCfg.ReviewChatID))
	} else {
		logger.Info("Lark review notifications disabled")
	}

	// Reasoning service
	prompts, err := openai.LoadPrompts(cfg.OpenAI.PromptsPath)
	if err != nil {
		logger.Fatal("Failed to load prompts", zap.Error(err))
	}

	corpus := knowledge.DefaultCorpus()
	if cfg.Documents.KnowledgePath != "" {
		corpus, err = knowledge.Load(cfg.Documents.KnowledgePath)
		if err != nil {
			logger.Fatal("Failed to load safety handbook", zap.Error(err))
		}
	}
	logger.Info("Safety handbook loaded", zap.Int("sections", corpus.Sections()))

	reasoning, err := openai.NewClient(cfg.ToOpenAIConfig(), prompts, corpus, logger)
	if err != nil {
		logger.Fatal("Failed to initialize reasoning client", zap.Error(err))
	}

	renderer := document.NewRenderer(cfg.ToRendererConfig(), logger)
	exporter := export.NewWorkbookExporter(cfg.ToExportConfig(), logger)

	// Application services
	invoiceSvc := service.NewInvoiceService(renderer, reasoning, poRepo, engine, exporter,
		service.InvoiceServiceConfig{
			Rules:             cfg.ToRules(),
			ExtractionTimeout: cfg.Reasoning.ExtractionTimeout,
		}, logger)

	registry := orchestrator.NewRegistry(orchestrator.NewMaterialPriceTool(time.Now))
	loop := orchestrator.NewLoop(registry, cfg.ToLoopConfig(), logger)

	services := httpapi.Services{
		Invoices:    invoiceSvc,
		Analysis:    service.NewAnalysisService(reasoning, elementRepo, logger),
		Procurement: service.NewProcurementService(reasoning, loop, exporter, eventDispatcher, logger),
		Assistant:   service.NewAssistantService(reasoning, cfg.Reasoning.TurnTimeout, logger),
	}

	server := httpapi.NewServer(cfg.ToServerConfig(), services, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server stopped with error", zap.Error(err))
	}

	logger.Info("Waiting for in-flight extractions")
	invoiceSvc.Wait()
	if err := eventDispatcher.Close(); err != nil {
		logger.Warn("Dispatcher close failed", zap.Error(err))
	}

	logger.Info("Server exited")
}
