package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/service"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/workflow"
	"github.com/ayifakhri-cell/ERP-Construction/internal/infrastructure/external/lark"
	"github.com/ayifakhri-cell/ERP-Construction/internal/infrastructure/external/openai"
	"github.com/ayifakhri-cell/ERP-Construction/internal/infrastructure/knowledge"
)

func main() {
	model := flag.String("model", "gpt-4o", "Model name")
	baseURL := flag.String("base-url", "", "Override API base URL (or set OPENAI_BASE_URL)")
	question := flag.String("question", "Total cost of all concrete walls", "Analysis question to send")
	timeout := flag.Duration("timeout", 30*time.Second, "API call timeout")
	notify := flag.Bool("notify", false, "Also send a sample review alert through Lark")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "ERROR: failed to load .env: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		fmt.Fprintf(os.Stderr, "ERROR: OPENAI_API_KEY not set\n")
		fmt.Fprintf(os.Stderr, "Usage: reasoning-check [--model gpt-4o] [--question ...] [--timeout 30s] [--notify]\n")
		os.Exit(1)
	}
	if *baseURL == "" {
		*baseURL = os.Getenv("OPENAI_BASE_URL")
	}

	fmt.Println("=== Reasoning Service Check ===")

	prompts, err := openai.DefaultPrompts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to load prompts: %v\n", err)
		os.Exit(1)
	}

	client, err := openai.NewClient(openai.Config{
		APIKey:  apiKey,
		BaseURL: *baseURL,
		Model:   *model,
		Timeout: *timeout,
	}, prompts, knowledge.DefaultCorpus(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("Model: %s\nQuestion: %s\n\n", *model, *question)

	start := time.Now()
	query, err := client.GenerateQuery(ctx, *question, service.ElementSchemaDescription)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAILED: query generation: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "Possible causes:\n")
		fmt.Fprintf(os.Stderr, "  1. Invalid or expired OPENAI_API_KEY\n")
		fmt.Fprintf(os.Stderr, "  2. Model does not support structured outputs\n")
		fmt.Fprintf(os.Stderr, "  3. Network connectivity issue\n")
		os.Exit(1)
	}
	fmt.Printf("Query generated in %v\n", time.Since(start))
	out, _ := json.MarshalIndent(query, "", "  ")
	fmt.Println(string(out))

	start = time.Now()
	answer, err := client.QueryKnowledge(ctx, "What PPE is required on site?")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAILED: grounded query: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nGrounded answer in %v:\n%s\n", time.Since(start), answer)

	if *notify {
		if err := sendSampleAlert(ctx, logger); err != nil {
			fmt.Fprintf(os.Stderr, "FAILED: lark notification: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("\nSample review alert sent")
	}

	fmt.Println("\nReasoning service check PASSED")
}

func sendSampleAlert(ctx context.Context, logger *zap.Logger) error {
	cfg := lark.Config{
		AppID:        os.Getenv("LARK_APP_ID"),
		AppSecret:    os.Getenv("LARK_APP_SECRET"),
		ReviewChatID: os.Getenv("LARK_REVIEW_CHAT_ID"),
	}
	if !cfg.Enabled() {
		return errors.New("LARK_APP_ID, LARK_APP_SECRET and LARK_REVIEW_CHAT_ID must be set")
	}

	doc := &entity.Document{
		ID:        "reasoning-check",
		Workspace: "demo",
		FileName:  "sample-invoice.pdf",
		State:     string(workflow.StateAwaitingApproval),
		Invoice: &entity.ExtractedInvoice{
			InvoiceID:        "INV-2024-001",
			VendorName:       "Sample Supplies",
			TotalAmount:      1650,
			Currency:         "USD",
			ValidationStatus: entity.ValidationRequiresHITLApproval,
			DiscrepancyNote:  "Amount discrepancy > $500. Expected: 1500, Scanned: 1650",
		},
	}
	return lark.NewReviewNotifierFromConfig(cfg, logger).NotifyReviewRequired(ctx, doc)
}
