package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/application/workflow"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/reconcile"
	domainwf "github.com/ayifakhri-cell/ERP-Construction/internal/domain/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// User-facing failure reasons recorded on documents in ERROR
const (
	ReasonUnreadable  = "Could not read the invoice. Please upload a clearer document."
	ReasonUnavailable = "Extraction service unavailable. Please try again."
	ReasonLookup      = "Purchase order lookup failed. Please try again."
)

// Upload is a file received for extraction
type Upload struct {
	FileName string
	Data     []byte
}

// ReviewDecision is a human approve or reject action
type ReviewDecision struct {
	Actor   string
	Comment string
	// DocumentID, when set, must match the active document
	DocumentID string
}

// InvoiceService runs invoice extraction, reconciliation and human review per workspace
type InvoiceService interface {
	// Upload replaces the workspace's active document and starts extraction in the background
	Upload(ctx context.Context, workspace string, upload Upload) (*entity.Document, error)
	Current(ctx context.Context, workspace string) (*entity.Document, error)
	Approve(ctx context.Context, workspace string, decision ReviewDecision) (*entity.Document, error)
	Reject(ctx context.Context, workspace string, decision ReviewDecision) (*entity.Document, error)
	History(ctx context.Context, workspace string) ([]*entity.TransitionRecord, error)
	// Voucher renders the GL posting workbook of an approved invoice
	Voucher(ctx context.Context, workspace string) (*entity.Document, []byte, error)
	// Wait blocks until background extractions finish
	Wait()
}

// InvoiceServiceConfig tunes extraction
type InvoiceServiceConfig struct {
	Rules             reconcile.Rules
	ExtractionTimeout time.Duration
}

type workspaceSlot struct {
	mu  sync.Mutex
	doc *entity.Document
}

type invoiceServiceImpl struct {
	renderer  port.DocumentRenderer
	extractor port.InvoiceExtractor
	poRepo    port.PurchaseOrderRepository
	engine    workflow.WorkflowEngine
	exporter  port.WorkbookExporter
	cfg       InvoiceServiceConfig
	logger    *zap.Logger

	mu    sync.Mutex
	slots map[string]*workspaceSlot
	wg    sync.WaitGroup
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	renderer port.DocumentRenderer,
	extractor port.InvoiceExtractor,
	poRepo port.PurchaseOrderRepository,
	engine workflow.WorkflowEngine,
	exporter port.WorkbookExporter,
	cfg InvoiceServiceConfig,
	logger *zap.Logger,
) InvoiceService {
	if cfg.Rules == (reconcile.Rules{}) {
		cfg.Rules = reconcile.DefaultRules()
	}
	if cfg.ExtractionTimeout <= 0 {
		cfg.ExtractionTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &invoiceServiceImpl{
		renderer:  renderer,
		extractor: extractor,
		poRepo:    poRepo,
		engine:    engine,
		exporter:  exporter,
		cfg:       cfg,
		logger:    logger,
		slots:     make(map[string]*workspaceSlot),
	}
}

func (s *invoiceServiceImpl) slot(workspace string) *workspaceSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[workspace]
	if !ok {
		sl = &workspaceSlot{}
		s.slots[workspace] = sl
	}
	return sl
}

// Upload starts a fresh document. Any previous document of the workspace is dropped
// and a pending extraction for it will be discarded when it returns.
func (s *invoiceServiceImpl) Upload(ctx context.Context, workspace string, upload Upload) (*entity.Document, error) {
	if len(upload.Data) == 0 {
		return nil, ErrEmptyUpload
	}

	attachments, mimeType, renderErr := s.renderer.Render(ctx, upload.FileName, upload.Data)
	if errors.Is(renderErr, port.ErrUnsupportedDocument) {
		return nil, renderErr
	}

	now := time.Now()
	doc := &entity.Document{
		ID:        uuid.NewString(),
		Workspace: workspace,
		FileName:  upload.FileName,
		MIMEType:  mimeType,
		State:     domainwf.StateIdle.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	sl := s.slot(workspace)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if previous := sl.doc; previous != nil && !domainwf.State(previous.State).IsTerminal() {
		s.logger.Info("Discarding in-flight document",
			zap.String("workspace", workspace),
			zap.String("document_id", previous.ID),
			zap.String("state", previous.State))
	}

	if _, err := s.engine.Fire(ctx, doc, domainwf.TriggerUpload, workflow.FireOptions{Note: upload.FileName}); err != nil {
		return nil, fmt.Errorf("failed to start document: %w", err)
	}
	sl.doc = doc

	if renderErr != nil {
		s.logger.Warn("Document rendering failed",
			zap.String("document_id", doc.ID),
			zap.Error(renderErr))
		s.failLocked(ctx, doc, ReasonUnreadable)
		return doc.Clone(), nil
	}

	s.wg.Add(1)
	go s.extract(context.WithoutCancel(ctx), sl, doc.ID, attachments)

	return doc.Clone(), nil
}

// extract runs outside the upload request. Its result only lands if docID is still active.
func (s *invoiceServiceImpl) extract(ctx context.Context, sl *workspaceSlot, docID string, attachments []port.Attachment) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ExtractionTimeout)
	defer cancel()

	start := time.Now()
	invoice, err := s.extractor.ExtractInvoice(ctx, attachments)

	var po *entity.PurchaseOrderRecord
	var lookupErr error
	if err == nil {
		po, lookupErr = s.poRepo.GetByInvoiceID(ctx, strings.TrimSpace(invoice.InvoiceID))
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	doc := sl.doc
	if doc == nil || doc.ID != docID {
		s.logger.Info("Discarding superseded extraction result", zap.String("document_id", docID))
		return
	}

	switch {
	case err != nil:
		s.logger.Error("Invoice extraction failed",
			zap.String("document_id", docID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		s.failLocked(ctx, doc, failureReason(err))
		return
	case lookupErr != nil:
		s.logger.Error("Purchase order lookup failed",
			zap.String("document_id", docID),
			zap.String("invoice_id", invoice.InvoiceID),
			zap.Error(lookupErr))
		s.failLocked(ctx, doc, ReasonLookup)
		return
	}

	lookup := func(string) (entity.PurchaseOrderRecord, bool) {
		if po == nil {
			return entity.PurchaseOrderRecord{}, false
		}
		return *po, true
	}

	verdict := s.cfg.Rules.Reconcile(invoice, lookup)
	if err := invoice.ApplyVerdict(verdict.Status, verdict.Note); err != nil {
		s.logger.Error("Failed to apply verdict", zap.String("document_id", docID), zap.Error(err))
		s.failLocked(ctx, doc, ReasonUnreadable)
		return
	}

	doc.Invoice = invoice
	if _, err := s.engine.Fire(ctx, doc, domainwf.TriggerExtractionSucceeded, workflow.FireOptions{Note: verdict.Note}); err != nil {
		doc.Invoice = nil
		s.logger.Error("Failed to record extraction", zap.String("document_id", docID), zap.Error(err))
		return
	}

	s.logger.Info("Invoice reconciled",
		zap.String("document_id", docID),
		zap.String("invoice_id", invoice.InvoiceID),
		zap.String("status", verdict.Status.String()),
		zap.Float64("confidence", invoice.ConfidenceScore),
		zap.Duration("elapsed", time.Since(start)))
}

// failLocked moves doc to ERROR. The slot lock must be held.
func (s *invoiceServiceImpl) failLocked(ctx context.Context, doc *entity.Document, reason string) {
	doc.FailureReason = reason
	if _, err := s.engine.Fire(ctx, doc, domainwf.TriggerExtractionFailed, workflow.FireOptions{Note: reason}); err != nil {
		s.logger.Error("Failed to record extraction failure", zap.String("document_id", doc.ID), zap.Error(err))
	}
}

func failureReason(err error) string {
	if errors.Is(err, port.ErrMalformedResponse) || errors.Is(err, port.ErrEmptyResponse) {
		return ReasonUnreadable
	}
	return ReasonUnavailable
}

// Current returns a snapshot of the workspace's active document
func (s *invoiceServiceImpl) Current(ctx context.Context, workspace string) (*entity.Document, error) {
	sl := s.slot(workspace)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.doc == nil {
		return nil, ErrNoActiveDocument
	}
	return sl.doc.Clone(), nil
}

// Approve closes review with an approval. Approving a REQUIRES_HITL_APPROVAL
// verdict is recorded as an override.
func (s *invoiceServiceImpl) Approve(ctx context.Context, workspace string, decision ReviewDecision) (*entity.Document, error) {
	sl := s.slot(workspace)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	doc, err := s.decisionTarget(sl, decision)
	if err != nil {
		return nil, err
	}

	opts := workflow.FireOptions{
		Actor:  actorOrDefault(decision.Actor),
		Action: entity.ActionApprove,
		Note:   decision.Comment,
	}
	verdict := entity.DecisionApproved
	if doc.Invoice != nil && doc.Invoice.RequiresReview() {
		verdict = entity.DecisionApprovedOverride
		opts.Action = entity.ActionApproveOverride
		opts.Note = overrideNote(doc.Invoice.DiscrepancyNote, decision.Comment)
	}

	prevDecision, prevActor := doc.Decision, doc.DecidedBy
	doc.Decision, doc.DecidedBy = verdict, opts.Actor
	if _, err := s.engine.Fire(ctx, doc, domainwf.TriggerApprove, opts); err != nil {
		doc.Decision, doc.DecidedBy = prevDecision, prevActor
		return nil, err
	}

	return doc.Clone(), nil
}

// Reject closes review with a rejection recorded on the invoice
func (s *invoiceServiceImpl) Reject(ctx context.Context, workspace string, decision ReviewDecision) (*entity.Document, error) {
	sl := s.slot(workspace)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	doc, err := s.decisionTarget(sl, decision)
	if err != nil {
		return nil, err
	}

	snapshot := doc.Clone()
	actor := actorOrDefault(decision.Actor)
	doc.Decision, doc.DecidedBy = entity.DecisionRejected, actor
	if doc.Invoice != nil {
		doc.Invoice.MarkRejected()
	}

	opts := workflow.FireOptions{Actor: actor, Action: entity.ActionReject, Note: decision.Comment}
	if _, err := s.engine.Fire(ctx, doc, domainwf.TriggerReject, opts); err != nil {
		*doc = *snapshot
		return nil, err
	}

	return doc.Clone(), nil
}

func (s *invoiceServiceImpl) decisionTarget(sl *workspaceSlot, decision ReviewDecision) (*entity.Document, error) {
	if sl.doc == nil {
		return nil, ErrNoActiveDocument
	}
	if decision.DocumentID != "" && decision.DocumentID != sl.doc.ID {
		return nil, ErrStaleDocument
	}
	return sl.doc, nil
}

// History returns the audit trail of the active document
func (s *invoiceServiceImpl) History(ctx context.Context, workspace string) ([]*entity.TransitionRecord, error) {
	doc, err := s.Current(ctx, workspace)
	if err != nil {
		return nil, err
	}
	return s.engine.History(ctx, doc.ID)
}

// Voucher renders the GL posting workbook of the approved active document
func (s *invoiceServiceImpl) Voucher(ctx context.Context, workspace string) (*entity.Document, []byte, error) {
	doc, err := s.Current(ctx, workspace)
	if err != nil {
		return nil, nil, err
	}
	if doc.State != domainwf.StateSuccess.String() || doc.Invoice == nil {
		return nil, nil, ErrVoucherUnavailable
	}

	data, err := s.exporter.InvoiceVoucher(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render voucher: %w", err)
	}
	return doc, data, nil
}

// Wait blocks until background extractions finish
func (s *invoiceServiceImpl) Wait() {
	s.wg.Wait()
}

func actorOrDefault(actor string) string {
	if strings.TrimSpace(actor) == "" {
		return entity.ActorHuman
	}
	return strings.TrimSpace(actor)
}

func overrideNote(discrepancy, comment string) string {
	note := "Override: " + discrepancy
	if comment != "" {
		note += " Reviewer comment: " + comment
	}
	return note
}
