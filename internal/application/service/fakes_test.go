package service

import (
	"context"
	"errors"
	"sync"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
)

type fakeRenderer struct {
	err error
}

func (f *fakeRenderer) Render(ctx context.Context, fileName string, data []byte) ([]port.Attachment, string, error) {
	if f.err != nil {
		if errors.Is(f.err, port.ErrUnsupportedDocument) {
			return nil, "", f.err
		}
		return nil, "application/pdf", f.err
	}
	return []port.Attachment{{MIMEType: "image/png", Data: data}}, "image/png", nil
}

type fakeExtractor struct {
	extractFunc func(ctx context.Context, attachments []port.Attachment) (*entity.ExtractedInvoice, error)
}

func (f *fakeExtractor) ExtractInvoice(ctx context.Context, attachments []port.Attachment) (*entity.ExtractedInvoice, error) {
	return f.extractFunc(ctx, attachments)
}

func returning(inv entity.ExtractedInvoice) *fakeExtractor {
	return &fakeExtractor{extractFunc: func(ctx context.Context, _ []port.Attachment) (*entity.ExtractedInvoice, error) {
		cp := inv
		return &cp, nil
	}}
}

type fakePORepo struct {
	records map[string]entity.PurchaseOrderRecord
	err     error
}

func (f *fakePORepo) GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.PurchaseOrderRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	po, ok := f.records[invoiceID]
	if !ok {
		return nil, nil
	}
	return &po, nil
}

func (f *fakePORepo) List(ctx context.Context) ([]*entity.PurchaseOrderRecord, error) {
	var out []*entity.PurchaseOrderRecord
	for _, po := range f.records {
		po := po
		out = append(out, &po)
	}
	return out, nil
}

func seededPOs() *fakePORepo {
	return &fakePORepo{records: map[string]entity.PurchaseOrderRecord{
		"INV-2024-001": {InvoiceID: "INV-2024-001", ExpectedAmount: 1500.00, Status: "ISSUED"},
		"INV-2024-002": {InvoiceID: "INV-2024-002", ExpectedAmount: 4200.50, Status: "ISSUED"},
	}}
}

type fakeTransitions struct {
	mu      sync.Mutex
	records []*entity.TransitionRecord
}

func (f *fakeTransitions) Create(ctx context.Context, record *entity.TransitionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record.ID = int64(len(f.records) + 1)
	f.records = append(f.records, record)
	return nil
}

func (f *fakeTransitions) GetByDocumentID(ctx context.Context, documentID string) ([]*entity.TransitionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.TransitionRecord
	for _, r := range f.records {
		if r.DocumentID == documentID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeTx struct{}

func (fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeExporter struct {
	voucherDoc *entity.Document
	draft      *entity.DraftPurchaseOrder
}

func (f *fakeExporter) InvoiceVoucher(doc *entity.Document) ([]byte, error) {
	f.voucherDoc = doc
	return []byte("voucher"), nil
}

func (f *fakeExporter) DraftPurchaseOrder(draft *entity.DraftPurchaseOrder) ([]byte, error) {
	f.draft = draft
	return []byte("draft"), nil
}
