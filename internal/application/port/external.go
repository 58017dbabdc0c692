package port

import (
	"context"

	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
)

// Attachment is one inline binary part sent to the reasoning service
type Attachment struct {
	MIMEType string
	Data     []byte
}

// InvoiceExtractor turns document images into a structured invoice.
// Missing required fields are reported in ExtractedInvoice.MissingFields;
// payloads that do not parse return an error wrapping ErrMalformedResponse.
type InvoiceExtractor interface {
	ExtractInvoice(ctx context.Context, attachments []Attachment) (*entity.ExtractedInvoice, error)
}

// QueryGenerator translates a natural-language question into SQL over a described schema
type QueryGenerator interface {
	GenerateQuery(ctx context.Context, question, schemaDescription string) (*entity.AnalysisQuery, error)
}

// KnowledgeQuerier answers a question using only the grounding corpus
type KnowledgeQuerier interface {
	QueryKnowledge(ctx context.Context, question string) (string, error)
}

// DocumentRenderer converts an uploaded file into attachments the extractor accepts
type DocumentRenderer interface {
	Render(ctx context.Context, fileName string, data []byte) ([]Attachment, string, error)
}

// ReviewNotifier tells reviewers that a document needs a human decision
type ReviewNotifier interface {
	NotifyReviewRequired(ctx context.Context, doc *entity.Document) error
}

// WorkbookExporter renders spreadsheets for approved invoices and draft purchase orders
type WorkbookExporter interface {
	InvoiceVoucher(doc *entity.Document) ([]byte, error)
	DraftPurchaseOrder(draft *entity.DraftPurchaseOrder) ([]byte, error)
}
