package lark

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/dispatcher"
	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/event"
	"go.uber.org/zap"
)

// ReviewNotifier alerts the reviewer group when an invoice needs a human decision
type ReviewNotifier struct {
	sender MessageSender
	chatID string
	logger *zap.Logger
}

// NewReviewNotifier creates a notifier posting into chatID
func NewReviewNotifier(sender MessageSender, chatID string, logger *zap.Logger) *ReviewNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewNotifier{sender: sender, chatID: chatID, logger: logger}
}

// NotifyReviewRequired posts the document's discrepancy to the review chat
func (n *ReviewNotifier) NotifyReviewRequired(ctx context.Context, doc *entity.Document) error {
	if doc == nil || doc.Invoice == nil {
		return fmt.Errorf("document has no extracted invoice")
	}

	content, err := textContent(ReviewMessage(doc))
	if err != nil {
		return err
	}

	messageID, err := n.sender.SendMessage(ctx, "chat_id", n.chatID, "text", content)
	if err != nil {
		return fmt.Errorf("failed to notify reviewers: %w", err)
	}

	n.logger.Info("Review notification sent",
		zap.String("document_id", doc.ID),
		zap.String("invoice_id", doc.Invoice.InvoiceID),
		zap.String("message_id", messageID))
	return nil
}

// ReviewMessage renders the alert text
func ReviewMessage(doc *entity.Document) string {
	inv := doc.Invoice
	var b strings.Builder
	b.WriteString("Invoice requires review\n")
	fmt.Fprintf(&b, "Workspace: %s\n", doc.Workspace)
	fmt.Fprintf(&b, "Invoice: %s (%s)\n", inv.InvoiceID, inv.VendorName)
	fmt.Fprintf(&b, "Amount: %s %s\n", strconv.FormatFloat(inv.TotalAmount, 'f', 2, 64), inv.Currency)
	fmt.Fprintf(&b, "Confidence: %.0f%%\n", inv.ConfidenceScore*100)
	fmt.Fprintf(&b, "Reason: %s", inv.DiscrepancyNote)
	return b.String()
}

// ReviewRequiredHandler forwards review_required events to a notifier
func ReviewRequiredHandler(notifier port.ReviewNotifier) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		doc, ok := evt.Document()
		if !ok {
			return fmt.Errorf("event %s has no document payload", evt.ID)
		}
		return notifier.NotifyReviewRequired(ctx, doc)
	}
}

var (
	_ port.ReviewNotifier = (*ReviewNotifier)(nil)
	_ MessageSender       = (*Messenger)(nil)
)
