package lark

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	receiveIDType, receiveID, msgType, content string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentMessage{receiveIDType, receiveID, msgType, content})
	return "om_1", nil
}

func reviewDocument() *entity.Document {
	return &entity.Document{
		ID:        "doc-1",
		Workspace: "site-a",
		Invoice: &entity.ExtractedInvoice{
			InvoiceID:       "INV-2024-002",
			VendorName:      "SteelCo",
			TotalAmount:     4800.5,
			Currency:        "USD",
			ConfidenceScore: 0.95,
			DiscrepancyNote: "Amount discrepancy > $500. Expected: 4200.5, Scanned: 4800.5",
		},
	}
}

func TestReviewNotifier_SendsTextToChat(t *testing.T) {
	sender := &fakeSender{}
	n := NewReviewNotifier(sender, "oc_review", nil)

	require.NoError(t, n.NotifyReviewRequired(context.Background(), reviewDocument()))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "chat_id", msg.receiveIDType)
	assert.Equal(t, "oc_review", msg.receiveID)
	assert.Equal(t, "text", msg.msgType)

	var content map[string]string
	require.NoError(t, json.Unmarshal([]byte(msg.content), &content))
	assert.Contains(t, content["text"], "INV-2024-002 (SteelCo)")
	assert.Contains(t, content["text"], "Amount: 4800.50 USD")
	assert.Contains(t, content["text"], "Confidence: 95%")
	assert.Contains(t, content["text"], "Reason: Amount discrepancy > $500")
}

func TestReviewNotifier_Errors(t *testing.T) {
	n := NewReviewNotifier(&fakeSender{err: errors.New("code=99991663")}, "oc_review", nil)
	assert.ErrorContains(t, n.NotifyReviewRequired(context.Background(), reviewDocument()), "code=99991663")

	assert.Error(t, n.NotifyReviewRequired(context.Background(), &entity.Document{ID: "doc-2"}))
}

func TestReviewRequiredHandler(t *testing.T) {
	sender := &fakeSender{}
	handler := ReviewRequiredHandler(NewReviewNotifier(sender, "oc_review", nil))

	evt := event.NewEvent(event.TypeReviewRequired, "doc-1", "site-a", map[string]interface{}{
		"document": reviewDocument(),
	})
	require.NoError(t, handler(context.Background(), evt))
	assert.Len(t, sender.sent, 1)

	bad := event.NewEvent(event.TypeReviewRequired, "doc-1", "site-a", nil)
	assert.Error(t, handler(context.Background(), bad))
}

func TestConfig_Enabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.False(t, Config{AppID: "a", AppSecret: "s"}.Enabled())
	assert.True(t, Config{AppID: "a", AppSecret: "s", ReviewChatID: "oc"}.Enabled())
}
