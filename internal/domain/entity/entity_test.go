package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractedInvoice_ApplyVerdictOnce(t *testing.T) {
	inv := &ExtractedInvoice{InvoiceID: "INV-2024-001"}

	require.NoError(t, inv.ApplyVerdict(ValidationRequiresHITLApproval, "PO not found in database. Unplanned expense."))
	assert.True(t, inv.RequiresReview())

	err := inv.ApplyVerdict(ValidationValid, "Matched with PO.")
	assert.ErrorIs(t, err, ErrVerdictAlreadyApplied)
	assert.Equal(t, ValidationRequiresHITLApproval, inv.ValidationStatus, "verdict must not revert automatically")
	assert.Equal(t, "PO not found in database. Unplanned expense.", inv.DiscrepancyNote)
}

func TestTranscript_AppendKeepsOrder(t *testing.T) {
	greeting := ChatMessage{Role: RoleModel, Content: "hello", Timestamp: time.Unix(0, 0)}
	tr := NewTranscript(greeting)

	tr.Append(ChatMessage{Role: RoleUser, Content: "first"})
	tr.Append(ChatMessage{Role: RoleModel, Content: "second"})

	msgs := tr.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "first", msgs[1].Content)
	assert.Equal(t, "second", msgs[2].Content)

	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, "second", last.Content)
}

func TestTranscript_MessagesReturnsCopy(t *testing.T) {
	tr := NewTranscript()
	tr.Append(ChatMessage{Role: RoleUser, Content: "original"})

	msgs := tr.Messages()
	msgs[0].Content = "tampered"

	assert.Equal(t, "original", tr.Messages()[0].Content)
	assert.Equal(t, 1, tr.Len())
}

func TestTranscript_LastOnEmpty(t *testing.T) {
	_, ok := NewTranscript().Last()
	assert.False(t, ok)
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc := &Document{
		ID: "doc-1",
		Invoice: &ExtractedInvoice{
			InvoiceID: "INV-1",
			Items:     []LineItem{{Description: "Rebar", Quantity: 10}},
		},
	}

	cp := doc.Clone()
	cp.Invoice.Items[0].Quantity = 99
	cp.Invoice.InvoiceID = "changed"

	assert.Equal(t, float64(10), doc.Invoice.Items[0].Quantity)
	assert.Equal(t, "INV-1", doc.Invoice.InvoiceID)
	assert.Nil(t, (*Document)(nil).Clone())
}
