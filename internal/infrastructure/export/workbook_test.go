package export

import (
	"bytes"
	"testing"

	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func approvedDocument() *entity.Document {
	return &entity.Document{
		ID:        "doc-1",
		State:     "SUCCESS",
		Decision:  entity.DecisionApproved,
		DecidedBy: "alice",
		Invoice: &entity.ExtractedInvoice{
			InvoiceID:        "INV-2024-001",
			VendorName:       "BuildMart",
			Date:             "2024-03-01",
			TotalAmount:      1500,
			GLAccountCode:    "5000-Materials",
			ValidationStatus: entity.ValidationValid,
			DiscrepancyNote:  "Matched with PO.",
			Items: []entity.LineItem{
				{Description: "Rebar", Quantity: 100, UnitPrice: 12, Total: 1200, GLAccount: "5000-Materials"},
				{Description: "Delivery", Quantity: 1, UnitPrice: 300, Total: 300, GLAccount: "6000-Services"},
			},
		},
	}
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestJournalLines(t *testing.T) {
	e := NewWorkbookExporter(Config{}, nil)

	tests := []struct {
		name string
		inv  *entity.ExtractedInvoice
		want []JournalLine
	}{
		{
			name: "one debit per item",
			inv:  approvedDocument().Invoice,
			want: []JournalLine{
				{Account: "5000-Materials", Description: "Rebar", Debit: 1200},
				{Account: "6000-Services", Description: "Delivery", Debit: 300},
				{Account: "2000-Accounts Payable", Description: "BuildMart", Credit: 1500},
			},
		},
		{
			name: "no items",
			inv:  &entity.ExtractedInvoice{VendorName: "V", TotalAmount: 99.9, GLAccountCode: "6000-Services"},
			want: []JournalLine{
				{Account: "6000-Services", Description: "V", Debit: 99.9},
				{Account: "2000-Accounts Payable", Description: "V", Credit: 99.9},
			},
		},
		{
			name: "items that do not add up",
			inv: &entity.ExtractedInvoice{VendorName: "V", TotalAmount: 500, GLAccountCode: "5000-Materials",
				Items: []entity.LineItem{{Description: "Cement", Total: 200}}},
			want: []JournalLine{
				{Account: "5000-Materials", Description: "V", Debit: 500},
				{Account: "2000-Accounts Payable", Description: "V", Credit: 500},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.JournalLines(tt.inv))
		})
	}
}

func TestInvoiceVoucher(t *testing.T) {
	e := NewWorkbookExporter(Config{CompanyName: "Project Alpha Builders"}, nil)

	data, err := e.InvoiceVoucher(approvedDocument())
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{voucherSheet}, f.GetSheetList())

	get := func(c string) string {
		v, err := f.GetCellValue(voucherSheet, c)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Project Alpha Builders", get("B1"))
	assert.Equal(t, "JV-INV-2024-001", get("B2"))
	assert.Equal(t, "APPROVED", get("B9"))
	assert.Equal(t, "alice", get("B10"))
	assert.Equal(t, "Matched with PO.", get("B11"))
	assert.Equal(t, "Account", get("A12"))
	assert.Equal(t, "5000-Materials", get("A13"))
	assert.Equal(t, "1200", get("C13"))
	assert.Equal(t, "2000-Accounts Payable", get("A15"))
	assert.Equal(t, "1500", get("D15"))

	formula, err := f.GetCellFormula(voucherSheet, "C16")
	require.NoError(t, err)
	assert.Equal(t, "SUM(C13:C15)", formula)
}

func TestInvoiceVoucher_RequiresInvoice(t *testing.T) {
	_, err := NewWorkbookExporter(Config{}, nil).InvoiceVoucher(&entity.Document{ID: "doc-1"})
	assert.Error(t, err)
}

func TestDraftPurchaseOrder(t *testing.T) {
	e := NewWorkbookExporter(Config{}, nil)

	data, err := e.DraftPurchaseOrder(&entity.DraftPurchaseOrder{
		InvoiceID:   "PO-DRAFT-1",
		VendorName:  "SteelCo",
		TotalAmount: 1250,
		Items:       []entity.LineItem{{Description: "SS_BAR_A", Quantity: 100, UnitPrice: 12.5, Total: 1250}},
	})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	get := func(c string) string {
		v, err := f.GetCellValue(draftSheet, c)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "DRAFT PURCHASE ORDER", get("A1"))
	assert.Equal(t, "SteelCo", get("B4"))
	assert.Equal(t, "USD", get("B6"))
	assert.Equal(t, "SS_BAR_A", get("A9"))
	assert.Equal(t, "12.5", get("C9"))
	assert.Equal(t, "Total Amount", get("A10"))
	assert.Equal(t, "1250", get("D10"))
	assert.Equal(t, "", get("B10"))

	_, err = e.DraftPurchaseOrder(nil)
	assert.Error(t, err)
}
