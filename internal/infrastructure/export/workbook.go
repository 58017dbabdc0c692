package export

import (
	"fmt"
	"math"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	voucherSheet = "GL Posting"
	draftSheet   = "Purchase Order"

	// journal lines start below the voucher header block
	journalHeaderRow = 12
)

// Config holds the static values printed on exported workbooks
type Config struct {
	CompanyName     string
	PayableAccount  string
	DefaultCurrency string
}

// WorkbookExporter renders GL posting vouchers and draft purchase orders as xlsx
type WorkbookExporter struct {
	cfg    Config
	logger *zap.Logger
}

// NewWorkbookExporter creates a new workbook exporter
func NewWorkbookExporter(cfg Config, logger *zap.Logger) *WorkbookExporter {
	if cfg.PayableAccount == "" {
		cfg.PayableAccount = "2000-Accounts Payable"
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "USD"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkbookExporter{cfg: cfg, logger: logger}
}

// JournalLine is one debit or credit of a voucher
type JournalLine struct {
	Account     string
	Description string
	Debit       float64
	Credit      float64
}

// JournalLines debits each line item to its GL account and credits the payable account with the total.
// Invoices without items debit the total to the invoice's GL account.
func (e *WorkbookExporter) JournalLines(inv *entity.ExtractedInvoice) []JournalLine {
	var lines []JournalLine
	for _, item := range inv.Items {
		account := item.GLAccount
		if account == "" {
			account = inv.GLAccountCode
		}
		lines = append(lines, JournalLine{Account: account, Description: item.Description, Debit: round2(item.Total)})
	}

	debits := 0.0
	for _, l := range lines {
		debits += l.Debit
	}
	if len(lines) == 0 || math.Abs(debits-inv.TotalAmount) >= 0.005 {
		// Item totals that do not add up are replaced by a single debit of the invoice total
		lines = []JournalLine{{Account: inv.GLAccountCode, Description: inv.VendorName, Debit: round2(inv.TotalAmount)}}
	}

	lines = append(lines, JournalLine{
		Account:     e.cfg.PayableAccount,
		Description: inv.VendorName,
		Credit:      round2(inv.TotalAmount),
	})
	return lines
}

// InvoiceVoucher renders the GL posting voucher of an approved document
func (e *WorkbookExporter) InvoiceVoucher(doc *entity.Document) ([]byte, error) {
	if doc == nil || doc.Invoice == nil {
		return nil, fmt.Errorf("document has no extracted invoice")
	}
	inv := doc.Invoice

	f, err := e.newWorkbook(voucherSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := [][2]interface{}{
		{"Company", e.cfg.CompanyName},
		{"Voucher No.", "JV-" + inv.InvoiceID},
		{"Document ID", doc.ID},
		{"Invoice ID", inv.InvoiceID},
		{"Vendor", inv.VendorName},
		{"Invoice Date", inv.Date},
		{"Currency", e.currency(inv.Currency)},
		{"Validation", string(inv.ValidationStatus)},
		{"Decision", string(doc.Decision)},
		{"Approved By", doc.DecidedBy},
	}
	for i, kv := range header {
		e.setRow(f, voucherSheet, i+1, kv[0], kv[1])
	}
	e.setRow(f, voucherSheet, len(header)+1, "Note", inv.DiscrepancyNote)

	e.setRow(f, voucherSheet, journalHeaderRow, "Account", "Description", "Debit", "Credit")
	if err := e.boldRow(f, voucherSheet, journalHeaderRow, 4); err != nil {
		return nil, err
	}

	lines := e.JournalLines(inv)
	row := journalHeaderRow + 1
	for _, l := range lines {
		e.setRow(f, voucherSheet, row, l.Account, l.Description, l.Debit, l.Credit)
		row++
	}

	e.setRow(f, voucherSheet, row, "Total")
	last := row - 1
	if err := f.SetCellFormula(voucherSheet, cell("C", row), fmt.Sprintf("SUM(C%d:C%d)", journalHeaderRow+1, last)); err != nil {
		return nil, fmt.Errorf("failed to set debit total: %w", err)
	}
	if err := f.SetCellFormula(voucherSheet, cell("D", row), fmt.Sprintf("SUM(D%d:D%d)", journalHeaderRow+1, last)); err != nil {
		return nil, fmt.Errorf("failed to set credit total: %w", err)
	}

	data, err := e.write(f)
	if err != nil {
		return nil, err
	}

	e.logger.Info("GL posting voucher exported",
		zap.String("document_id", doc.ID),
		zap.String("invoice_id", inv.InvoiceID),
		zap.Int("journal_lines", len(lines)))
	return data, nil
}

// DraftPurchaseOrder renders a draft PO produced by a procurement chat
func (e *WorkbookExporter) DraftPurchaseOrder(draft *entity.DraftPurchaseOrder) ([]byte, error) {
	if draft == nil {
		return nil, fmt.Errorf("draft purchase order is nil")
	}

	f, err := e.newWorkbook(draftSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	e.setRow(f, draftSheet, 1, "DRAFT PURCHASE ORDER")
	e.setRow(f, draftSheet, 2, "Company", e.cfg.CompanyName)
	e.setRow(f, draftSheet, 3, "Reference", draft.InvoiceID)
	e.setRow(f, draftSheet, 4, "Vendor", draft.VendorName)
	e.setRow(f, draftSheet, 5, "Date", draft.Date)
	e.setRow(f, draftSheet, 6, "Currency", e.currency(draft.Currency))

	const itemHeaderRow = 8
	e.setRow(f, draftSheet, itemHeaderRow, "Description", "Quantity", "Unit Price", "Total")
	if err := e.boldRow(f, draftSheet, itemHeaderRow, 4); err != nil {
		return nil, err
	}

	row := itemHeaderRow + 1
	for _, item := range draft.Items {
		e.setRow(f, draftSheet, row, item.Description, item.Quantity, item.UnitPrice, item.Total)
		row++
	}
	e.setRow(f, draftSheet, row, "Total Amount", nil, nil, draft.TotalAmount)

	data, err := e.write(f)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Draft purchase order exported",
		zap.String("reference", draft.InvoiceID),
		zap.Int("items", len(draft.Items)))
	return data, nil
}

func (e *WorkbookExporter) newWorkbook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	return f, nil
}

// setRow writes values from column A onward; nil leaves a cell empty
func (e *WorkbookExporter) setRow(f *excelize.File, sheet string, row int, values ...interface{}) {
	for i, v := range values {
		if v == nil {
			continue
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetCellValue(sheet, cell(col, row), v); err != nil {
			e.logger.Warn("Failed to set cell value",
				zap.String("sheet", sheet),
				zap.String("cell", cell(col, row)),
				zap.Error(err))
		}
	}
}

func (e *WorkbookExporter) boldRow(f *excelize.File, sheet string, row, cols int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(cols)
	return f.SetCellStyle(sheet, cell("A", row), cell(lastCol, row), style)
}

func (e *WorkbookExporter) write(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *WorkbookExporter) currency(c string) string {
	if c == "" {
		return e.cfg.DefaultCurrency
	}
	return c
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ port.WorkbookExporter = (*WorkbookExporter)(nil)
