package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/service"
	"github.com/ayifakhri-cell/ERP-Construction/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	services       Services
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, maxUploadBytes int64, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		services:       services,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// DecisionRequest is the body of approve and reject calls
type DecisionRequest struct {
	Actor      string `json:"actor"`
	Comment    string `json:"comment"`
	DocumentID string `json:"document_id"`
}

// QuestionRequest carries a natural language analysis question
type QuestionRequest struct {
	Question string `json:"question" binding:"required"`
}

// MessageRequest carries one chat message
type MessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// UploadInvoice handles POST /api/workspaces/:workspace/invoice
func (h *Handlers) UploadInvoice(c *gin.Context) {
	workspace := c.Param("workspace")

	file, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, "multipart field 'file' is required")
		return
	}
	if file.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, Response{
			Success: false,
			Error:   fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes),
		})
		return
	}

	f, err := file.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes))
	if err != nil {
		h.fail(c, err)
		return
	}

	doc, err := h.services.Invoices.Upload(c.Request.Context(), workspace, service.Upload{
		FileName: utils.SanitizeFileName(file.Filename),
		Data:     data,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("Invoice uploaded",
		zap.String("workspace", workspace),
		zap.String("document_id", doc.ID),
		zap.String("file_name", doc.FileName))

	c.JSON(http.StatusAccepted, Response{Success: true, Data: doc})
}

// GetInvoice handles GET /api/workspaces/:workspace/invoice
func (h *Handlers) GetInvoice(c *gin.Context) {
	doc, err := h.services.Invoices.Current(c.Request.Context(), c.Param("workspace"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// ApproveInvoice handles POST /api/workspaces/:workspace/invoice/approve
func (h *Handlers) ApproveInvoice(c *gin.Context) {
	decision, ok := h.bindDecision(c)
	if !ok {
		return
	}
	doc, err := h.services.Invoices.Approve(c.Request.Context(), c.Param("workspace"), decision)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// RejectInvoice handles POST /api/workspaces/:workspace/invoice/reject
func (h *Handlers) RejectInvoice(c *gin.Context) {
	decision, ok := h.bindDecision(c)
	if !ok {
		return
	}
	doc, err := h.services.Invoices.Reject(c.Request.Context(), c.Param("workspace"), decision)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// InvoiceHistory handles GET /api/workspaces/:workspace/invoice/history
func (h *Handlers) InvoiceHistory(c *gin.Context) {
	records, err := h.services.Invoices.History(c.Request.Context(), c.Param("workspace"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// DownloadVoucher handles GET /api/workspaces/:workspace/invoice/voucher
func (h *Handlers) DownloadVoucher(c *gin.Context) {
	doc, data, err := h.services.Invoices.Voucher(c.Request.Context(), c.Param("workspace"))
	if err != nil {
		h.fail(c, err)
		return
	}
	name := "voucher-" + doc.ID + ".xlsx"
	if doc.Invoice != nil && doc.Invoice.InvoiceID != "" {
		name = "voucher-" + doc.Invoice.InvoiceID + ".xlsx"
	}
	h.attachment(c, name, data)
}

// GenerateQuery handles POST /api/analysis/query
func (h *Handlers) GenerateQuery(c *gin.Context) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "field 'question' is required")
		return
	}
	query, err := h.services.Analysis.GenerateQuery(c.Request.Context(), req.Question)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: query})
}

// ListElements handles GET /api/bim/elements
func (h *Handlers) ListElements(c *gin.Context) {
	elements, err := h.services.Analysis.Elements(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: elements})
}

// ElementSummary handles GET /api/bim/summary
func (h *Handlers) ElementSummary(c *gin.Context) {
	summary, err := h.services.Analysis.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// CreateProcurementSession handles POST /api/procurement/sessions
func (h *Handlers) CreateProcurementSession(c *gin.Context) {
	session, err := h.services.Procurement.CreateSession(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: session})
}

// GetProcurementSession handles GET /api/procurement/sessions/:id
func (h *Handlers) GetProcurementSession(c *gin.Context) {
	session, err := h.services.Procurement.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: session})
}

// SendProcurementMessage handles POST /api/procurement/sessions/:id/messages
func (h *Handlers) SendProcurementMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "field 'text' is required")
		return
	}
	turn, err := h.services.Procurement.SendMessage(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: turn})
}

// DownloadDraft handles GET /api/procurement/sessions/:id/draft
func (h *Handlers) DownloadDraft(c *gin.Context) {
	id := c.Param("id")
	data, err := h.services.Procurement.DraftWorkbook(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.attachment(c, "draft-po-"+id+".xlsx", data)
}

// CreateConversation handles POST /api/assistant/conversations
func (h *Handlers) CreateConversation(c *gin.Context) {
	conv, err := h.services.Assistant.CreateConversation(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: conv})
}

// GetConversation handles GET /api/assistant/conversations/:id
func (h *Handlers) GetConversation(c *gin.Context) {
	conv, err := h.services.Assistant.Conversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: conv})
}

// AskAssistant handles POST /api/assistant/conversations/:id/messages
func (h *Handlers) AskAssistant(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "field 'text' is required")
		return
	}
	conv, err := h.services.Assistant.Ask(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: conv})
}

// bindDecision accepts an empty body as an anonymous decision
func (h *Handlers) bindDecision(c *gin.Context) (service.ReviewDecision, bool) {
	var req DecisionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "invalid decision body")
			return service.ReviewDecision{}, false
		}
	}
	return service.ReviewDecision{
		Actor:      utils.SanitizeString(req.Actor),
		Comment:    utils.SanitizeString(req.Comment),
		DocumentID: req.DocumentID,
	}, true
}

// validWorkspace rejects malformed workspace path parameters
func (h *Handlers) validWorkspace(c *gin.Context) {
	if err := utils.ValidateWorkspace(c.Param("workspace")); err != nil {
		h.badRequest(c, "invalid workspace name")
		c.Abort()
		return
	}
	c.Next()
}

func (h *Handlers) attachment(c *gin.Context, name string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *Handlers) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: message})
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status, message := mapError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	} else {
		h.logger.Debug("Request rejected",
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, Response{Success: false, Error: message})
}
