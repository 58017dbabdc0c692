package http

import (
	"errors"
	"net/http"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/application/service"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/workflow"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

// errorMappings translate service errors to user-facing responses, first match wins
var errorMappings = []errorMapping{
	{service.ErrNoActiveDocument, http.StatusNotFound, "No invoice has been uploaded in this workspace."},
	{service.ErrSessionNotFound, http.StatusNotFound, "Session not found."},
	{service.ErrStaleDocument, http.StatusConflict, "This invoice was replaced by a newer upload. Refresh and try again."},
	{service.ErrTurnInFlight, http.StatusConflict, "Please wait for the current answer before sending another message."},
	{service.ErrVoucherUnavailable, http.StatusConflict, "The voucher is available once the invoice is approved."},
	{service.ErrNoDraft, http.StatusConflict, "No draft purchase order has been produced in this session yet."},
	{workflow.ErrTerminalState, http.StatusConflict, "This invoice has already been closed."},
	{workflow.ErrInvalidTransition, http.StatusConflict, "This action is not available while the invoice is in its current state."},
	{workflow.ErrGuardFailed, http.StatusConflict, "This action is not available while the invoice is in its current state."},
	{service.ErrEmptyUpload, http.StatusBadRequest, "The uploaded file is empty."},
	{service.ErrEmptyMessage, http.StatusBadRequest, "Message cannot be empty."},
	{port.ErrUnsupportedDocument, http.StatusUnsupportedMediaType, "Unsupported file. Upload a PDF, PNG, JPEG or WEBP invoice."},
}

// mapError returns the status and message for err. Unknown errors are reported generically.
func mapError(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "Something went wrong. Please try again."
}
