package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"github.com/go-playground/validator/v10"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
)

// invoicePayload mirrors the extraction schema. Pointers tell an absent field from a zero value.
type invoicePayload struct {
	InvoiceID       *string       `json:"invoiceId" validate:"required"`
	VendorName      *string       `json:"vendorName" validate:"required"`
	Date            string        `json:"date"`
	TotalAmount     *float64      `json:"totalAmount" validate:"required"`
	Currency        string        `json:"currency"`
	GLAccountCode   *string       `json:"glAccountCode" validate:"required"`
	Items           []itemPayload `json:"items" validate:"required,dive"`
	ConfidenceScore *float64      `json:"confidenceScore" validate:"required"`
}

type itemPayload struct {
	Description *string  `json:"description" validate:"required"`
	Quantity    *float64 `json:"quantity" validate:"required"`
	UnitPrice   *float64 `json:"unitPrice" validate:"required"`
	Total       *float64 `json:"total" validate:"required"`
	GLAccount   string   `json:"glAccount"`
}

func (p itemPayload) lineItem() entity.LineItem {
	item := entity.LineItem{GLAccount: p.GLAccount}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.UnitPrice != nil {
		item.UnitPrice = *p.UnitPrice
	}
	if p.Total != nil {
		item.Total = *p.Total
	}
	return item
}

var invoiceSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"invoiceId":  {Type: jsonschema.String, Description: "Unique Invoice Number"},
		"vendorName": {Type: jsonschema.String},
		"date":       {Type: jsonschema.String, Description: "YYYY-MM-DD format"},
		"totalAmount": {
			Type: jsonschema.Number,
		},
		"currency":        {Type: jsonschema.String},
		"glAccountCode":   {Type: jsonschema.String, Description: "Suggested GL Account (e.g., 5000-Materials, 6000-Services)"},
		"confidenceScore": {Type: jsonschema.Number, Description: "Overall confidence 0.0 to 1.0"},
		"items": {
			Type: jsonschema.Array,
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"description": {Type: jsonschema.String},
					"quantity":    {Type: jsonschema.Number},
					"unitPrice":   {Type: jsonschema.Number},
					"total":       {Type: jsonschema.Number},
					"glAccount":   {Type: jsonschema.String},
				},
				Required: []string{"description", "quantity", "unitPrice", "total"},
			},
		},
	},
	Required: []string{"invoiceId", "vendorName", "totalAmount", "glAccountCode", "items", "confidenceScore"},
}

func newPayloadValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldPath names a failed field by its JSON path, e.g. items[0].total
func fieldPath(fe validator.FieldError) string {
	if _, path, ok := strings.Cut(fe.Namespace(), "."); ok {
		return path
	}
	return fe.Field()
}

// ExtractInvoice reads invoice fields from page images with a vision model
func (c *Client) ExtractInvoice(ctx context.Context, attachments []port.Attachment) (*entity.ExtractedInvoice, error) {
	if len(attachments) == 0 {
		return nil, fmt.Errorf("no document pages to extract: %w", port.ErrUnsupportedDocument)
	}

	prompt := c.prompts.InvoiceExtraction
	text, err := renderTemplate(prompt.UserTemplate, map[string]interface{}{"FileCount": len(attachments)})
	if err != nil {
		return nil, err
	}

	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: text}}
	for _, a := range attachments {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: dataURL(a), Detail: openai.ImageURLDetailHigh},
		})
	}

	msg, err := c.complete(ctx, openai.ChatCompletionRequest{
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "extracted_invoice",
				Schema: &invoiceSchema,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	invoice, err := c.parseInvoice(msg.Content)
	if err != nil {
		c.logger.Error("Failed to parse extraction payload", zap.Error(err), zap.String("content", msg.Content))
		return nil, err
	}

	c.logger.Info("Invoice data extracted",
		zap.String("invoice_id", invoice.InvoiceID),
		zap.Float64("total_amount", invoice.TotalAmount),
		zap.Float64("confidence", invoice.ConfidenceScore),
		zap.Strings("missing_fields", invoice.MissingFields))

	return invoice, nil
}

// parseInvoice decodes and validates the payload. Absent required fields are listed in MissingFields.
func (c *Client) parseInvoice(content string) (*entity.ExtractedInvoice, error) {
	content = stripCodeFence(content)
	if content == "" {
		return nil, port.ErrEmptyResponse
	}

	var payload invoicePayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrMalformedResponse, err)
	}

	var missing []string
	if err := c.validate.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("%w: %v", port.ErrMalformedResponse, err)
		}
		for _, fe := range verrs {
			missing = append(missing, fieldPath(fe))
		}
	}

	invoice := &entity.ExtractedInvoice{
		Date:          payload.Date,
		Currency:      payload.Currency,
		MissingFields: missing,
	}
	if payload.Items != nil {
		invoice.Items = make([]entity.LineItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			invoice.Items = append(invoice.Items, item.lineItem())
		}
	}
	if payload.InvoiceID != nil {
		invoice.InvoiceID = *payload.InvoiceID
	}
	if payload.VendorName != nil {
		invoice.VendorName = *payload.VendorName
	}
	if payload.TotalAmount != nil {
		invoice.TotalAmount = *payload.TotalAmount
	}
	if payload.GLAccountCode != nil {
		invoice.GLAccountCode = *payload.GLAccountCode
	}
	if payload.ConfidenceScore != nil {
		invoice.ConfidenceScore = *payload.ConfidenceScore
	}

	return invoice, nil
}
