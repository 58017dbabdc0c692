package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
)

// ErrUnknownTool is returned when the reasoning service asks for a tool that is not registered
var ErrUnknownTool = errors.New("unknown tool")

// ToolFunc executes a tool with the raw JSON arguments sent by the reasoning service
type ToolFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Tool couples a declaration with its implementation
type Tool struct {
	Declaration port.ToolDeclaration
	Run         ToolFunc
	// Summary renders the transcript line for a successful result
	Summary func(result any) string
}

// Registry is the closed set of tools a session may call
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry. Later tools replace earlier ones with the same name.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Declaration.Name
		if _, exists := r.tools[name]; !exists {
			r.order = append(r.order, name)
		}
		r.tools[name] = t
	}
	return r
}

// Declarations returns the tool declarations in registration order
func (r *Registry) Declarations() []port.ToolDeclaration {
	decls := make([]port.ToolDeclaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].Declaration)
	}
	return decls
}

// Dispatch runs the named tool and returns its JSON-encoded result plus a transcript summary
func (r *Registry) Dispatch(ctx context.Context, call port.ToolCall) (json.RawMessage, string, error) {
	tool, ok := r.tools[call.Name]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}

	result, err := tool.Run(ctx, call.Args)
	if err != nil {
		return nil, "", err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode %s result: %w", call.Name, err)
	}

	summary := "Tool returned a result."
	if tool.Summary != nil {
		summary = tool.Summary(result)
	}
	return encoded, summary, nil
}

// MaterialPriceTool is the name of the material price lookup
const MaterialPriceTool = "check_material_price"

// PriceQuote is the result of a material price lookup
type PriceQuote struct {
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Timestamp string  `json:"timestamp"`
}

type priceTier struct {
	codes []string
	price float64
}

// Matched in order against the upper-cased material code
var priceTiers = []priceTier{
	{codes: []string{"SS_BAR"}, price: 12.50},
	{codes: []string{"CEMENT"}, price: 8.75},
	{codes: []string{"BRICK"}, price: 0.85},
	{codes: []string{"LUMBER", "WOOD"}, price: 15.00},
}

const defaultMaterialPrice = 50.00

// LookupMaterialPrice returns the unit price for a material code
func LookupMaterialPrice(materialCode string) float64 {
	code := strings.ToUpper(materialCode)
	for _, tier := range priceTiers {
		for _, c := range tier.codes {
			if strings.Contains(code, c) {
				return tier.price
			}
		}
	}
	return defaultMaterialPrice
}

// NewMaterialPriceTool builds the check_material_price tool. now stamps each quote.
func NewMaterialPriceTool(now func() time.Time) Tool {
	if now == nil {
		now = time.Now
	}

	return Tool{
		Declaration: port.ToolDeclaration{
			Name:        MaterialPriceTool,
			Description: "Get the real-time market price for a construction material code.",
			Parameters: []port.ToolParameter{
				{Name: "material_code", Type: "string", Description: "e.g., 'SS_BAR_A', 'CEMENT_40'", Required: true},
			},
		},
		Run: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				MaterialCode *string `json:"material_code"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
			if in.MaterialCode == nil {
				return nil, errors.New("invalid arguments: material_code is required")
			}
			return PriceQuote{
				Price:     LookupMaterialPrice(*in.MaterialCode),
				Currency:  "USD",
				Timestamp: now().UTC().Format(time.RFC3339),
			}, nil
		},
		Summary: func(result any) string {
			quote, _ := result.(PriceQuote)
			return "Price found: $" + strconv.FormatFloat(quote.Price, 'f', -1, 64)
		},
	}
}
