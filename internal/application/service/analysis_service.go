package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ayifakhri-cell/ERP-Construction/internal/application/port"
	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"go.uber.org/zap"
)

// ElementSchemaDescription describes the BIM table the query generator targets
const ElementSchemaDescription = `Table: project_elements
Columns:
- id (STRING): Unique Element ID
- type (STRING): Classification (Wall, Slab, Column, Beam)
- material (STRING): Material composition
- volume (FLOAT): Volume in m3
- cost_estimate (FLOAT): Estimated cost
- zone (STRING): Location zone`

// AnalysisService serves BIM element data and natural-language queries over it
type AnalysisService interface {
	// GenerateQuery returns SQL for the question. The SQL is never executed.
	GenerateQuery(ctx context.Context, question string) (*entity.AnalysisQuery, error)
	Elements(ctx context.Context) ([]*entity.ProjectElement, error)
	Summary(ctx context.Context) ([]entity.ElementCostSummary, error)
}

type analysisServiceImpl struct {
	generator port.QueryGenerator
	elements  port.ElementRepository
	logger    *zap.Logger
}

// NewAnalysisService creates a new AnalysisService
func NewAnalysisService(generator port.QueryGenerator, elements port.ElementRepository, logger *zap.Logger) AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &analysisServiceImpl{generator: generator, elements: elements, logger: logger}
}

// GenerateQuery translates a question into SQL over project_elements
func (s *analysisServiceImpl) GenerateQuery(ctx context.Context, question string) (*entity.AnalysisQuery, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyMessage
	}

	query, err := s.generator.GenerateQuery(ctx, question, ElementSchemaDescription)
	if err != nil {
		s.logger.Error("Query generation failed", zap.String("question", question), zap.Error(err))
		return nil, fmt.Errorf("failed to generate query: %w", err)
	}
	return query, nil
}

// Elements lists the BIM elements
func (s *analysisServiceImpl) Elements(ctx context.Context) ([]*entity.ProjectElement, error) {
	return s.elements.List(ctx)
}

// Summary aggregates cost and volume per element type
func (s *analysisServiceImpl) Summary(ctx context.Context) ([]entity.ElementCostSummary, error) {
	return s.elements.SummarizeByType(ctx)
}
