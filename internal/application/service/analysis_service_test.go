package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	query  *entity.AnalysisQuery
	err    error
	schema string
}

func (f *fakeGenerator) GenerateQuery(ctx context.Context, question, schemaDescription string) (*entity.AnalysisQuery, error) {
	f.schema = schemaDescription
	return f.query, f.err
}

type fakeElements struct {
	elements []*entity.ProjectElement
}

func (f *fakeElements) List(ctx context.Context) ([]*entity.ProjectElement, error) {
	return f.elements, nil
}

func (f *fakeElements) SummarizeByType(ctx context.Context) ([]entity.ElementCostSummary, error) {
	byType := map[string]*entity.ElementCostSummary{}
	var out []entity.ElementCostSummary
	var order []string
	for _, e := range f.elements {
		s, ok := byType[e.Type]
		if !ok {
			s = &entity.ElementCostSummary{Type: e.Type}
			byType[e.Type] = s
			order = append(order, e.Type)
		}
		s.Cost += e.CostEstimate
		s.Volume += e.Volume
	}
	for _, t := range order {
		out = append(out, *byType[t])
	}
	return out, nil
}

func TestAnalysisService_GenerateQuery(t *testing.T) {
	gen := &fakeGenerator{query: &entity.AnalysisQuery{
		SQL:         "SELECT SUM(cost_estimate) FROM project_elements WHERE type = 'Wall'",
		Explanation: "Sums the cost of all walls.",
	}}
	svc := NewAnalysisService(gen, &fakeElements{}, nil)

	q, err := svc.GenerateQuery(context.Background(), "  total wall cost?  ")
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "project_elements")
	assert.Equal(t, ElementSchemaDescription, gen.schema)

	_, err = svc.GenerateQuery(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	gen.err = errors.New("model unavailable")
	_, err = svc.GenerateQuery(context.Background(), "total wall cost?")
	assert.ErrorContains(t, err, "model unavailable")
}

func TestAnalysisService_ElementsAndSummary(t *testing.T) {
	elements := &fakeElements{elements: []*entity.ProjectElement{
		{ID: "W-101", Type: "Wall", Volume: 12.5, CostEstimate: 4500},
		{ID: "W-102", Type: "Wall", Volume: 10, CostEstimate: 3000},
		{ID: "S-201", Type: "Slab", Volume: 45, CostEstimate: 12000},
	}}
	svc := NewAnalysisService(&fakeGenerator{}, elements, nil)

	list, err := svc.Elements(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 3)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []entity.ElementCostSummary{
		{Type: "Wall", Cost: 7500, Volume: 22.5},
		{Type: "Slab", Cost: 12000, Volume: 45},
	}, summary)
}
