package entity

// ProjectElement is a BIM model element with its cost estimate
type ProjectElement struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"` // Wall, Column, Slab, Beam
	Material     string  `json:"material"`
	Volume       float64 `json:"volume"` // m3
	CostEstimate float64 `json:"costEstimate"`
	Zone         string  `json:"zone"`
}

// ElementCostSummary aggregates cost and volume per element type
type ElementCostSummary struct {
	Type   string  `json:"name"`
	Cost   float64 `json:"cost"`
	Volume float64 `json:"volume"`
}

// AnalysisQuery is a generated query with its explanation
type AnalysisQuery struct {
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
}
