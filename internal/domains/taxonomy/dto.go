package taxonomy

import (
	"github.com/google/uuid"

	"intranet-backend/internal/domains/taxonomy/model"
)

// WriteRequest is the body of create and update calls: { "data": {...} }
type WriteRequest struct {
	Data map[string]any `json:"data"`
}

// CreateResult is returned by a successful reconciliation
type CreateResult struct {
	Record   *model.TaxonomyRecord `json:"record"`
	Derived  *model.DerivedTerm    `json:"derived,omitempty"`
	RunID    uuid.UUID             `json:"runId"`
	State    model.RunState        `json:"state"`
	Platform string                `json:"platform,omitempty"`
	Warnings []string              `json:"warnings,omitempty"`
}

// DeleteResult reports what happened on each side
type DeleteResult struct {
	LinkingKey     string `json:"linkingKey"`
	DerivedDeleted bool   `json:"derivedDeleted"`
	Warning        string `json:"warning,omitempty"`
}

// ImportRowResult is the outcome of one CSV row
type ImportRowResult struct {
	Row        int    `json:"row"`
	Name       string `json:"name"`
	Success    bool   `json:"success"`
	LinkingKey string `json:"linkingKey,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ImportResult summarizes a CSV import
type ImportResult struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Rows      []ImportRowResult `json:"rows"`
}

// SweepResult summarizes a stale-run sweep
type SweepResult struct {
	Examined    int `json:"examined"`
	Linked      int `json:"linked"`
	Compensated int `json:"compensated"`
	Abandoned   int `json:"abandoned"` // interrupted before the record existed
	Failed      int `json:"failed"`
}
