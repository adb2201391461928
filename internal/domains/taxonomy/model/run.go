package model

import (
	"time"

	"github.com/google/uuid"
)

// RunState is the step a reconciliation run last reached.
type RunState string

const (
	RunValidating        RunState = "validating"
	RunRecordCreated     RunState = "record_created"
	RunAttributeResolved RunState = "attribute_resolved"
	RunTermCreated       RunState = "term_created"
	RunLinked            RunState = "linked"
	RunNoDerived         RunState = "no_derived" // coupon for a platform without a store

	RunValidationFailed   RunState = "validation_failed"
	RunRecordCreateFailed RunState = "record_create_failed"
	RunAttributeMissing   RunState = "attribute_missing"
	RunTermCreateFailed   RunState = "term_create_failed"
	RunCompensated        RunState = "compensated"
	RunLinkBackFailed     RunState = "link_back_failed"
)

// PendingStates are the states a run can be left in by a crash or by a
// compensating delete that still has to be retried.
var PendingStates = []RunState{
	RunValidating, RunRecordCreated, RunAttributeResolved, RunTermCreated,
	RunAttributeMissing, RunTermCreateFailed,
}

// Terminal reports whether no further step will run for this state.
func (s RunState) Terminal() bool {
	switch s {
	case RunLinked, RunNoDerived, RunValidationFailed, RunRecordCreateFailed, RunCompensated, RunLinkBackFailed:
		return true
	}
	return false
}

// Succeeded reports whether both sides hold the entity.
func (s RunState) Succeeded() bool {
	return s == RunLinked || s == RunLinkBackFailed || s == RunNoDerived
}

// ReconciliationRun is the journal row for one create saga.
type ReconciliationRun struct {
	ID          uuid.UUID  `json:"id"`
	Kind        EntityKind `json:"kind"`
	LinkingKey  string     `json:"linkingKey,omitempty"`
	DisplayName string     `json:"displayName"`
	State       RunState   `json:"state"`
	Platform    string     `json:"platform,omitempty"`
	AttributeID *int64     `json:"attributeId,omitempty"`
	DerivedID   *int64     `json:"derivedId,omitempty"`
	Error       *string    `json:"error,omitempty"`
	Compensated bool       `json:"compensated"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// RunUpdate carries the columns changed by one journal step.
type RunUpdate struct {
	State       RunState
	LinkingKey  *string
	AttributeID *int64
	DerivedID   *int64
	Error       *string
	Compensated *bool
}

// RunFilter narrows a journal listing.
type RunFilter struct {
	Kind   EntityKind
	State  RunState
	Limit  int
	Offset int
}

// CompensationRequest is the payload of a deferred Strapi delete.
type CompensationRequest struct {
	RunID      uuid.UUID  `json:"runId"`
	Kind       EntityKind `json:"kind"`
	LinkingKey string     `json:"linkingKey"`
}
