// Package models defines the data types shared by the request workflow,
// the registries, and the notification hub.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestType identifies the equipment change a request asks for.
type RequestType string

// Defined request types.
const (
	RequestActivate   RequestType = "activate"
	RequestDeactivate RequestType = "deactivate"
	RequestChangePlan RequestType = "change_plan"
)

// RequestTypes lists every defined request type.
func RequestTypes() []RequestType {
	return []RequestType{RequestActivate, RequestDeactivate, RequestChangePlan}
}

// Valid reports whether t is a defined request type.
func (t RequestType) Valid() bool {
	switch t {
	case RequestActivate, RequestDeactivate, RequestChangePlan:
		return true
	}

	return false
}

// Label returns the human-readable name used in notifications.
func (t RequestType) Label() string {
	switch t {
	case RequestActivate:
		return "Activate antenna"
	case RequestDeactivate:
		return "Deactivate antenna"
	case RequestChangePlan:
		return "Change plan"
	}

	return string(t)
}

// RequestStatus is a step in the request lifecycle.
type RequestStatus string

// Request lifecycle statuses, in order.
const (
	StatusPending    RequestStatus = "pending"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
)

// RequestStatuses lists every status in lifecycle order.
func RequestStatuses() []RequestStatus {
	return []RequestStatus{StatusPending, StatusInProgress, StatusCompleted}
}

// Valid reports whether s is a defined status.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}

	return false
}

// Label returns the human-readable name used in notifications.
func (s RequestStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In progress"
	case StatusCompleted:
		return "Completed"
	}

	return string(s)
}

// UserRef is a resolved snapshot of a client or staff member.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Request is a client-initiated change order against a piece of equipment.
// References are resolved snapshots taken when the record was read.
type Request struct {
	ID            string        `json:"id"`
	Type          RequestType   `json:"type"`
	Status        RequestStatus `json:"status"`
	Client        *UserRef      `json:"client"`
	Equipment     *EquipmentRef `json:"equipment"`
	CurrentPlan   *PlanRef      `json:"plan"`
	TargetPlan    *PlanRef      `json:"target_plan"`
	AssignedStaff *UserRef      `json:"assigned_staff"`
	CompletedBy   *UserRef      `json:"completed_by"`
	StartedAt     *time.Time    `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at"`
	Notes         string        `json:"notes"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ClientID returns the owning client's id, or "" if unresolved.
func (r *Request) ClientID() string {
	if r.Client == nil {
		return ""
	}

	return r.Client.ID
}

// CreateRequestRequest is the payload for opening a new request.
type CreateRequestRequest struct {
	Type        RequestType   `json:"type" validate:"required,oneof=activate deactivate change_plan"`
	ClientID    string        `json:"client_id" validate:"required,uuid"`
	EquipmentID string        `json:"equipment_id" validate:"omitempty,uuid"`
	PlanID      string        `json:"plan_id" validate:"omitempty,uuid"`
	Status      RequestStatus `json:"status" validate:"omitempty,oneof=pending in_progress"`
	Notes       string        `json:"notes" validate:"max=2000"`
}

// Validate checks field presence and formats. Every defined request type
// targets a piece of equipment, so the equipment id is required.
func (r *CreateRequestRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}

	if r.EquipmentID == "" {
		return NewValidationError("equipment_id is required for %s requests", r.Type)
	}

	if r.Status == "" {
		r.Status = StatusPending
	}

	return nil
}

// SetStatusRequest is the payload for moving a request through its lifecycle.
type SetStatusRequest struct {
	Status          RequestStatus `json:"status" validate:"required,oneof=pending in_progress completed"`
	AssignedStaffID string        `json:"assigned_staff_id,omitempty" validate:"omitempty,uuid"`
	CompletedByID   string        `json:"completed_by_id,omitempty" validate:"omitempty,uuid"`
}

// Validate checks SetStatusRequest fields.
func (r *SetStatusRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}

	if r.CompletedByID != "" && r.Status != StatusCompleted {
		return NewValidationError("completed_by_id is only accepted when status is %s", StatusCompleted)
	}

	return nil
}

// UpdateRequestRequest is the payload for editing the mutable request fields.
// An empty target_plan_id clears the target plan.
type UpdateRequestRequest struct {
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	TargetPlanID    *string `json:"target_plan_id,omitempty"`
	AssignedStaffID *string `json:"assigned_staff_id,omitempty" validate:"omitempty,uuid"`
}

// Validate checks UpdateRequestRequest fields.
func (r *UpdateRequestRequest) Validate() error {
	if r.Notes == nil && r.TargetPlanID == nil && r.AssignedStaffID == nil {
		return ErrNoFieldsToUpdate
	}

	if r.AssignedStaffID != nil && *r.AssignedStaffID == "" {
		return NewValidationError("assigned_staff_id cannot be empty")
	}

	if r.TargetPlanID != nil && !r.ClearsTargetPlan() {
		if _, err := uuid.Parse(*r.TargetPlanID); err != nil {
			return NewValidationError("target_plan_id must be a valid uuid")
		}
	}

	return validateStruct(r)
}

// ClearsTargetPlan reports whether the update removes the target plan.
func (r *UpdateRequestRequest) ClearsTargetPlan() bool {
	return r.TargetPlanID != nil && *r.TargetPlanID == ""
}

// StatusUpdate is the conditional status write issued by the request store.
// The write only applies while the stored status still equals Expected.
type StatusUpdate struct {
	Status          RequestStatus
	Expected        RequestStatus
	AssignedStaffID string
	CompletedByID   string
}

// NewRequest holds the resolved values persisted for a new request.
type NewRequest struct {
	Type          RequestType
	Status        RequestStatus
	ClientID      string
	EquipmentID   string
	CurrentPlanID *string
	TargetPlanID  *string
	Notes         string
}

// RequestFilter narrows a request listing.
type RequestFilter struct {
	Status   RequestStatus
	Type     RequestType
	ClientID string
	Limit    int
	Offset   int
}

// RequestStat is the number of requests sharing a status and type.
type RequestStat struct {
	Status RequestStatus `json:"status"`
	Type   RequestType   `json:"type"`
	Count  int           `json:"count"`
}
