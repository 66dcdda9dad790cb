// Package domain defines the canonical interfaces shared by the request
// workflow, the registries behind it, and the API layer. Consumers should
// depend on these interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/sliea/antennadesk/internal/models"
)

// RequestService is the request-lifecycle API consumed by HTTP handlers.
type RequestService interface {
	CreateRequest(ctx context.Context, req models.CreateRequestRequest) (*models.Request, error)
	SetStatus(ctx context.Context, requestID string, req models.SetStatusRequest) (*models.Request, error)
	UpdateRequest(ctx context.Context, requestID string, req models.UpdateRequestRequest) (*models.Request, error)
	DeleteRequest(ctx context.Context, requestID string) error
	GetRequest(ctx context.Context, requestID string) (*models.Request, error)
	ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.Request, bool, error)
	RequestsByClient(ctx context.Context, clientID string) ([]models.Request, error)
	PendingForClient(ctx context.Context, clientID string) ([]models.Request, error)
	RequestStats(ctx context.Context) ([]models.RequestStat, error)
}

// RequestStore persists request records. Reads return fully resolved snapshots.
type RequestStore interface {
	CreateRequest(ctx context.Context, req models.NewRequest) (string, error)
	GetRequest(ctx context.Context, requestID string) (*models.Request, error)
	ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.Request, bool, error)
	RequestsByClient(ctx context.Context, clientID string, statuses ...models.RequestStatus) ([]models.Request, error)
	UpdateStatus(ctx context.Context, requestID string, upd models.StatusUpdate) error
	UpdateRequest(ctx context.Context, requestID string, upd models.UpdateRequestRequest) error
	DeleteRequest(ctx context.Context, requestID string) error
	RequestStats(ctx context.Context) ([]models.RequestStat, error)
}

// EquipmentRegistry owns equipment records. Activate and Deactivate are single
// atomic writes; callers never read-modify-write equipment.
type EquipmentRegistry interface {
	GetEquipment(ctx context.Context, equipmentID string) (*models.Equipment, error)
	ActivateEquipment(ctx context.Context, equipmentID, planID string) (*models.Equipment, error)
	DeactivateEquipment(ctx context.Context, equipmentID string) (*models.Equipment, error)
	UpdateEquipment(ctx context.Context, equipmentID string, upd models.EquipmentUpdate) (*models.Equipment, error)
}

// PlanRegistry resolves connectivity plans by id.
type PlanRegistry interface {
	GetPlan(ctx context.Context, planID string) (*models.Plan, error)
}

// UserRegistry resolves clients and staff by id.
type UserRegistry interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}
