package api

import (
	"context"

	"github.com/sliea/antennadesk/internal/domain"
	"github.com/sliea/antennadesk/internal/models"
)

// RequestService is the request workflow used by RequestHandler and StatsHandler.
type RequestService = domain.RequestService

// EquipmentLookup resolves equipment for EquipmentHandler.
type EquipmentLookup interface {
	GetEquipment(ctx context.Context, equipmentID string) (*models.Equipment, error)
}

// Pinger checks database connectivity for the health endpoints.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// SchemaChecker reports the applied schema version.
type SchemaChecker interface {
	CurrentVersion(ctx context.Context) (int64, error)
}

// HubStats exposes connection counts for the health endpoint.
type HubStats interface {
	ClientCount() int
}
