package api_test

import (
	"context"

	"github.com/sliea/antennadesk/internal/models"
)

// mockRequestService implements api.RequestService for testing.
type mockRequestService struct {
	createFn    func(ctx context.Context, req models.CreateRequestRequest) (*models.Request, error)
	setStatusFn func(ctx context.Context, id string, req models.SetStatusRequest) (*models.Request, error)
	updateFn    func(ctx context.Context, id string, req models.UpdateRequestRequest) (*models.Request, error)
	deleteFn    func(ctx context.Context, id string) error
	getFn       func(ctx context.Context, id string) (*models.Request, error)
	listFn      func(ctx context.Context, filter models.RequestFilter) ([]models.Request, bool, error)
	byClientFn  func(ctx context.Context, clientID string) ([]models.Request, error)
	pendingFn   func(ctx context.Context, clientID string) ([]models.Request, error)
	statsFn     func(ctx context.Context) ([]models.RequestStat, error)
}

func (m *mockRequestService) CreateRequest(ctx context.Context, req models.CreateRequestRequest) (*models.Request, error) {
	return m.createFn(ctx, req)
}

func (m *mockRequestService) SetStatus(ctx context.Context, id string, req models.SetStatusRequest) (*models.Request, error) {
	return m.setStatusFn(ctx, id, req)
}

func (m *mockRequestService) UpdateRequest(ctx context.Context, id string, req models.UpdateRequestRequest) (*models.Request, error) {
	return m.updateFn(ctx, id, req)
}

func (m *mockRequestService) DeleteRequest(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockRequestService) GetRequest(ctx context.Context, id string) (*models.Request, error) {
	return m.getFn(ctx, id)
}

func (m *mockRequestService) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.Request, bool, error) {
	return m.listFn(ctx, filter)
}

func (m *mockRequestService) RequestsByClient(ctx context.Context, clientID string) ([]models.Request, error) {
	return m.byClientFn(ctx, clientID)
}

func (m *mockRequestService) PendingForClient(ctx context.Context, clientID string) ([]models.Request, error) {
	return m.pendingFn(ctx, clientID)
}

func (m *mockRequestService) RequestStats(ctx context.Context) ([]models.RequestStat, error) {
	return m.statsFn(ctx)
}

// mockEquipment implements api.EquipmentLookup for testing.
type mockEquipment struct {
	getFn func(ctx context.Context, id string) (*models.Equipment, error)
}

func (m *mockEquipment) GetEquipment(ctx context.Context, id string) (*models.Equipment, error) {
	return m.getFn(ctx, id)
}
