package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sliea/antennadesk/internal/models"
)

// callLog records method names in call order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) count(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, c := range l.calls {
		if c == name {
			n++
		}
	}

	return n
}

// mockRequestStore records calls and returns configured responses.
type mockRequestStore struct {
	callLog

	createRequest    func(ctx context.Context, req models.NewRequest) (string, error)
	getRequest       func(ctx context.Context, requestID string) (*models.Request, error)
	listRequests     func(ctx context.Context, filter models.RequestFilter) ([]models.Request, bool, error)
	requestsByClient func(ctx context.Context, clientID string, statuses ...models.RequestStatus) ([]models.Request, error)
	updateStatus     func(ctx context.Context, requestID string, upd models.StatusUpdate) error
	updateRequest    func(ctx context.Context, requestID string, upd models.UpdateRequestRequest) error
	deleteRequest    func(ctx context.Context, requestID string) error
	requestStats     func(ctx context.Context) ([]models.RequestStat, error)
}

func (m *mockRequestStore) CreateRequest(ctx context.Context, req models.NewRequest) (string, error) {
	m.record("CreateRequest")
	return m.createRequest(ctx, req)
}

func (m *mockRequestStore) GetRequest(ctx context.Context, requestID string) (*models.Request, error) {
	m.record("GetRequest")
	return m.getRequest(ctx, requestID)
}

func (m *mockRequestStore) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.Request, bool, error) {
	m.record("ListRequests")
	return m.listRequests(ctx, filter)
}

func (m *mockRequestStore) RequestsByClient(ctx context.Context, clientID string, statuses ...models.RequestStatus) ([]models.Request, error) {
	m.record("RequestsByClient")
	return m.requestsByClient(ctx, clientID, statuses...)
}

func (m *mockRequestStore) UpdateStatus(ctx context.Context, requestID string, upd models.StatusUpdate) error {
	m.record("UpdateStatus")
	return m.updateStatus(ctx, requestID, upd)
}

func (m *mockRequestStore) UpdateRequest(ctx context.Context, requestID string, upd models.UpdateRequestRequest) error {
	m.record("UpdateRequest")
	return m.updateRequest(ctx, requestID, upd)
}

func (m *mockRequestStore) DeleteRequest(ctx context.Context, requestID string) error {
	m.record("DeleteRequest")
	return m.deleteRequest(ctx, requestID)
}

func (m *mockRequestStore) RequestStats(ctx context.Context) ([]models.RequestStat, error) {
	m.record("RequestStats")
	return m.requestStats(ctx)
}

// mockEquipment records calls and returns configured responses.
type mockEquipment struct {
	callLog

	getEquipment        func(ctx context.Context, equipmentID string) (*models.Equipment, error)
	activateEquipment   func(ctx context.Context, equipmentID, planID string) (*models.Equipment, error)
	deactivateEquipment func(ctx context.Context, equipmentID string) (*models.Equipment, error)
	updateEquipment     func(ctx context.Context, equipmentID string, upd models.EquipmentUpdate) (*models.Equipment, error)
}

func (m *mockEquipment) GetEquipment(ctx context.Context, equipmentID string) (*models.Equipment, error) {
	m.record("GetEquipment")
	return m.getEquipment(ctx, equipmentID)
}

func (m *mockEquipment) ActivateEquipment(ctx context.Context, equipmentID, planID string) (*models.Equipment, error) {
	m.record("ActivateEquipment")
	return m.activateEquipment(ctx, equipmentID, planID)
}

func (m *mockEquipment) DeactivateEquipment(ctx context.Context, equipmentID string) (*models.Equipment, error) {
	m.record("DeactivateEquipment")
	return m.deactivateEquipment(ctx, equipmentID)
}

func (m *mockEquipment) UpdateEquipment(ctx context.Context, equipmentID string, upd models.EquipmentUpdate) (*models.Equipment, error) {
	m.record("UpdateEquipment")
	return m.updateEquipment(ctx, equipmentID, upd)
}

// mutations counts registry calls that change equipment.
func (m *mockEquipment) mutations() int {
	return m.count("ActivateEquipment") + m.count("DeactivateEquipment") + m.count("UpdateEquipment")
}

// mockPlans resolves plans from a map.
type mockPlans struct {
	plans map[string]*models.Plan
}

func (m *mockPlans) GetPlan(_ context.Context, planID string) (*models.Plan, error) {
	p, ok := m.plans[planID]
	if !ok {
		return nil, models.ErrPlanNotFound
	}

	return p, nil
}

// mockUsers resolves users from a map.
type mockUsers struct {
	users map[string]*models.User
}

func (m *mockUsers) GetUser(_ context.Context, userID string) (*models.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	return u, nil
}

// emitted is one event captured by recordingEmitter.
type emitted struct {
	channel      string
	eventType    string
	notification models.Notification
}

// recordingEmitter captures emitted events and optionally fails every call.
type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
	err    error
}

func (e *recordingEmitter) EmitEvent(channel, eventType string, data json.RawMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return e.err
	}

	var n models.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}

	e.events = append(e.events, emitted{channel: channel, eventType: eventType, notification: n})

	return nil
}

func (e *recordingEmitter) on(channel string) []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []emitted
	for _, ev := range e.events {
		if ev.channel == channel {
			out = append(out, ev)
		}
	}

	return out
}
