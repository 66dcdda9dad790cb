// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/domain"
	"github.com/sliea/antennadesk/internal/metrics"
	"github.com/sliea/antennadesk/internal/models"
)

// Compile-time check: *RequestService must satisfy domain.RequestService.
var _ domain.RequestService = (*RequestService)(nil)

// Registries bundles the collaborator lookups the request workflow needs.
type Registries struct {
	Equipment domain.EquipmentRegistry
	Plans     domain.PlanRegistry
	Users     domain.UserRegistry
}

// RequestService orchestrates the request lifecycle: it validates input,
// runs the equipment action when a request completes, persists the result
// and pushes notifications through the hub.
type RequestService struct {
	store    domain.RequestStore
	reg      Registries
	executor *ActionExecutor
	machine  *StatusMachine
	hub      Emitter
	log      *logrus.Logger
	now      func() time.Time
}

// NewRequestService creates a RequestService. hub may be nil, in which case
// notifications are skipped.
func NewRequestService(store domain.RequestStore, reg Registries, hub Emitter, log *logrus.Logger) *RequestService {
	return &RequestService{
		store:    store,
		reg:      reg,
		executor: NewActionExecutor(reg.Equipment, log),
		machine:  NewStatusMachine(),
		hub:      hub,
		log:      log,
		now:      time.Now,
	}
}

// CreateRequest validates and persists a new request, then announces it to
// the admins channel.
func (s *RequestService) CreateRequest(ctx context.Context, req models.CreateRequestRequest) (*models.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	eq, err := s.reg.Equipment.GetEquipment(ctx, req.EquipmentID)
	if err != nil {
		return nil, err
	}

	var targetPlan *string
	if req.PlanID != "" {
		if _, err := s.reg.Plans.GetPlan(ctx, req.PlanID); err != nil {
			return nil, err
		}

		targetPlan = &req.PlanID
	}

	if _, err := s.reg.Users.GetUser(ctx, req.ClientID); err != nil {
		return nil, err
	}

	id, err := s.store.CreateRequest(ctx, models.NewRequest{
		Type:          req.Type,
		Status:        req.Status,
		ClientID:      req.ClientID,
		EquipmentID:   req.EquipmentID,
		CurrentPlanID: eq.PlanID(),
		TargetPlanID:  targetPlan,
		Notes:         req.Notes,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.RequestsCreated.WithLabelValues(string(created.Type)).Inc()
	s.dispatch(models.AdminChannel, models.NewRequestNotification(created, s.now()))

	return created, nil
}

// SetStatus moves a request to a new status. Completing a request first
// applies its equipment action; if that fails the status is left unchanged.
// The write is conditional on the status read here, so a concurrent
// transition of the same request surfaces as a conflict.
func (s *RequestService) SetStatus(
	ctx context.Context, requestID string, req models.SetStatusRequest,
) (*models.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	previous := current.Status

	if err := s.machine.Transition(ctx, previous, req.Status); err != nil {
		return nil, err
	}

	if err := s.checkStaff(ctx, req.AssignedStaffID, req.CompletedByID); err != nil {
		return nil, err
	}

	executed := false
	if req.Status == models.StatusCompleted {
		if _, err := s.executor.Execute(ctx, current); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"request_id": requestID,
				"type":       current.Type,
			}).Warn("equipment action failed, request left unchanged")

			return nil, err
		}

		executed = true
	}

	err = s.store.UpdateStatus(ctx, requestID, models.StatusUpdate{
		Status:          req.Status,
		Expected:        previous,
		AssignedStaffID: req.AssignedStaffID,
		CompletedByID:   req.CompletedByID,
	})
	if err != nil {
		if executed {
			s.log.WithError(err).WithField("request_id", requestID).
				Error("equipment action applied but status write failed")
		}

		return nil, err
	}

	updated, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	metrics.RequestTransitions.WithLabelValues(string(previous), string(updated.Status)).Inc()

	now := s.now()
	s.dispatch(models.ClientChannel(updated.ClientID()),
		models.StatusChangeNotification(updated, previous, models.AudienceClient, now))
	s.dispatch(models.AdminChannel,
		models.StatusChangeNotification(updated, previous, models.AudienceAdmins, now))

	return updated, nil
}

// UpdateRequest edits notes, the target plan, or the assigned staff member
// and notifies the owning client and the admins.
func (s *RequestService) UpdateRequest(
	ctx context.Context, requestID string, req models.UpdateRequestRequest,
) (*models.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if current.Status == models.StatusCompleted && (req.TargetPlanID != nil || req.AssignedStaffID != nil) {
		return nil, models.NewDomainError("completed requests only accept notes")
	}

	if req.TargetPlanID != nil && !req.ClearsTargetPlan() {
		if _, err := s.reg.Plans.GetPlan(ctx, *req.TargetPlanID); err != nil {
			return nil, err
		}
	}

	if req.AssignedStaffID != nil {
		if err := s.checkStaff(ctx, *req.AssignedStaffID, ""); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateRequest(ctx, requestID, req); err != nil {
		return nil, err
	}

	updated, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	s.dispatch(models.ClientChannel(updated.ClientID()),
		models.RequestUpdateNotification(updated, models.AudienceClient, now))
	s.dispatch(models.AdminChannel,
		models.RequestUpdateNotification(updated, models.AudienceAdmins, now))

	return updated, nil
}

// DeleteRequest removes a request.
func (s *RequestService) DeleteRequest(ctx context.Context, requestID string) error {
	return s.store.DeleteRequest(ctx, requestID)
}

// GetRequest returns a single request (pass-through).
func (s *RequestService) GetRequest(ctx context.Context, requestID string) (*models.Request, error) {
	return s.store.GetRequest(ctx, requestID)
}

// ListRequests returns a filtered page of requests.
func (s *RequestService) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.Request, bool, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, false, models.NewValidationError("status must be one of %v, got %q", models.RequestStatuses(), filter.Status)
	}

	if filter.Type != "" && !filter.Type.Valid() {
		return nil, false, models.NewValidationError("type must be one of %v, got %q", models.RequestTypes(), filter.Type)
	}

	return s.store.ListRequests(ctx, filter)
}

// RequestsByClient returns every request of a client (pass-through).
func (s *RequestService) RequestsByClient(ctx context.Context, clientID string) ([]models.Request, error) {
	return s.store.RequestsByClient(ctx, clientID)
}

// PendingForClient returns a client's open requests: pending or in progress.
func (s *RequestService) PendingForClient(ctx context.Context, clientID string) ([]models.Request, error) {
	return s.store.RequestsByClient(ctx, clientID, models.StatusPending, models.StatusInProgress)
}

// RequestStats returns request counts grouped by status and type (pass-through).
func (s *RequestService) RequestStats(ctx context.Context) ([]models.RequestStat, error) {
	return s.store.RequestStats(ctx)
}

// checkStaff resolves the staff members named by a transition. Both must be
// admins; empty ids are skipped.
func (s *RequestService) checkStaff(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if id == "" {
			continue
		}

		user, err := s.reg.Users.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrUserNotFound
			}

			return err
		}

		if user.Role != models.RoleAdmin {
			return models.NewValidationError("user %s is not a staff member", id)
		}
	}

	return nil
}
