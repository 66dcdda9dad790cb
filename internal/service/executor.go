package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/domain"
	"github.com/sliea/antennadesk/internal/metrics"
	"github.com/sliea/antennadesk/internal/models"
)

// actionFunc applies the equipment change implied by one request type.
type actionFunc func(ctx context.Context, req *models.Request) (*models.Equipment, error)

// ActionExecutor performs the equipment mutation implied by a request that
// is being completed. Each invocation makes exactly one registry call and
// never retries; registry errors are returned unchanged.
type ActionExecutor struct {
	equipment domain.EquipmentRegistry
	actions   map[models.RequestType]actionFunc
	log       *logrus.Logger
}

// NewActionExecutor creates an ActionExecutor over the equipment registry.
func NewActionExecutor(equipment domain.EquipmentRegistry, log *logrus.Logger) *ActionExecutor {
	e := &ActionExecutor{equipment: equipment, log: log}
	e.actions = map[models.RequestType]actionFunc{
		models.RequestActivate:   e.activate,
		models.RequestDeactivate: e.deactivate,
		models.RequestChangePlan: e.changePlan,
	}

	return e
}

// Handles reports whether the executor has an action for t.
func (e *ActionExecutor) Handles(t models.RequestType) bool {
	_, ok := e.actions[t]
	return ok
}

// Execute applies the action for req.Type to req's equipment and returns
// the resulting equipment state.
func (e *ActionExecutor) Execute(ctx context.Context, req *models.Request) (*models.Equipment, error) {
	if req.Equipment == nil {
		return nil, models.ErrNoEquipment
	}

	action, ok := e.actions[req.Type]
	if !ok {
		return nil, models.NewDomainError("unrecognized request type %q", req.Type)
	}

	eq, err := action(ctx, req)
	if err != nil {
		metrics.ActionFailures.WithLabelValues(string(req.Type)).Inc()

		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"request_id":   req.ID,
		"type":         req.Type,
		"equipment_id": eq.ID,
		"status":       eq.Status,
	}).Info("equipment action applied")

	return eq, nil
}

func (e *ActionExecutor) activate(ctx context.Context, req *models.Request) (*models.Equipment, error) {
	if req.TargetPlan == nil {
		return nil, models.NewDomainError("plan required to activate")
	}

	return e.equipment.ActivateEquipment(ctx, req.Equipment.ID, req.TargetPlan.ID)
}

func (e *ActionExecutor) deactivate(ctx context.Context, req *models.Request) (*models.Equipment, error) {
	return e.equipment.DeactivateEquipment(ctx, req.Equipment.ID)
}

func (e *ActionExecutor) changePlan(ctx context.Context, req *models.Request) (*models.Equipment, error) {
	if req.TargetPlan == nil {
		return nil, models.NewDomainError("plan required to change plan")
	}

	planID := req.TargetPlan.ID

	return e.equipment.UpdateEquipment(ctx, req.Equipment.ID, models.EquipmentUpdate{PlanID: &planID})
}
