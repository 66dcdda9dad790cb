package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/sliea/antennadesk/internal/domain"
	"github.com/sliea/antennadesk/internal/models"
)

// Compile-time check: *EquipmentStore must satisfy domain.EquipmentRegistry.
var _ domain.EquipmentRegistry = (*EquipmentStore)(nil)

// EquipmentStore is the equipment registry. Every mutation is a single
// UPDATE whose result is resolved in the same statement.
type EquipmentStore struct {
	Base
}

// NewEquipmentStore creates a new EquipmentStore.
func NewEquipmentStore(base Base) *EquipmentStore {
	return &EquipmentStore{Base: base}
}

// GetEquipment returns a single piece of equipment.
func (s *EquipmentStore) GetEquipment(ctx context.Context, equipmentID string) (*models.Equipment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + equipmentColumns + ` FROM equipment e` + equipmentJoins + ` WHERE e.id = $1`

	return s.queryOne(ctx, "getting equipment", query, equipmentID)
}

// ActivateEquipment sets status=active, binds the plan, stamps the
// activation date and clears the deactivation date.
func (s *EquipmentStore) ActivateEquipment(ctx context.Context, equipmentID, planID string) (*models.Equipment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.mutate(ctx, "activating equipment", `
		status = 'active',
		plan_id = $2,
		activation_date = now(),
		deactivation_date = NULL`,
		equipmentID, planID)
}

// DeactivateEquipment sets status=inactive, unbinds the plan and stamps the
// deactivation date.
func (s *EquipmentStore) DeactivateEquipment(ctx context.Context, equipmentID string) (*models.Equipment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.mutate(ctx, "deactivating equipment", `
		status = 'inactive',
		plan_id = NULL,
		deactivation_date = now()`,
		equipmentID)
}

// UpdateEquipment applies a generic field update. Status and dates are never
// touched, so assigning a plan to inactive equipment fails the registry's
// status/plan check.
func (s *EquipmentStore) UpdateEquipment(
	ctx context.Context, equipmentID string, upd models.EquipmentUpdate,
) (*models.Equipment, error) {
	setClauses := make([]string, 0, 2)
	args := []any{equipmentID}

	if upd.PlanID != nil {
		args = append(args, nullable(*upd.PlanID))
		setClauses = append(setClauses, fmt.Sprintf("plan_id = $%d", len(args)))
	}

	if upd.Notes != nil {
		args = append(args, *upd.Notes)
		setClauses = append(setClauses, fmt.Sprintf("notes = $%d", len(args)))
	}

	if len(setClauses) == 0 {
		return s.GetEquipment(ctx, equipmentID)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.mutate(ctx, "updating equipment", strings.Join(setClauses, ", "), args...)
}

// mutate runs UPDATE equipment SET <set>, updated_at = now() WHERE id = $1 and
// returns the resolved row from the same statement.
func (s *EquipmentStore) mutate(ctx context.Context, op, set string, args ...any) (*models.Equipment, error) {
	query := `WITH e AS (
			UPDATE equipment SET ` + set + `, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + equipmentColumns + ` FROM e` + equipmentJoins

	return s.queryOne(ctx, op, query, args...)
}

func (s *EquipmentStore) queryOne(ctx context.Context, op, query string, args ...any) (*models.Equipment, error) {
	eq, err := scanEquipment(s.Pool.QueryRow(ctx, query, args...).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrEquipmentNotFound
		}

		return nil, fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	return eq, nil
}
