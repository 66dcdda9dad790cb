package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sliea/antennadesk/internal/domain"
	"github.com/sliea/antennadesk/internal/models"
)

// Compile-time check: *PlanStore must satisfy domain.PlanRegistry.
var _ domain.PlanRegistry = (*PlanStore)(nil)

// PlanStore resolves connectivity plans.
type PlanStore struct {
	Base
}

// NewPlanStore creates a new PlanStore.
func NewPlanStore(base Base) *PlanStore {
	return &PlanStore{Base: base}
}

// GetPlan returns a single plan.
func (s *PlanStore) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var (
		p     models.Plan
		price string
	)

	err := s.Pool.QueryRow(ctx, `SELECT id::text, supplier_id::text, name, data_amount,
			price::text, active, created_at, updated_at
		FROM plans WHERE id = $1`, planID).
		Scan(&p.ID, &p.SupplierID, &p.Name, &p.DataAmount, &price, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPlanNotFound
		}

		return nil, fmt.Errorf("getting plan: %w", mapPgError(err))
	}

	amount, err := parseDecimal(&price)
	if err != nil {
		return nil, fmt.Errorf("plan %s price: %w", p.ID, err)
	}

	p.Price = amount.Decimal

	return &p, nil
}
