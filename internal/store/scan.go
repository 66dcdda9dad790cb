package store

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sliea/antennadesk/internal/models"
)

// userCols holds a nullable left-joined user reference.
type userCols struct {
	id, username, email *string
}

func (u *userCols) dest() []any { return []any{&u.id, &u.username, &u.email} }

func (u *userCols) ref() *models.UserRef {
	if u.id == nil {
		return nil
	}

	return &models.UserRef{ID: *u.id, Username: deref(u.username), Email: deref(u.email)}
}

// planCols holds a nullable left-joined plan reference.
type planCols struct {
	id, name, dataAmount, price *string
}

func (p *planCols) dest() []any { return []any{&p.id, &p.name, &p.dataAmount, &p.price} }

func (p *planCols) ref() (*models.PlanRef, error) {
	if p.id == nil {
		return nil, nil
	}

	price, err := parseDecimal(p.price)
	if err != nil {
		return nil, fmt.Errorf("plan %s price: %w", *p.id, err)
	}

	return &models.PlanRef{ID: *p.id, Name: deref(p.name), DataAmount: deref(p.dataAmount), Price: price.Decimal}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

// parseDecimal converts a NUMERIC column selected as text.
func parseDecimal(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}

	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}

	return decimal.NewNullDecimal(d), nil
}

// requestSelect selects a request with every reference resolved. Callers
// append a WHERE clause.
const requestSelect = `SELECT r.id::text, r.type, r.status, r.notes,
	r.started_at, r.completed_at, r.created_at, r.updated_at,
	c.id::text, c.username, c.email,
	e.id::text, e.kit_number, e.name, e.status,
	cp.id::text, cp.name, cp.data_amount, cp.price::text,
	tp.id::text, tp.name, tp.data_amount, tp.price::text,
	s.id::text, s.username, s.email,
	cb.id::text, cb.username, cb.email
FROM requests r
JOIN users c ON c.id = r.client_id
LEFT JOIN equipment e ON e.id = r.equipment_id
LEFT JOIN plans cp ON cp.id = r.current_plan_id
LEFT JOIN plans tp ON tp.id = r.target_plan_id
LEFT JOIN users s ON s.id = r.assigned_staff_id
LEFT JOIN users cb ON cb.id = r.completed_by_id`

// scanRequest scans a single requestSelect row into a models.Request.
func scanRequest(scan func(dest ...any) error) (*models.Request, error) {
	var (
		r                         models.Request
		client, staff, completer  userCols
		currentPlan, targetPlan   planCols
		eqID, eqKit, eqName, eqSt *string
	)

	dest := []any{
		&r.ID, &r.Type, &r.Status, &r.Notes,
		&r.StartedAt, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt,
	}
	dest = append(dest, client.dest()...)
	dest = append(dest, &eqID, &eqKit, &eqName, &eqSt)
	dest = append(dest, currentPlan.dest()...)
	dest = append(dest, targetPlan.dest()...)
	dest = append(dest, staff.dest()...)
	dest = append(dest, completer.dest()...)

	if err := scan(dest...); err != nil {
		return nil, err
	}

	r.Client = client.ref()
	r.AssignedStaff = staff.ref()
	r.CompletedBy = completer.ref()

	if eqID != nil {
		r.Equipment = &models.EquipmentRef{
			ID:        *eqID,
			KitNumber: deref(eqKit),
			Name:      deref(eqName),
			Status:    models.EquipmentStatus(deref(eqSt)),
		}
	}

	var err error
	if r.CurrentPlan, err = currentPlan.ref(); err != nil {
		return nil, err
	}

	if r.TargetPlan, err = targetPlan.ref(); err != nil {
		return nil, err
	}

	return &r, nil
}

// collectRequests scans all rows into a request slice.
func collectRequests(rows pgx.Rows) ([]models.Request, error) {
	requests := make([]models.Request, 0, 16)

	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning request row: %w", err)
		}

		requests = append(requests, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating request rows: %w", err)
	}

	return requests, nil
}

// equipmentColumns selects an equipment row (aliased e) with its client,
// supplier, and plan resolved.
const equipmentColumns = `e.id::text, e.kit_number, e.name, e.purchase_type,
	e.paid_installments, e.total_installments, e.installment_amount::text,
	e.status, e.activation_date, e.deactivation_date, e.notes,
	e.created_at, e.updated_at,
	c.id::text, c.username, c.email,
	s.id::text, s.name, s.email,
	p.id::text, p.name, p.data_amount, p.price::text`

// equipmentJoins resolves the references of the row aliased e.
const equipmentJoins = `
LEFT JOIN users c ON c.id = e.client_id
LEFT JOIN suppliers s ON s.id = e.supplier_id
LEFT JOIN plans p ON p.id = e.plan_id`

// scanEquipment scans a single equipmentColumns row into a models.Equipment.
func scanEquipment(scan func(dest ...any) error) (*models.Equipment, error) {
	var (
		e                    models.Equipment
		installment          *string
		client               userCols
		supID, supName, supE *string
		plan                 planCols
	)

	dest := []any{
		&e.ID, &e.KitNumber, &e.Name, &e.PurchaseType,
		&e.PaidInstallments, &e.TotalInstallments, &installment,
		&e.Status, &e.ActivationDate, &e.DeactivationDate, &e.Notes,
		&e.CreatedAt, &e.UpdatedAt,
	}
	dest = append(dest, client.dest()...)
	dest = append(dest, &supID, &supName, &supE)
	dest = append(dest, plan.dest()...)

	if err := scan(dest...); err != nil {
		return nil, err
	}

	amount, err := parseDecimal(installment)
	if err != nil {
		return nil, fmt.Errorf("equipment %s installment amount: %w", e.ID, err)
	}

	e.InstallmentAmount = amount
	e.Client = client.ref()

	if supID != nil {
		e.Supplier = &models.SupplierRef{ID: *supID, Name: deref(supName), Email: deref(supE)}
	}

	if e.Plan, err = plan.ref(); err != nil {
		return nil, err
	}

	return &e, nil
}
