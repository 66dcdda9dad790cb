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

// Compile-time check: *RequestStore must satisfy domain.RequestStore.
var _ domain.RequestStore = (*RequestStore)(nil)

// RequestStore handles request persistence and queries.
type RequestStore struct {
	Base
}

// NewRequestStore creates a new RequestStore.
func NewRequestStore(base Base) *RequestStore {
	return &RequestStore{Base: base}
}

// CreateRequest inserts a new request and returns its id.
func (s *RequestStore) CreateRequest(ctx context.Context, req models.NewRequest) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO requests
		(type, status, client_id, equipment_id, current_plan_id, target_plan_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text`

	var id string

	err := s.Pool.QueryRow(ctx, query,
		req.Type, req.Status, req.ClientID, nullable(req.EquipmentID),
		req.CurrentPlanID, req.TargetPlanID, req.Notes,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("inserting request: %w", mapPgError(err))
	}

	return id, nil
}

// GetRequest returns a single request with all references resolved.
func (s *RequestStore) GetRequest(ctx context.Context, requestID string) (*models.Request, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	r, err := scanRequest(s.Pool.QueryRow(ctx, requestSelect+` WHERE r.id = $1`, requestID).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRequestNotFound
		}

		return nil, fmt.Errorf("getting request: %w", mapPgError(err))
	}

	return r, nil
}

// ListRequests returns a page of requests matching the filter, newest first,
// and whether more rows exist past the page.
func (s *RequestStore) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.Request, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var (
		conds []string
		args  []any
	)

	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("r.status = $%d", len(args)))
	}

	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("r.type = $%d", len(args)))
	}

	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conds = append(conds, fmt.Sprintf("r.client_id = $%d", len(args)))
	}

	query := requestSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := clampLimit(filter.Limit)
	args = append(args, limit+1, max(filter.Offset, 0))
	query += fmt.Sprintf(" ORDER BY r.created_at DESC, r.id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("listing requests: %w", mapPgError(err))
	}
	defer rows.Close()

	requests, err := collectRequests(rows)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(requests) > limit
	if hasMore {
		requests = requests[:limit]
	}

	return requests, hasMore, nil
}

// RequestsByClient returns a client's requests, newest first. When statuses
// are given only requests in one of them are returned.
func (s *RequestStore) RequestsByClient(
	ctx context.Context, clientID string, statuses ...models.RequestStatus,
) ([]models.Request, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := requestSelect + ` WHERE r.client_id = $1`
	args := []any{clientID}

	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = string(st)
		}

		query += ` AND r.status = ANY($2)`
		args = append(args, names)
	}

	query += ` ORDER BY r.created_at DESC, r.id`

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing client requests: %w", mapPgError(err))
	}
	defer rows.Close()

	return collectRequests(rows)
}

// UpdateStatus applies a status transition as a single conditional write.
// The row is only updated while its status still equals upd.Expected, which
// serializes concurrent transitions of the same request. Supplying a staff
// member stamps started_at the first time; completing stamps completed_at.
func (s *RequestStore) UpdateStatus(ctx context.Context, requestID string, upd models.StatusUpdate) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `UPDATE requests SET
			status = $2::text,
			assigned_staff_id = COALESCE($3::uuid, assigned_staff_id),
			started_at = CASE WHEN $3::uuid IS NOT NULL AND started_at IS NULL
				THEN now() ELSE started_at END,
			completed_at = CASE WHEN $2::text = 'completed'
				THEN COALESCE(completed_at, now()) ELSE completed_at END,
			completed_by_id = CASE WHEN $2::text = 'completed'
				THEN COALESCE($4::uuid, completed_by_id) ELSE completed_by_id END,
			updated_at = now()
		WHERE id = $1 AND status = $5`

	tag, err := s.Pool.Exec(ctx, query,
		requestID, upd.Status, nullable(upd.AssignedStaffID), nullable(upd.CompletedByID), upd.Expected,
	)
	if err != nil {
		return fmt.Errorf("updating request status: %w", mapPgError(err))
	}

	if tag.RowsAffected() == 0 {
		return s.missingOrConflict(ctx, requestID)
	}

	return nil
}

// missingOrConflict explains why a conditional update touched no rows.
func (s *RequestStore) missingOrConflict(ctx context.Context, requestID string) error {
	var exists bool

	err := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM requests WHERE id = $1)`, requestID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking request: %w", mapPgError(err))
	}

	if !exists {
		return models.ErrRequestNotFound
	}

	return models.ErrStatusConflict
}

// buildRequestUpdate constructs the SET clauses and arguments for UpdateRequest.
// Argument $1 is reserved for the request id.
func buildRequestUpdate(upd models.UpdateRequestRequest) (setClauses []string, args []any) {
	setClauses = make([]string, 0, 4)
	args = make([]any, 0, 4)

	if upd.Notes != nil {
		args = append(args, *upd.Notes)
		setClauses = append(setClauses, fmt.Sprintf("notes = $%d", len(args)+1))
	}

	switch {
	case upd.ClearsTargetPlan():
		setClauses = append(setClauses, "target_plan_id = NULL")
	case upd.TargetPlanID != nil:
		args = append(args, *upd.TargetPlanID)
		setClauses = append(setClauses, fmt.Sprintf("target_plan_id = $%d", len(args)+1))
	}

	if upd.AssignedStaffID != nil {
		args = append(args, *upd.AssignedStaffID)
		setClauses = append(setClauses,
			fmt.Sprintf("assigned_staff_id = $%d", len(args)+1),
			"started_at = COALESCE(started_at, now())",
		)
	}

	return setClauses, args
}

// UpdateRequest applies a generic field update to a request.
func (s *RequestStore) UpdateRequest(ctx context.Context, requestID string, upd models.UpdateRequestRequest) error {
	setClauses, args := buildRequestUpdate(upd)
	if len(setClauses) == 0 {
		return models.ErrNoFieldsToUpdate
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `UPDATE requests SET ` + strings.Join(setClauses, ", ") + `, updated_at = now() WHERE id = $1`

	tag, err := s.Pool.Exec(ctx, query, append([]any{requestID}, args...)...)
	if err != nil {
		return fmt.Errorf("updating request: %w", mapPgError(err))
	}

	if tag.RowsAffected() == 0 {
		return models.ErrRequestNotFound
	}

	return nil
}

// DeleteRequest removes a request.
func (s *RequestStore) DeleteRequest(ctx context.Context, requestID string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `DELETE FROM requests WHERE id = $1`, requestID)
	if err != nil {
		return fmt.Errorf("deleting request: %w", mapPgError(err))
	}

	if tag.RowsAffected() == 0 {
		return models.ErrRequestNotFound
	}

	return nil
}

// RequestStats counts requests grouped by status and type, in lifecycle order.
func (s *RequestStore) RequestStats(ctx context.Context) ([]models.RequestStat, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT status, type, count(*)
		FROM requests
		GROUP BY status, type
		ORDER BY array_position(ARRAY['pending', 'in_progress', 'completed'], status), type`

	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("counting requests: %w", err)
	}
	defer rows.Close()

	stats := make([]models.RequestStat, 0, 9)

	for rows.Next() {
		var st models.RequestStat
		if err := rows.Scan(&st.Status, &st.Type, &st.Count); err != nil {
			return nil, fmt.Errorf("scanning request stat: %w", err)
		}

		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating request stats: %w", err)
	}

	return stats, nil
}
