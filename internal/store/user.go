package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sliea/antennadesk/internal/domain"
	"github.com/sliea/antennadesk/internal/models"
)

// Compile-time check: *UserStore must satisfy domain.UserRegistry.
var _ domain.UserRegistry = (*UserStore)(nil)

// UserStore resolves clients and staff.
type UserStore struct {
	Base
}

// NewUserStore creates a new UserStore.
func NewUserStore(base Base) *UserStore {
	return &UserStore{Base: base}
}

// GetUser returns a single user.
func (s *UserStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var u models.User

	err := s.Pool.QueryRow(ctx, `SELECT id::text, username, email, role, created_at
		FROM users WHERE id = $1`, userID).
		Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}

		return nil, fmt.Errorf("getting user: %w", mapPgError(err))
	}

	return &u, nil
}
