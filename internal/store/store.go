// Package store provides focused, single-concern data access stores backed
// by PostgreSQL.
//
// Each store owns one record type (requests, equipment, plans, users) and
// embeds shared helpers via the Base struct. Stores never import each other;
// shared logic lives in this file or in scan.go.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/dbpool"
	"github.com/sliea/antennadesk/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// PostgreSQL error codes mapped to model errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
)

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// mapPgError translates constraint violations into model errors. Errors that
// are not PostgreSQL errors are returned unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return models.ErrDuplicateKey
	case pgForeignKeyViolation:
		return foreignKeyError(pgErr.ConstraintName)
	case pgCheckViolation:
		if strings.HasPrefix(pgErr.ConstraintName, "equipment_status_plan") {
			return models.ErrInvalidEquipment
		}

		return models.NewValidationError("constraint %s violated", pgErr.ConstraintName)
	case pgInvalidText:
		return models.NewValidationError("invalid identifier")
	}

	return err
}

// foreignKeyError maps a foreign key constraint name to the not-found error
// of the referenced record.
func foreignKeyError(constraint string) error {
	switch {
	case strings.Contains(constraint, "plan_id"):
		return models.ErrPlanNotFound
	case strings.Contains(constraint, "equipment_id"):
		return models.ErrEquipmentNotFound
	case strings.Contains(constraint, "client_id"),
		strings.Contains(constraint, "staff_id"),
		strings.Contains(constraint, "completed_by_id"):
		return models.ErrUserNotFound
	}

	return models.NewValidationError("reference %s does not exist", constraint)
}

// nullable converts an empty id into SQL NULL.
func nullable(id string) any {
	if id == "" {
		return nil
	}

	return id
}
