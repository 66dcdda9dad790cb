package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/sliea/antennadesk/internal/db/migrations"
	"github.com/sliea/antennadesk/internal/dbpool"
)

// SchemaVersion returns the number of embedded SQL migrations, which equals
// the schema version a fully migrated database reports.
func SchemaVersion() int {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return 0
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			count++
		}
	}

	return count
}

// VersionReader reads the applied schema version from the goose version table.
type VersionReader struct {
	pool *dbpool.Pool
}

// NewVersionReader creates a VersionReader over pool.
func NewVersionReader(pool *dbpool.Pool) *VersionReader {
	return &VersionReader{pool: pool}
}

// CurrentVersion returns the highest applied migration version.
func (r *VersionReader) CurrentVersion(ctx context.Context) (int64, error) {
	var version int64

	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version_id), 0) FROM goose_db_version WHERE is_applied`,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}

	return version, nil
}
