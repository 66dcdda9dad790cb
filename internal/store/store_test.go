package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/db"
	"github.com/sliea/antennadesk/internal/db/migrations"
	"github.com/sliea/antennadesk/internal/dbpool"
	"github.com/sliea/antennadesk/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL, dbpool.Options{MaxConns: 4, ApplicationName: "antennadesk-test"})
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		t.Fatalf("migrating test DB: %v", err)
	}

	sharedEnv = &testEnv{pool: pool, log: log}

	return sharedEnv
}

// fixture is a minimal world: a client, a staff member, a supplier with two
// plans, and one active and one inactive antenna owned by the client.
type fixture struct {
	base     store.Base
	client   string
	staff    string
	supplier string
	plan1    string
	plan2    string
	active   string
	inactive string
}

// setupFixture inserts fresh records, removed again after the test.
func setupFixture(t *testing.T) *fixture {
	t.Helper()

	env := getTestEnv(t)
	ctx := context.Background()
	tag := uuid.NewString()[:8]

	f := &fixture{
		base:     store.Base{Pool: env.pool, Log: env.log},
		client:   uuid.NewString(),
		staff:    uuid.NewString(),
		supplier: uuid.NewString(),
		plan1:    uuid.NewString(),
		plan2:    uuid.NewString(),
		active:   uuid.NewString(),
		inactive: uuid.NewString(),
	}

	stmts := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO users (id, username, email, role) VALUES ($1, $2, $3, 'user')`,
			[]any{f.client, "client-" + tag, "client-" + tag + "@example.com"}},
		{`INSERT INTO users (id, username, email, role) VALUES ($1, $2, $3, 'admin')`,
			[]any{f.staff, "staff-" + tag, "staff-" + tag + "@example.com"}},
		{`INSERT INTO suppliers (id, name, email) VALUES ($1, $2, $3)`,
			[]any{f.supplier, "supplier-" + tag, "supplier-" + tag + "@example.com"}},
		{`INSERT INTO plans (id, supplier_id, name, data_amount, price) VALUES ($1, $2, 'Basic', '50GB', 19.99)`,
			[]any{f.plan1, f.supplier}},
		{`INSERT INTO plans (id, supplier_id, name, data_amount, price) VALUES ($1, $2, 'Unlimited', 'unlimited', 49.50)`,
			[]any{f.plan2, f.supplier}},
		{`INSERT INTO equipment (id, kit_number, name, client_id, supplier_id, status, plan_id, activation_date)
			VALUES ($1, $2, 'Roof antenna', $3, $4, 'active', $5, now())`,
			[]any{f.active, "KIT-A-" + tag, f.client, f.supplier, f.plan1}},
		{`INSERT INTO equipment (id, kit_number, name, client_id, supplier_id, status)
			VALUES ($1, $2, 'Spare antenna', $3, $4, 'inactive')`,
			[]any{f.inactive, "KIT-I-" + tag, f.client, f.supplier}},
	}

	for _, st := range stmts {
		if _, err := env.pool.Exec(ctx, st.sql, st.args...); err != nil {
			t.Fatalf("seeding fixture: %v", err)
		}
	}

	t.Cleanup(func() {
		cleanCtx := context.Background()
		// Delete in dependency order: requests, equipment, plans, supplier, users.
		env.pool.Exec(cleanCtx, "DELETE FROM requests WHERE client_id = $1", f.client)                //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM equipment WHERE id IN ($1, $2)", f.active, f.inactive) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM plans WHERE supplier_id = $1", f.supplier)             //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM suppliers WHERE id = $1", f.supplier)                  //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM users WHERE id IN ($1, $2)", f.client, f.staff)        //nolint:errcheck // best-effort cleanup
	})

	return f
}
