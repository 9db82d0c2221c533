// Package testutil provides helpers for tests that need a migrated database.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/iliyamo/association-platform/internal/config"
	"github.com/iliyamo/association-platform/internal/database"
	"github.com/iliyamo/association-platform/internal/model"
)

// NewTestDB returns a migrated SQLite database stored in a per-test
// temporary directory.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db, config.DriverSQLite, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// InsertTenant creates a tenant row and returns its ID.
func InsertTenant(t *testing.T, db *sql.DB, slug string, tier model.PlanTier) uint64 {
	t.Helper()
	now := time.Now().UTC()
	res, err := db.Exec(`INSERT INTO tenants (name, slug, plan_tier, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		slug, slug, tier, true, now, now)
	if err != nil {
		t.Fatalf("insert tenant: %v", err)
	}
	return lastID(t, res)
}

// InsertUser creates an active member of tenantID and returns its ID.
func InsertUser(t *testing.T, db *sql.DB, tenantID uint64, email string, role model.Role) uint64 {
	t.Helper()
	now := time.Now().UTC()
	res, err := db.Exec(`INSERT INTO users (tenant_id, email, password_hash, full_name, phone, bio, role, membership_tier, is_active, is_platform_admin, created_at, updated_at)
VALUES (?, ?, 'x', ?, '', '', ?, '', ?, ?, ?, ?)`,
		tenantID, email, email, role, true, false, now, now)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return lastID(t, res)
}

// InsertEvent creates a published event and returns its ID.
func InsertEvent(t *testing.T, db *sql.DB, tenantID uint64, title string) uint64 {
	t.Helper()
	now := time.Now().UTC()
	res, err := db.Exec(`INSERT INTO events (tenant_id, title, description, location, region, event_type, start_time, end_time, capacity, status, is_public, created_at, updated_at)
VALUES (?, ?, '', '', '', '', ?, ?, 0, 'PUBLISHED', ?, ?, ?)`,
		tenantID, title, now.Add(24*time.Hour), now.Add(26*time.Hour), true, now, now)
	if err != nil {
		t.Fatalf("insert event: %v", err)
	}
	return lastID(t, res)
}

// InsertTicketType creates an active ticket type and returns its ID.
func InsertTicketType(t *testing.T, db *sql.DB, eventID uint64, priceCents int64, available int) uint64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO ticket_types (event_id, name, description, price_cents, currency, quantity_available, quantity_sold, is_active, created_at)
VALUES (?, 'General', '', ?, 'EUR', ?, 0, ?, ?)`,
		eventID, priceCents, available, true, time.Now().UTC())
	if err != nil {
		t.Fatalf("insert ticket type: %v", err)
	}
	return lastID(t, res)
}

func lastID(t *testing.T, res sql.Result) uint64 {
	t.Helper()
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}
	return uint64(id)
}
