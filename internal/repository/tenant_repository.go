package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/association-platform/internal/model"
)

const tenantColumns = "id, name, slug, plan_tier, is_active, created_at, updated_at"

// TenantRepo persists organizations.
type TenantRepo struct{ DB *sql.DB }

func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{DB: db} }

// TenantUpdate lists the mutable tenant fields; nil means unchanged.
type TenantUpdate struct {
	Name     *string
	PlanTier *model.PlanTier
	IsActive *bool
}

func scanTenant(row interface{ Scan(...any) error }) (model.Tenant, error) {
	var t model.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.PlanTier, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

// Create inserts t and fills its ID and timestamps.
func (r *TenantRepo) Create(ctx context.Context, t *model.Tenant) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO tenants (name, slug, plan_tier, is_active, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		t.Name, t.Slug, t.PlanTier, t.IsActive, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugExists
		}
		return err
	}
	if t.ID, err = lastInsertID(res); err != nil {
		return err
	}
	t.CreatedAt, t.UpdatedAt = now, now
	return nil
}

func (r *TenantRepo) GetByID(ctx context.Context, id uint64) (model.Tenant, error) {
	return scanTenant(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE id=?", id))
}

func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (model.Tenant, error) {
	return scanTenant(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE slug=?", slug))
}

// List returns tenants ordered by ID.
func (r *TenantRepo) List(ctx context.Context, page Page) ([]model.Tenant, error) {
	page = page.Normalize()
	q, args, err := sq.Select(tenantColumns).From("tenants").
		OrderBy("id").Limit(page.Limit).Offset(page.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := conn(ctx, r.DB).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update applies u to tenant id and returns the updated row.
func (r *TenantRepo) Update(ctx context.Context, id uint64, u TenantUpdate) (model.Tenant, error) {
	set := map[string]any{"updated_at": time.Now().UTC()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.PlanTier != nil {
		set["plan_tier"] = *u.PlanTier
	}
	if u.IsActive != nil {
		set["is_active"] = *u.IsActive
	}
	q, args, err := sq.Update("tenants").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return model.Tenant{}, err
	}
	res, err := conn(ctx, r.DB).ExecContext(ctx, q, args...)
	if err != nil {
		return model.Tenant{}, err
	}
	if err := rowsAffected(res); err != nil {
		return model.Tenant{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes the tenant; dependent rows cascade.
func (r *TenantRepo) Delete(ctx context.Context, id uint64) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, "DELETE FROM tenants WHERE id=?", id)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}
