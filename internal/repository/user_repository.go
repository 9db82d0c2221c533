package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/association-platform/internal/model"
)

const userColumns = "id, tenant_id, email, password_hash, full_name, phone, bio, role, membership_tier, is_active, is_platform_admin, created_at, updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// UserUpdate lists fields an admin or the user can change; nil means unchanged.
type UserUpdate struct {
	FullName       *string
	Phone          *string
	Bio            *string
	Role           *model.Role
	MembershipTier *string
	IsActive       *bool
}

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var (
		u        model.User
		tenantID sql.NullInt64
	)
	err := row.Scan(&u.ID, &tenantID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Bio,
		&u.Role, &u.MembershipTier, &u.IsActive, &u.IsPlatformAdmin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	u.TenantID = idPtr(tenantID)
	return u, err
}

// Create inserts u (PasswordHash must already be set) and fills its ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO users (tenant_id, email, password_hash, full_name, phone, bio, role, membership_tier, is_active, is_platform_admin, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		nullID(u.TenantID), u.Email, u.PasswordHash, u.FullName, u.Phone, u.Bio,
		u.Role, u.MembershipTier, u.IsActive, u.IsPlatformAdmin, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return err
	}
	if u.ID, err = lastInsertID(res); err != nil {
		return err
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetInTenant fetches a user that belongs to tenantID.
func (r *UserRepo) GetInTenant(ctx context.Context, tenantID, id uint64) (model.User, error) {
	return scanUser(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND tenant_id=? LIMIT 1", id, tenantID))
}

// ListByTenant returns the tenant's users, optionally filtered by role.
func (r *UserRepo) ListByTenant(ctx context.Context, tenantID uint64, role model.Role, page Page) ([]model.User, error) {
	page = page.Normalize()
	b := sq.Select(userColumns).From("users").Where(sq.Eq{"tenant_id": tenantID})
	if role != "" {
		b = b.Where(sq.Eq{"role": role})
	}
	q, args, err := b.OrderBy("id").Limit(page.Limit).Offset(page.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := conn(ctx, r.DB).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update applies u to the user with id inside tenantID.
func (r *UserRepo) Update(ctx context.Context, tenantID, id uint64, u UserUpdate) (model.User, error) {
	set := map[string]any{"updated_at": time.Now().UTC()}
	if u.FullName != nil {
		set["full_name"] = strings.TrimSpace(*u.FullName)
	}
	if u.Phone != nil {
		set["phone"] = strings.TrimSpace(*u.Phone)
	}
	if u.Bio != nil {
		set["bio"] = *u.Bio
	}
	if u.Role != nil {
		set["role"] = *u.Role
	}
	if u.MembershipTier != nil {
		set["membership_tier"] = *u.MembershipTier
	}
	if u.IsActive != nil {
		set["is_active"] = *u.IsActive
	}
	q, args, err := sq.Update("users").SetMap(set).Where(sq.Eq{"id": id, "tenant_id": tenantID}).ToSql()
	if err != nil {
		return model.User{}, err
	}
	res, err := conn(ctx, r.DB).ExecContext(ctx, q, args...)
	if err != nil {
		return model.User{}, err
	}
	if err := rowsAffected(res); err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}
