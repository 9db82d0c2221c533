package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/association-platform/internal/model"
)

const (
	feeColumns     = "id, tenant_id, name, description, amount_cents, currency, billing_interval, is_active, created_at"
	paymentColumns = "id, tenant_id, user_id, fee_id, amount_cents, currency, payment_method, status, transaction_id, paid_at, created_at"
)

// FeeRepo persists membership fees and fee payments.
type FeeRepo struct{ DB *sql.DB }

func NewFeeRepo(db *sql.DB) *FeeRepo { return &FeeRepo{DB: db} }

func scanFee(row interface{ Scan(...any) error }) (model.MembershipFee, error) {
	var f model.MembershipFee
	err := row.Scan(&f.ID, &f.TenantID, &f.Name, &f.Description, &f.AmountCents, &f.Currency, &f.Interval, &f.IsActive, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return f, ErrNotFound
	}
	return f, err
}

func (r *FeeRepo) CreateFee(ctx context.Context, f *model.MembershipFee) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO membership_fees (tenant_id, name, description, amount_cents, currency, billing_interval, is_active, created_at) VALUES (?,?,?,?,?,?,?,?)",
		f.TenantID, f.Name, f.Description, f.AmountCents, f.Currency, f.Interval, f.IsActive, now)
	if err != nil {
		return err
	}
	if f.ID, err = lastInsertID(res); err != nil {
		return err
	}
	f.CreatedAt = now
	return nil
}

func (r *FeeRepo) GetFee(ctx context.Context, tenantID, id uint64) (model.MembershipFee, error) {
	return scanFee(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+feeColumns+" FROM membership_fees WHERE id=? AND tenant_id=?", id, tenantID))
}

func (r *FeeRepo) ListFees(ctx context.Context, tenantID uint64, activeOnly bool) ([]model.MembershipFee, error) {
	b := sq.Select(feeColumns).From("membership_fees").Where(sq.Eq{"tenant_id": tenantID})
	if activeOnly {
		b = b.Where(sq.Eq{"is_active": true})
	}
	q, args, err := b.OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := conn(ctx, r.DB).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.MembershipFee{}
	for rows.Next() {
		f, err := scanFee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FeeRepo) CreatePayment(ctx context.Context, p *model.Payment) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO payments (tenant_id, user_id, fee_id, amount_cents, currency, payment_method, status, transaction_id, paid_at, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.TenantID, p.UserID, p.FeeID, p.AmountCents, p.Currency, p.PaymentMethod, p.Status,
		p.TransactionID, nullTime(p.PaidAt), now)
	if err != nil {
		return err
	}
	if p.ID, err = lastInsertID(res); err != nil {
		return err
	}
	p.CreatedAt = now
	return nil
}

// ListPayments returns the tenant's fee payments, optionally for one user.
func (r *FeeRepo) ListPayments(ctx context.Context, tenantID, userID uint64, page Page) ([]model.Payment, error) {
	page = page.Normalize()
	b := sq.Select(paymentColumns).From("payments").Where(sq.Eq{"tenant_id": tenantID})
	if userID != 0 {
		b = b.Where(sq.Eq{"user_id": userID})
	}
	q, args, err := b.OrderBy("id DESC").Limit(page.Limit).Offset(page.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := conn(ctx, r.DB).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Payment{}
	for rows.Next() {
		var (
			p      model.Payment
			paidAt sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.TenantID, &p.UserID, &p.FeeID, &p.AmountCents, &p.Currency,
			&p.PaymentMethod, &p.Status, &p.TransactionID, &paidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.PaidAt = timePtr(paidAt)
		out = append(out, p)
	}
	return out, rows.Err()
}
