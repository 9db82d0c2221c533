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

const (
	donorColumns    = "id, tenant_id, user_id, first_name, last_name, email, phone, created_at"
	campaignColumns = "id, tenant_id, name, description, goal_cents, current_cents, start_date, end_date, is_active, created_at"
	donationColumns = "id, tenant_id, donor_id, campaign_id, amount_cents, currency, payment_method, payment_status, transaction_id, created_at"
)

// FundraisingRepo persists donors, campaigns and donations.
type FundraisingRepo struct{ DB *sql.DB }

func NewFundraisingRepo(db *sql.DB) *FundraisingRepo { return &FundraisingRepo{DB: db} }

func scanDonor(row interface{ Scan(...any) error }) (model.Donor, error) {
	var (
		d      model.Donor
		userID sql.NullInt64
	)
	err := row.Scan(&d.ID, &d.TenantID, &userID, &d.FirstName, &d.LastName, &d.Email, &d.Phone, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNotFound
	}
	d.UserID = idPtr(userID)
	return d, err
}

// UpsertDonor returns the tenant's donor with d.Email, creating it from d
// when none exists. created reports whether a row was inserted.
func (r *FundraisingRepo) UpsertDonor(ctx context.Context, d *model.Donor) (created bool, err error) {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	existing, err := r.GetDonorByEmail(ctx, d.TenantID, d.Email)
	if err == nil {
		*d = existing
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO donors (tenant_id, user_id, first_name, last_name, email, phone, created_at) VALUES (?,?,?,?,?,?,?)",
		d.TenantID, nullID(d.UserID), d.FirstName, d.LastName, d.Email, d.Phone, now)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent insert of the same email.
			existing, gerr := r.GetDonorByEmail(ctx, d.TenantID, d.Email)
			if gerr != nil {
				return false, gerr
			}
			*d = existing
			return false, nil
		}
		return false, err
	}
	if d.ID, err = lastInsertID(res); err != nil {
		return false, err
	}
	d.CreatedAt = now
	return true, nil
}

func (r *FundraisingRepo) GetDonor(ctx context.Context, tenantID, id uint64) (model.Donor, error) {
	return scanDonor(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+donorColumns+" FROM donors WHERE id=? AND tenant_id=?", id, tenantID))
}

func (r *FundraisingRepo) GetDonorByEmail(ctx context.Context, tenantID uint64, email string) (model.Donor, error) {
	return scanDonor(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+donorColumns+" FROM donors WHERE tenant_id=? AND email=?", tenantID, strings.ToLower(email)))
}

func (r *FundraisingRepo) ListDonors(ctx context.Context, tenantID uint64, page Page) ([]model.Donor, error) {
	page = page.Normalize()
	q, args, err := sq.Select(donorColumns).From("donors").Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("last_name", "first_name", "id").Limit(page.Limit).Offset(page.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := conn(ctx, r.DB).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Donor{}
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanCampaign(row interface{ Scan(...any) error }) (model.Campaign, error) {
	var (
		c          model.Campaign
		start, end sql.NullTime
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.GoalCents, &c.CurrentCents,
		&start, &end, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	c.StartDate, c.EndDate = timePtr(start), timePtr(end)
	return c, err
}

func (r *FundraisingRepo) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO campaigns (tenant_id, name, description, goal_cents, current_cents, start_date, end_date, is_active, created_at)
		 VALUES (?,?,?,?,0,?,?,?,?)`,
		c.TenantID, c.Name, c.Description, c.GoalCents, nullTime(c.StartDate), nullTime(c.EndDate), c.IsActive, now)
	if err != nil {
		return err
	}
	if c.ID, err = lastInsertID(res); err != nil {
		return err
	}
	c.CurrentCents = 0
	c.CreatedAt = now
	return nil
}

func (r *FundraisingRepo) GetCampaign(ctx context.Context, tenantID, id uint64) (model.Campaign, error) {
	return scanCampaign(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+campaignColumns+" FROM campaigns WHERE id=? AND tenant_id=?", id, tenantID))
}

func (r *FundraisingRepo) ListCampaigns(ctx context.Context, tenantID uint64, activeOnly bool) ([]model.Campaign, error) {
	b := sq.Select(campaignColumns).From("campaigns").Where(sq.Eq{"tenant_id": tenantID})
	if activeOnly {
		b = b.Where(sq.Eq{"is_active": true})
	}
	q, args, err := b.OrderBy("id DESC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := conn(ctx, r.DB).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddToCampaign adds amountCents to a campaign's running total in one
// statement.
func (r *FundraisingRepo) AddToCampaign(ctx context.Context, tenantID, campaignID uint64, amountCents int64) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"UPDATE campaigns SET current_cents = current_cents + ? WHERE id=? AND tenant_id=?",
		amountCents, campaignID, tenantID)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (r *FundraisingRepo) CreateDonation(ctx context.Context, d *model.Donation) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO donations (tenant_id, donor_id, campaign_id, amount_cents, currency, payment_method, payment_status, transaction_id, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		d.TenantID, d.DonorID, nullID(d.CampaignID), d.AmountCents, d.Currency, d.PaymentMethod,
		d.PaymentStatus, d.TransactionID, now)
	if err != nil {
		return err
	}
	if d.ID, err = lastInsertID(res); err != nil {
		return err
	}
	d.CreatedAt = now
	return nil
}

// ListDonations returns the tenant's donations, optionally for one donor.
func (r *FundraisingRepo) ListDonations(ctx context.Context, tenantID, donorID uint64, page Page) ([]model.Donation, error) {
	page = page.Normalize()
	b := sq.Select(donationColumns).From("donations").Where(sq.Eq{"tenant_id": tenantID})
	if donorID != 0 {
		b = b.Where(sq.Eq{"donor_id": donorID})
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

	out := []model.Donation{}
	for rows.Next() {
		var (
			d          model.Donation
			campaignID sql.NullInt64
		)
		if err := rows.Scan(&d.ID, &d.TenantID, &d.DonorID, &campaignID, &d.AmountCents, &d.Currency,
			&d.PaymentMethod, &d.PaymentStatus, &d.TransactionID, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.CampaignID = idPtr(campaignID)
		out = append(out, d)
	}
	return out, rows.Err()
}
