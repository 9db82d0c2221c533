package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/association-platform/internal/model"
)

const registrationColumns = "id, tenant_id, event_id, user_id, ticket_type_id, status, payment_status, payment_id, amount_cents, confirmation_code, checked_in, check_in_time, created_at, updated_at"

// RegistrationRepo persists event registrations. The (user_id, event_id)
// unique key backs the one-registration-per-event rule.
type RegistrationRepo struct{ DB *sql.DB }

func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{DB: db} }

func scanRegistration(row interface{ Scan(...any) error }) (model.Registration, error) {
	var (
		reg       model.Registration
		checkInAt sql.NullTime
	)
	err := row.Scan(&reg.ID, &reg.TenantID, &reg.EventID, &reg.UserID, &reg.TicketTypeID, &reg.Status,
		&reg.PaymentStatus, &reg.PaymentID, &reg.AmountCents, &reg.ConfirmationCode, &reg.CheckedIn,
		&checkInAt, &reg.CreatedAt, &reg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return reg, ErrNotFound
	}
	reg.CheckInTime = timePtr(checkInAt)
	return reg, err
}

// Create inserts reg. ErrConflict means the user already holds a
// registration for the event.
func (r *RegistrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO event_registrations (tenant_id, event_id, user_id, ticket_type_id, status, payment_status, payment_id, amount_cents, confirmation_code, checked_in, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		reg.TenantID, reg.EventID, reg.UserID, reg.TicketTypeID, reg.Status, reg.PaymentStatus,
		reg.PaymentID, reg.AmountCents, reg.ConfirmationCode, false, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	if reg.ID, err = lastInsertID(res); err != nil {
		return err
	}
	reg.CreatedAt, reg.UpdatedAt = now, now
	return nil
}

// ExistsForUserEvent reports whether userID already registered for eventID.
func (r *RegistrationRepo) ExistsForUserEvent(ctx context.Context, userID, eventID uint64) (bool, error) {
	var one int
	err := conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT 1 FROM event_registrations WHERE user_id=? AND event_id=? LIMIT 1", userID, eventID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *RegistrationRepo) Get(ctx context.Context, tenantID, id uint64) (model.Registration, error) {
	return scanRegistration(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM event_registrations WHERE id=? AND tenant_id=?", id, tenantID))
}

func (r *RegistrationRepo) GetByCode(ctx context.Context, tenantID uint64, code string) (model.Registration, error) {
	return scanRegistration(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM event_registrations WHERE confirmation_code=? AND tenant_id=?", code, tenantID))
}

// ListByUser returns a user's registrations, newest first.
func (r *RegistrationRepo) ListByUser(ctx context.Context, tenantID, userID uint64) ([]model.Registration, error) {
	return r.list(ctx, sq.Eq{"tenant_id": tenantID, "user_id": userID}, Page{})
}

// ListByEvent returns an event's registrations, newest first.
func (r *RegistrationRepo) ListByEvent(ctx context.Context, tenantID, eventID uint64, page Page) ([]model.Registration, error) {
	return r.list(ctx, sq.Eq{"tenant_id": tenantID, "event_id": eventID}, page)
}

func (r *RegistrationRepo) list(ctx context.Context, where sq.Eq, page Page) ([]model.Registration, error) {
	page = page.Normalize()
	q, args, err := sq.Select(registrationColumns).From("event_registrations").Where(where).
		OrderBy("id DESC").Limit(page.Limit).Offset(page.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := conn(ctx, r.DB).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// Transition moves a registration from one status to another. ErrConflict
// means the row was no longer in the from status.
func (r *RegistrationRepo) Transition(ctx context.Context, id uint64, from, to model.RegistrationStatus, pay model.PaymentStatus) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"UPDATE event_registrations SET status=?, payment_status=?, updated_at=? WHERE id=? AND status=?",
		to, pay, time.Now().UTC(), id, from)
	if err != nil {
		return err
	}
	if err := rowsAffected(res); err != nil {
		return ErrConflict
	}
	return nil
}

// CheckIn marks a confirmed registration as checked in. ErrConflict means it
// was already checked in or is not confirmed.
func (r *RegistrationRepo) CheckIn(ctx context.Context, id uint64, at time.Time) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"UPDATE event_registrations SET checked_in=?, check_in_time=?, updated_at=? WHERE id=? AND checked_in=? AND status=?",
		true, at.UTC(), at.UTC(), id, false, model.RegistrationConfirmed)
	if err != nil {
		return err
	}
	if err := rowsAffected(res); err != nil {
		return ErrConflict
	}
	return nil
}
