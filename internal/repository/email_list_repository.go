package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/association-platform/internal/model"
)

const emailListColumns = "l.id, l.event_id, l.name, l.subject, l.body, l.recipients, l.status, l.sent_at, l.created_at"

// EmailListRepo persists per-event mailing lists. Recipients are stored as
// a JSON array in a single column.
type EmailListRepo struct{ DB *sql.DB }

func NewEmailListRepo(db *sql.DB) *EmailListRepo { return &EmailListRepo{DB: db} }

func scanEmailList(row interface{ Scan(...any) error }) (model.EmailList, error) {
	var (
		l      model.EmailList
		raw    string
		sentAt sql.NullTime
	)
	err := row.Scan(&l.ID, &l.EventID, &l.Name, &l.Subject, &l.Body, &raw, &l.Status, &sentAt, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return l, ErrNotFound
	}
	if err != nil {
		return l, err
	}
	if err := json.Unmarshal([]byte(raw), &l.Recipients); err != nil {
		return l, fmt.Errorf("email list %d recipients: %w", l.ID, err)
	}
	l.SentAt = timePtr(sentAt)
	return l, nil
}

func (r *EmailListRepo) Create(ctx context.Context, l *model.EmailList) error {
	if l.Recipients == nil {
		l.Recipients = []model.EmailRecipient{}
	}
	raw, err := json.Marshal(l.Recipients)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	l.Status = model.EmailListDraft
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO email_lists (event_id, name, subject, body, recipients, status, created_at) VALUES (?,?,?,?,?,?,?)",
		l.EventID, l.Name, l.Subject, l.Body, string(raw), l.Status, now)
	if err != nil {
		return err
	}
	if l.ID, err = lastInsertID(res); err != nil {
		return err
	}
	l.CreatedAt = now
	return nil
}

// Get returns a list of eventID only if the event belongs to tenantID.
func (r *EmailListRepo) Get(ctx context.Context, tenantID, eventID, id uint64) (model.EmailList, error) {
	return scanEmailList(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+emailListColumns+" FROM email_lists l JOIN events e ON e.id = l.event_id WHERE l.id=? AND l.event_id=? AND e.tenant_id=?",
		id, eventID, tenantID))
}

func (r *EmailListRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.EmailList, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx,
		"SELECT "+emailListColumns+" FROM email_lists l WHERE l.event_id=? ORDER BY l.id", eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.EmailList{}
	for rows.Next() {
		l, err := scanEmailList(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// MarkSent claims a list for sending. ErrConflict means it was already sent.
func (r *EmailListRepo) MarkSent(ctx context.Context, id uint64, at time.Time) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"UPDATE email_lists SET status=?, sent_at=? WHERE id=? AND status<>?",
		model.EmailListSent, at.UTC(), id, model.EmailListSent)
	if err != nil {
		return err
	}
	if err := rowsAffected(res); err != nil {
		return ErrConflict
	}
	return nil
}

// MarkFailed records that handing the list to the mailer failed, so it may
// be sent again.
func (r *EmailListRepo) MarkFailed(ctx context.Context, id uint64) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"UPDATE email_lists SET status=?, sent_at=NULL WHERE id=?", model.EmailListFailed, id)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}
