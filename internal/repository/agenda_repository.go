package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/association-platform/internal/model"
)

const sessionColumns = "s.id, s.event_id, s.title, s.description, s.start_time, s.end_time, s.location, s.speaker_name, s.created_at, s.updated_at"

// ownedSession matches sessions whose event belongs to a tenant.
const ownedSession = "event_id IN (SELECT id FROM events WHERE tenant_id=?)"

// AgendaRepo persists the sessions of event agendas.
type AgendaRepo struct{ DB *sql.DB }

func NewAgendaRepo(db *sql.DB) *AgendaRepo { return &AgendaRepo{DB: db} }

// SessionUpdate lists mutable session fields; nil means unchanged.
type SessionUpdate struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Location    *string
	SpeakerName *string
}

func scanSession(row interface{ Scan(...any) error }) (model.Session, error) {
	var s model.Session
	err := row.Scan(&s.ID, &s.EventID, &s.Title, &s.Description, &s.StartTime, &s.EndTime,
		&s.Location, &s.SpeakerName, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

func (r *AgendaRepo) Create(ctx context.Context, s *model.Session) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO event_sessions (event_id, title, description, start_time, end_time, location, speaker_name, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		s.EventID, s.Title, s.Description, s.StartTime.UTC(), s.EndTime.UTC(), s.Location, s.SpeakerName, now, now)
	if err != nil {
		return err
	}
	if s.ID, err = lastInsertID(res); err != nil {
		return err
	}
	s.CreatedAt, s.UpdatedAt = now, now
	return nil
}

// Get returns a session only if its event belongs to tenantID.
func (r *AgendaRepo) Get(ctx context.Context, tenantID, id uint64) (model.Session, error) {
	return scanSession(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM event_sessions s JOIN events e ON e.id = s.event_id WHERE s.id=? AND e.tenant_id=?",
		id, tenantID))
}

// ListByEvent returns the agenda in start order.
func (r *AgendaRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Session, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM event_sessions s WHERE s.event_id=? ORDER BY s.start_time, s.id", eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *AgendaRepo) Update(ctx context.Context, tenantID, id uint64, u SessionUpdate) (model.Session, error) {
	set := map[string]any{"updated_at": time.Now().UTC()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.StartTime != nil {
		set["start_time"] = u.StartTime.UTC()
	}
	if u.EndTime != nil {
		set["end_time"] = u.EndTime.UTC()
	}
	if u.Location != nil {
		set["location"] = *u.Location
	}
	if u.SpeakerName != nil {
		set["speaker_name"] = *u.SpeakerName
	}
	q, args, err := sq.Update("event_sessions").SetMap(set).
		Where(sq.Eq{"id": id}).Where(ownedSession, tenantID).ToSql()
	if err != nil {
		return model.Session{}, err
	}
	res, err := conn(ctx, r.DB).ExecContext(ctx, q, args...)
	if err != nil {
		return model.Session{}, err
	}
	if err := rowsAffected(res); err != nil {
		return model.Session{}, err
	}
	return r.Get(ctx, tenantID, id)
}

func (r *AgendaRepo) Delete(ctx context.Context, tenantID, id uint64) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"DELETE FROM event_sessions WHERE id=? AND "+ownedSession, id, tenantID)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}
