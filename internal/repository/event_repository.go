package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/association-platform/internal/model"
)

const eventColumns = "id, tenant_id, parent_event_id, title, description, location, region, event_type, start_time, end_time, capacity, status, is_public, created_at, updated_at"

// EventRepo persists events and their sponsors. Every query is scoped by
// tenant so rows of other tenants read as missing.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

// EventFilter narrows List.
type EventFilter struct {
	Status     model.EventStatus
	PublicOnly bool
	From       *time.Time
	Page       Page
}

// EventUpdate lists mutable event fields; nil means unchanged.
type EventUpdate struct {
	Title       *string
	Description *string
	Location    *string
	Region      *string
	EventType   *string
	StartTime   *time.Time
	EndTime     *time.Time
	Capacity    *int
	Status      *model.EventStatus
	IsPublic    *bool
}

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var (
		e      model.Event
		parent sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.TenantID, &parent, &e.Title, &e.Description, &e.Location, &e.Region,
		&e.EventType, &e.StartTime, &e.EndTime, &e.Capacity, &e.Status, &e.IsPublic, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	e.ParentEventID = idPtr(parent)
	return e, err
}

// Create inserts e and fills its ID and timestamps.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO events (tenant_id, parent_event_id, title, description, location, region, event_type, start_time, end_time, capacity, status, is_public, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.TenantID, nullID(e.ParentEventID), e.Title, e.Description, e.Location, e.Region, e.EventType,
		e.StartTime.UTC(), e.EndTime.UTC(), e.Capacity, e.Status, e.IsPublic, now, now)
	if err != nil {
		return err
	}
	if e.ID, err = lastInsertID(res); err != nil {
		return err
	}
	e.CreatedAt, e.UpdatedAt = now, now
	return nil
}

// Get returns the event only if it belongs to tenantID.
func (r *EventRepo) Get(ctx context.Context, tenantID, id uint64) (model.Event, error) {
	return scanEvent(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id=? AND tenant_id=?", id, tenantID))
}

// List returns the tenant's events ordered by start time.
func (r *EventRepo) List(ctx context.Context, tenantID uint64, f EventFilter) ([]model.Event, error) {
	page := f.Page.Normalize()
	b := sq.Select(eventColumns).From("events").Where(sq.Eq{"tenant_id": tenantID})
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status})
	}
	if f.PublicOnly {
		b = b.Where(sq.Eq{"is_public": true})
	}
	if f.From != nil {
		b = b.Where(sq.GtOrEq{"start_time": f.From.UTC()})
	}
	q, args, err := b.OrderBy("start_time", "id").Limit(page.Limit).Offset(page.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := conn(ctx, r.DB).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update applies u and returns the updated event.
func (r *EventRepo) Update(ctx context.Context, tenantID, id uint64, u EventUpdate) (model.Event, error) {
	set := map[string]any{"updated_at": time.Now().UTC()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Location != nil {
		set["location"] = *u.Location
	}
	if u.Region != nil {
		set["region"] = *u.Region
	}
	if u.EventType != nil {
		set["event_type"] = *u.EventType
	}
	if u.StartTime != nil {
		set["start_time"] = u.StartTime.UTC()
	}
	if u.EndTime != nil {
		set["end_time"] = u.EndTime.UTC()
	}
	if u.Capacity != nil {
		set["capacity"] = *u.Capacity
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.IsPublic != nil {
		set["is_public"] = *u.IsPublic
	}
	q, args, err := sq.Update("events").SetMap(set).Where(sq.Eq{"id": id, "tenant_id": tenantID}).ToSql()
	if err != nil {
		return model.Event{}, err
	}
	res, err := conn(ctx, r.DB).ExecContext(ctx, q, args...)
	if err != nil {
		return model.Event{}, err
	}
	if err := rowsAffected(res); err != nil {
		return model.Event{}, err
	}
	return r.Get(ctx, tenantID, id)
}

// Delete removes the event; ticket types, registrations and sponsors cascade.
func (r *EventRepo) Delete(ctx context.Context, tenantID, id uint64) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, "DELETE FROM events WHERE id=? AND tenant_id=?", id, tenantID)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

// CreateSponsor inserts s for an event the caller has already scoped.
func (r *EventRepo) CreateSponsor(ctx context.Context, s *model.Sponsor) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO sponsors (event_id, name, tier, logo_url, website, bio, created_at) VALUES (?,?,?,?,?,?,?)",
		s.EventID, s.Name, s.Tier, s.LogoURL, s.Website, s.Bio, now)
	if err != nil {
		return err
	}
	if s.ID, err = lastInsertID(res); err != nil {
		return err
	}
	s.CreatedAt = now
	return nil
}

// ListSponsors returns an event's sponsors.
func (r *EventRepo) ListSponsors(ctx context.Context, eventID uint64) ([]model.Sponsor, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx,
		"SELECT id, event_id, name, tier, logo_url, website, bio, created_at FROM sponsors WHERE event_id=? ORDER BY id",
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Sponsor{}
	for rows.Next() {
		var s model.Sponsor
		if err := rows.Scan(&s.ID, &s.EventID, &s.Name, &s.Tier, &s.LogoURL, &s.Website, &s.Bio, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSponsor removes a sponsor whose event belongs to tenantID.
func (r *EventRepo) DeleteSponsor(ctx context.Context, tenantID, id uint64) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"DELETE FROM sponsors WHERE id=? AND event_id IN (SELECT id FROM events WHERE tenant_id=?)",
		id, tenantID)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}
