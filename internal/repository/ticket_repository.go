package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/association-platform/internal/model"
)

const ticketColumns = "id, event_id, name, description, price_cents, currency, quantity_available, quantity_sold, sale_start, sale_end, is_active, created_at"

// TicketRepo persists ticket types and owns their inventory counters.
type TicketRepo struct{ DB *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{DB: db} }

func scanTicketType(row interface{ Scan(...any) error }) (model.TicketType, error) {
	var (
		t          model.TicketType
		start, end sql.NullTime
	)
	err := row.Scan(&t.ID, &t.EventID, &t.Name, &t.Description, &t.PriceCents, &t.Currency,
		&t.QuantityAvailable, &t.QuantitySold, &start, &end, &t.IsActive, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	t.SaleStart, t.SaleEnd = timePtr(start), timePtr(end)
	return t, err
}

// Create inserts t with zero units sold.
func (r *TicketRepo) Create(ctx context.Context, t *model.TicketType) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO ticket_types (event_id, name, description, price_cents, currency, quantity_available, quantity_sold, sale_start, sale_end, is_active, created_at)
		 VALUES (?,?,?,?,?,?,0,?,?,?,?)`,
		t.EventID, t.Name, t.Description, t.PriceCents, t.Currency, t.QuantityAvailable,
		nullTime(t.SaleStart), nullTime(t.SaleEnd), t.IsActive, now)
	if err != nil {
		return err
	}
	if t.ID, err = lastInsertID(res); err != nil {
		return err
	}
	t.QuantitySold = 0
	t.CreatedAt = now
	return nil
}

// Get returns a ticket type by ID. Callers check that it belongs to the
// event they expect.
func (r *TicketRepo) Get(ctx context.Context, id uint64) (model.TicketType, error) {
	return scanTicketType(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM ticket_types WHERE id=?", id))
}

// ListByEvent returns the ticket types of one event.
func (r *TicketRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.TicketType, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx,
		"SELECT "+ticketColumns+" FROM ticket_types WHERE event_id=? ORDER BY id", eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.TicketType{}
	for rows.Next() {
		t, err := scanTicketType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Reserve takes one unit of inventory. The check and the increment are one
// statement, so concurrent callers can never push quantity_sold past
// quantity_available. ErrSoldOut means no unit was left.
func (r *TicketRepo) Reserve(ctx context.Context, id uint64) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"UPDATE ticket_types SET quantity_sold = quantity_sold + 1 WHERE id=? AND quantity_sold < quantity_available",
		id)
	if err != nil {
		if isCheckViolation(err) {
			return ErrSoldOut
		}
		return err
	}
	if err := rowsAffected(res); err != nil {
		return ErrSoldOut
	}
	return nil
}

// Release returns one unit of inventory, never going below zero.
func (r *TicketRepo) Release(ctx context.Context, id uint64) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"UPDATE ticket_types SET quantity_sold = quantity_sold - 1 WHERE id=? AND quantity_sold > 0",
		id)
	if err != nil {
		return err
	}
	if err := rowsAffected(res); err != nil {
		return ErrConflict
	}
	return nil
}
