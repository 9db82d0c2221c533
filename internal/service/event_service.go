package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/repository"
)

type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	Get(ctx context.Context, tenantID, id uint64) (model.Event, error)
	Update(ctx context.Context, tenantID, id uint64, u repository.EventUpdate) (model.Event, error)
}

type TicketStore interface {
	Create(ctx context.Context, t *model.TicketType) error
	ListByEvent(ctx context.Context, eventID uint64) ([]model.TicketType, error)
}

// EventService validates event and ticket type writes and clones events.
type EventService struct {
	tx      Transactor
	events  EventStore
	tickets TicketStore
}

func NewEventService(tx Transactor, events EventStore, tickets TicketStore) *EventService {
	return &EventService{tx: tx, events: events, tickets: tickets}
}

func (s *EventService) CreateEvent(ctx context.Context, e *model.Event) error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Status == "" {
		e.Status = model.EventDraft
	}
	if err := validateEvent(*e); err != nil {
		return err
	}
	return s.events.Create(ctx, e)
}

func validateEvent(e model.Event) error {
	switch {
	case e.Title == "":
		return invalid("title", "is required")
	case e.StartTime.IsZero() || e.EndTime.IsZero():
		return invalid("start_time", "start_time and end_time are required")
	case !e.EndTime.After(e.StartTime):
		return invalid("end_time", "must be after start_time")
	case e.Capacity < 0:
		return invalid("capacity", "must not be negative")
	case !e.Status.Valid():
		return invalid("status", "must be DRAFT, PUBLISHED, CANCELLED or COMPLETED")
	}
	return nil
}

// UpdateEvent applies u after checking the merged result is still valid.
func (s *EventService) UpdateEvent(ctx context.Context, tenantID, id uint64, u repository.EventUpdate) (model.Event, error) {
	var out model.Event
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		cur, err := s.event(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if u.Title != nil {
			t := strings.TrimSpace(*u.Title)
			u.Title = &t
			cur.Title = t
		}
		if u.StartTime != nil {
			cur.StartTime = *u.StartTime
		}
		if u.EndTime != nil {
			cur.EndTime = *u.EndTime
		}
		if u.Capacity != nil {
			cur.Capacity = *u.Capacity
		}
		if u.Status != nil {
			cur.Status = *u.Status
		}
		if err := validateEvent(cur); err != nil {
			return err
		}
		out, err = s.events.Update(ctx, tenantID, id, u)
		return err
	})
	return out, err
}

// Clone copies an event and its ticket types into a new DRAFT event that
// points back at the source. Inventory on the copy starts at zero sold.
func (s *EventService) Clone(ctx context.Context, tenantID, id uint64) (model.Event, error) {
	var clone model.Event
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		src, err := s.event(ctx, tenantID, id)
		if err != nil {
			return err
		}
		parent := src.ID
		clone = src
		clone.ID = 0
		clone.ParentEventID = &parent
		clone.Title = src.Title + " (copy)"
		clone.Status = model.EventDraft
		if err := s.events.Create(ctx, &clone); err != nil {
			return err
		}

		tickets, err := s.tickets.ListByEvent(ctx, src.ID)
		if err != nil {
			return err
		}
		for _, t := range tickets {
			t.ID = 0
			t.EventID = clone.ID
			if err := s.tickets.Create(ctx, &t); err != nil {
				return err
			}
		}
		return nil
	})
	return clone, err
}

func (s *EventService) CreateTicketType(ctx context.Context, tenantID uint64, t *model.TicketType) error {
	t.Name = strings.TrimSpace(t.Name)
	switch {
	case t.Name == "":
		return invalid("name", "is required")
	case t.PriceCents < 0:
		return invalid("price_cents", "must not be negative")
	case t.QuantityAvailable < 0:
		return invalid("quantity_available", "must not be negative")
	case t.SaleStart != nil && t.SaleEnd != nil && !t.SaleEnd.After(*t.SaleStart):
		return invalid("sale_end", "must be after sale_start")
	}
	if t.Currency == "" {
		t.Currency = "EUR"
	}
	if _, err := s.event(ctx, tenantID, t.EventID); err != nil {
		return err
	}
	return s.tickets.Create(ctx, t)
}

func (s *EventService) event(ctx context.Context, tenantID, id uint64) (model.Event, error) {
	e, err := s.events.Get(ctx, tenantID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Event{}, ErrEventNotFound
	}
	return e, err
}
