package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/association-platform/internal/clock"
	"github.com/iliyamo/association-platform/internal/logger"
	"github.com/iliyamo/association-platform/internal/metrics"
	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/payment"
	"github.com/iliyamo/association-platform/internal/queue"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/utils"
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventReader interface {
	Get(ctx context.Context, tenantID, id uint64) (model.Event, error)
}

type TicketInventory interface {
	Get(ctx context.Context, id uint64) (model.TicketType, error)
	Reserve(ctx context.Context, id uint64) error
	Release(ctx context.Context, id uint64) error
}

type RegistrationStore interface {
	Create(ctx context.Context, reg *model.Registration) error
	ExistsForUserEvent(ctx context.Context, userID, eventID uint64) (bool, error)
	Get(ctx context.Context, tenantID, id uint64) (model.Registration, error)
	GetByCode(ctx context.Context, tenantID uint64, code string) (model.Registration, error)
	Transition(ctx context.Context, id uint64, from, to model.RegistrationStatus, pay model.PaymentStatus) error
	CheckIn(ctx context.Context, id uint64, at time.Time) error
}

// RegistrationService sells tickets. Every registration runs in one
// transaction: the inventory increment, the charge and the insert either
// all take effect or none do.
type RegistrationService struct {
	tx        Transactor
	events    EventReader
	tickets   TicketInventory
	regs      RegistrationStore
	payments  payment.Processor
	publisher queue.Publisher
	metrics   *metrics.Metrics
	clock     clock.Clock
}

func NewRegistrationService(tx Transactor, events EventReader, tickets TicketInventory, regs RegistrationStore,
	payments payment.Processor, publisher queue.Publisher, m *metrics.Metrics, clk clock.Clock) *RegistrationService {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	return &RegistrationService{tx: tx, events: events, tickets: tickets, regs: regs,
		payments: payments, publisher: publisher, metrics: m, clock: clk}
}

type RegisterInput struct {
	TenantID     uint64
	User         model.User
	EventID      uint64
	TicketTypeID uint64
	Method       payment.Method
}

// Register admits in.User to an event with one unit of the chosen ticket
// type. Paid tickets are charged immediately and the registration is
// confirmed as PAID; free tickets are confirmed as UNPAID.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (model.Registration, error) {
	log := logger.FromContext(ctx)
	now := s.clock.Now()

	var (
		reg    model.Registration
		event  model.Event
		ticket model.TicketType
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.events.Get(ctx, in.TenantID, in.EventID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEventNotFound
		}
		if err != nil {
			return err
		}
		if event.Status != model.EventPublished {
			return ErrEventNotOpen
		}

		ticket, err = s.tickets.Get(ctx, in.TicketTypeID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTicketTypeNotFound
		}
		if err != nil {
			return err
		}
		if ticket.EventID != event.ID {
			return ErrTicketEventMismatch
		}
		if !ticket.OnSale(now) {
			return ErrTicketNotOnSale
		}
		if ticket.SoldOut() {
			return ErrSoldOut
		}

		exists, err := s.regs.ExistsForUserEvent(ctx, in.User.ID, event.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyRegistered
		}

		// The read above may be stale; the conditional increment is what
		// actually guards the inventory.
		if err := s.tickets.Reserve(ctx, ticket.ID); err != nil {
			if errors.Is(err, repository.ErrSoldOut) {
				return ErrSoldOut
			}
			return err
		}

		code, err := utils.NewConfirmationCode()
		if err != nil {
			return fmt.Errorf("confirmation code: %w", err)
		}
		reg = model.Registration{
			TenantID:         in.TenantID,
			EventID:          event.ID,
			UserID:           in.User.ID,
			TicketTypeID:     ticket.ID,
			Status:           model.RegistrationConfirmed,
			PaymentStatus:    model.PaymentUnpaid,
			AmountCents:      ticket.PriceCents,
			ConfirmationCode: code,
		}

		if ticket.PriceCents > 0 {
			out, err := s.payments.Charge(ctx, ticket.PriceCents, ticket.Currency, in.Method)
			if err != nil {
				if errors.Is(err, payment.ErrDeclined) {
					s.metrics.PaymentOutcome("registration", "declined")
					return ErrPaymentDeclined
				}
				return fmt.Errorf("charge: %w", err)
			}
			s.metrics.PaymentOutcome("registration", "paid")
			reg.PaymentStatus = model.PaymentPaid
			reg.PaymentID = out.TransactionID
		}

		if err := s.regs.Create(ctx, &reg); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrAlreadyRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		// Nothing was recorded, including when the commit itself failed.
		s.refund(ctx, reg)
		s.metrics.RegistrationOutcome(outcomeLabel(err))
		return model.Registration{}, err
	}
	s.metrics.RegistrationOutcome("confirmed")
	log.Info("registration confirmed",
		zap.Uint64("tenant_id", in.TenantID),
		zap.Uint64("registration_id", reg.ID),
		zap.Uint64("event_id", event.ID),
		zap.Uint64("ticket_type_id", ticket.ID),
		zap.String("payment_status", string(reg.PaymentStatus)))

	ev := queue.RegistrationConfirmedEvent{
		RegistrationID:   reg.ID,
		TenantID:         in.TenantID,
		EventID:          event.ID,
		EventTitle:       event.Title,
		StartsAt:         event.StartTime.UTC().Format(time.RFC3339),
		UserID:           in.User.ID,
		UserEmail:        in.User.Email,
		TicketType:       ticket.Name,
		AmountCents:      reg.AmountCents,
		Currency:         ticket.Currency,
		ConfirmationCode: reg.ConfirmationCode,
		ConfirmedAt:      now.Format(time.RFC3339),
	}
	if err := s.publisher.Publish(ctx, queue.RegistrationConfirmedKey, ev); err != nil {
		log.Warn("publish registration.confirmed failed", zap.Uint64("registration_id", reg.ID), zap.Error(err))
	}
	return reg, nil
}

// refund reverses a charge taken for a registration that was not stored.
func (s *RegistrationService) refund(ctx context.Context, reg model.Registration) {
	if reg.PaymentID == "" {
		return
	}
	if _, err := s.payments.Refund(context.WithoutCancel(ctx), reg.PaymentID, reg.AmountCents); err != nil {
		logger.FromContext(ctx).Error("refund after failed registration",
			zap.String("transaction_id", reg.PaymentID), zap.Error(err))
	}
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrSoldOut):
		return "sold_out"
	case errors.Is(err, ErrAlreadyRegistered):
		return "duplicate"
	case errors.Is(err, ErrPaymentDeclined):
		return "declined"
	}
	return "rejected"
}

// Cancel cancels a confirmed registration and returns its ticket to
// inventory. Paid registrations are refunded and end up REFUNDED. Only the
// owner may cancel unless asAdmin is set.
func (s *RegistrationService) Cancel(ctx context.Context, tenantID, userID, regID uint64, asAdmin bool) (model.Registration, error) {
	var reg model.Registration
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		reg, err = s.regs.Get(ctx, tenantID, regID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !asAdmin && reg.UserID != userID) {
			return ErrRegistrationNotFound
		}
		if err != nil {
			return err
		}
		if reg.Status != model.RegistrationConfirmed && reg.Status != model.RegistrationPending {
			return ErrRegistrationClosed
		}

		to, pay := model.RegistrationCancelled, reg.PaymentStatus
		if reg.PaymentStatus == model.PaymentPaid {
			to, pay = model.RegistrationRefunded, model.PaymentRefunded
		}
		if err := s.regs.Transition(ctx, reg.ID, reg.Status, to, pay); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrRegistrationClosed
			}
			return err
		}
		if err := s.tickets.Release(ctx, reg.TicketTypeID); err != nil {
			return fmt.Errorf("release ticket: %w", err)
		}
		if pay == model.PaymentRefunded && reg.PaymentID != "" {
			if _, err := s.payments.Refund(context.WithoutCancel(ctx), reg.PaymentID, reg.AmountCents); err != nil {
				return fmt.Errorf("refund: %w", err)
			}
		}
		reg.Status, reg.PaymentStatus = to, pay
		return nil
	})
	if err != nil {
		return model.Registration{}, err
	}
	logger.FromContext(ctx).Info("registration cancelled",
		zap.Uint64("tenant_id", tenantID), zap.Uint64("registration_id", reg.ID),
		zap.String("status", string(reg.Status)))
	return reg, nil
}

// CheckIn marks the registration holding code as attended.
func (s *RegistrationService) CheckIn(ctx context.Context, tenantID uint64, code string) (model.Registration, error) {
	if code == "" {
		return model.Registration{}, invalid("confirmation_code", "is required")
	}
	reg, err := s.regs.GetByCode(ctx, tenantID, code)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Registration{}, ErrRegistrationNotFound
	}
	if err != nil {
		return model.Registration{}, err
	}
	if reg.Status != model.RegistrationConfirmed {
		return model.Registration{}, ErrRegistrationClosed
	}
	now := s.clock.Now()
	if err := s.regs.CheckIn(ctx, reg.ID, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Registration{}, ErrAlreadyCheckedIn
		}
		return model.Registration{}, err
	}
	reg.CheckedIn = true
	reg.CheckInTime = &now
	return reg, nil
}
