package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/association-platform/internal/clock"
	"github.com/iliyamo/association-platform/internal/logger"
	"github.com/iliyamo/association-platform/internal/metrics"
	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/payment"
	"github.com/iliyamo/association-platform/internal/queue"
	"github.com/iliyamo/association-platform/internal/repository"
)

type FeeStore interface {
	CreateFee(ctx context.Context, f *model.MembershipFee) error
	GetFee(ctx context.Context, tenantID, id uint64) (model.MembershipFee, error)
	CreatePayment(ctx context.Context, p *model.Payment) error
}

type FeeService struct {
	store     FeeStore
	payments  payment.Processor
	publisher queue.Publisher
	metrics   *metrics.Metrics
	clock     clock.Clock
}

func NewFeeService(store FeeStore, payments payment.Processor, publisher queue.Publisher, m *metrics.Metrics, clk clock.Clock) *FeeService {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	return &FeeService{store: store, payments: payments, publisher: publisher, metrics: m, clock: clk}
}

func (s *FeeService) CreateFee(ctx context.Context, f *model.MembershipFee) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return invalid("name", "is required")
	}
	if f.AmountCents <= 0 {
		return invalid("amount_cents", "must be positive")
	}
	if f.Interval == "" {
		f.Interval = model.FeeYearly
	}
	if !f.Interval.Valid() {
		return invalid("interval", "must be MONTHLY, YEARLY or ONE_TIME")
	}
	if f.Currency == "" {
		f.Currency = "EUR"
	}
	return s.store.CreateFee(ctx, f)
}

// Pay charges user for a membership fee. Every attempt leaves a payment row:
// PAID on success, FAILED when the processor declines.
func (s *FeeService) Pay(ctx context.Context, tenantID uint64, user model.User, feeID uint64, method payment.Method) (model.Payment, error) {
	log := logger.FromContext(ctx)

	fee, err := s.store.GetFee(ctx, tenantID, feeID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Payment{}, ErrFeeNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	if !fee.IsActive {
		return model.Payment{}, ErrFeeInactive
	}

	p := model.Payment{
		TenantID:      tenantID,
		UserID:        user.ID,
		FeeID:         fee.ID,
		AmountCents:   fee.AmountCents,
		Currency:      fee.Currency,
		PaymentMethod: string(method),
	}
	out, chargeErr := s.payments.Charge(ctx, fee.AmountCents, fee.Currency, method)
	switch {
	case chargeErr == nil:
		paidAt := out.ProcessedAt
		p.Status = model.PaymentPaid
		p.TransactionID = out.TransactionID
		p.PaidAt = &paidAt
		s.metrics.PaymentOutcome("fee", "paid")
	case errors.Is(chargeErr, payment.ErrDeclined):
		p.Status = model.PaymentFailed
		s.metrics.PaymentOutcome("fee", "declined")
	default:
		return model.Payment{}, fmt.Errorf("charge: %w", chargeErr)
	}

	if err := s.store.CreatePayment(ctx, &p); err != nil {
		return model.Payment{}, err
	}
	if p.Status == model.PaymentFailed {
		log.Info("fee payment declined", zap.Uint64("tenant_id", tenantID), zap.Uint64("payment_id", p.ID))
		return p, ErrPaymentDeclined
	}

	log.Info("fee paid", zap.Uint64("tenant_id", tenantID), zap.Uint64("payment_id", p.ID))
	ev := queue.FeePaidEvent{
		PaymentID:     p.ID,
		TenantID:      tenantID,
		UserID:        user.ID,
		UserEmail:     user.Email,
		FeeName:       fee.Name,
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		TransactionID: p.TransactionID,
		PaidAt:        s.clock.Now().Format(time.RFC3339),
	}
	if err := s.publisher.Publish(ctx, queue.FeePaidKey, ev); err != nil {
		log.Warn("publish fee.paid failed", zap.Uint64("payment_id", p.ID), zap.Error(err))
	}
	return p, nil
}
