package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
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

type FundraisingStore interface {
	UpsertDonor(ctx context.Context, d *model.Donor) (bool, error)
	CreateCampaign(ctx context.Context, c *model.Campaign) error
	GetCampaign(ctx context.Context, tenantID, id uint64) (model.Campaign, error)
	AddToCampaign(ctx context.Context, tenantID, campaignID uint64, amountCents int64) error
	CreateDonation(ctx context.Context, d *model.Donation) error
}

type FundraisingService struct {
	tx        Transactor
	store     FundraisingStore
	payments  payment.Processor
	publisher queue.Publisher
	metrics   *metrics.Metrics
	clock     clock.Clock
}

func NewFundraisingService(tx Transactor, store FundraisingStore, payments payment.Processor,
	publisher queue.Publisher, m *metrics.Metrics, clk clock.Clock) *FundraisingService {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	return &FundraisingService{tx: tx, store: store, payments: payments, publisher: publisher, metrics: m, clock: clk}
}

// SaveDonor creates the donor or refreshes the existing one with the same
// email in the tenant. created reports which happened.
func (s *FundraisingService) SaveDonor(ctx context.Context, d *model.Donor) (created bool, err error) {
	if err := normalizeDonor(d); err != nil {
		return false, err
	}
	return s.store.UpsertDonor(ctx, d)
}

func normalizeDonor(d *model.Donor) error {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	if d.FirstName == "" {
		return invalid("first_name", "is required")
	}
	if _, err := mail.ParseAddress(d.Email); err != nil || d.Email == "" {
		return invalid("email", "must be a valid email address")
	}
	return nil
}

func (s *FundraisingService) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalid("name", "is required")
	}
	if c.GoalCents < 0 {
		return invalid("goal_cents", "must not be negative")
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return invalid("end_date", "must not be before start_date")
	}
	c.CurrentCents = 0
	return s.store.CreateCampaign(ctx, c)
}

type DonationInput struct {
	TenantID    uint64
	Donor       model.Donor
	CampaignID  *uint64
	AmountCents int64
	Currency    string
	Method      payment.Method
}

// Donate charges the donor and records the donation. When a campaign is
// named its running total grows by the same amount in the same transaction.
func (s *FundraisingService) Donate(ctx context.Context, in DonationInput) (model.Donation, error) {
	if in.AmountCents <= 0 {
		return model.Donation{}, invalid("amount_cents", "must be positive")
	}
	if in.Currency == "" {
		in.Currency = "EUR"
	}
	donor := in.Donor
	donor.TenantID = in.TenantID
	if err := normalizeDonor(&donor); err != nil {
		return model.Donation{}, err
	}

	var d model.Donation
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if in.CampaignID != nil {
			c, err := s.store.GetCampaign(ctx, in.TenantID, *in.CampaignID)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCampaignNotFound
			}
			if err != nil {
				return err
			}
			if !c.IsActive {
				return ErrCampaignInactive
			}
		}
		if _, err := s.store.UpsertDonor(ctx, &donor); err != nil {
			return fmt.Errorf("save donor: %w", err)
		}

		out, err := s.payments.Charge(ctx, in.AmountCents, in.Currency, in.Method)
		if err != nil {
			if errors.Is(err, payment.ErrDeclined) {
				s.metrics.PaymentOutcome("donation", "declined")
				return ErrPaymentDeclined
			}
			return fmt.Errorf("charge: %w", err)
		}
		s.metrics.PaymentOutcome("donation", "paid")

		d = model.Donation{
			TenantID:      in.TenantID,
			DonorID:       donor.ID,
			CampaignID:    in.CampaignID,
			AmountCents:   in.AmountCents,
			Currency:      in.Currency,
			PaymentMethod: string(in.Method),
			PaymentStatus: model.PaymentPaid,
			TransactionID: out.TransactionID,
		}
		if err := s.store.CreateDonation(ctx, &d); err != nil {
			return err
		}
		if in.CampaignID != nil {
			if err := s.store.AddToCampaign(ctx, in.TenantID, *in.CampaignID, in.AmountCents); err != nil {
				return fmt.Errorf("campaign total: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return model.Donation{}, err
	}

	log := logger.FromContext(ctx)
	log.Info("donation received",
		zap.Uint64("tenant_id", in.TenantID), zap.Uint64("donation_id", d.ID), zap.Int64("amount_cents", d.AmountCents))
	ev := queue.DonationReceivedEvent{
		DonationID:    d.ID,
		TenantID:      in.TenantID,
		DonorID:       donor.ID,
		DonorName:     strings.TrimSpace(donor.FirstName + " " + donor.LastName),
		DonorEmail:    donor.Email,
		CampaignID:    in.CampaignID,
		AmountCents:   d.AmountCents,
		Currency:      d.Currency,
		TransactionID: d.TransactionID,
		ReceivedAt:    s.clock.Now().Format(time.RFC3339),
	}
	if err := s.publisher.Publish(ctx, queue.DonationReceivedKey, ev); err != nil {
		log.Warn("publish donation.received failed", zap.Uint64("donation_id", d.ID), zap.Error(err))
	}
	return d, nil
}
