package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/association-platform/internal/clock"
	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/payment"
	"github.com/iliyamo/association-platform/internal/queue"
	"github.com/iliyamo/association-platform/internal/repository"
)

func newFundraising(f *fixture) (*FundraisingService, *repository.FundraisingRepo) {
	repo := repository.NewFundraisingRepo(f.db)
	return NewFundraisingService(repository.NewTxManager(f.db), repo, f.processor, f.publisher, f.metrics, clock.NewFixed(f.now)), repo
}

func TestDonateAddsToCampaign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc, repo := newFundraising(f)

	c := model.Campaign{TenantID: f.tenantID, Name: "Roof", GoalCents: 100_000, IsActive: true}
	require.NoError(t, svc.CreateCampaign(ctx, &c))

	donor := model.Donor{FirstName: "Ann", LastName: "Lee", Email: "Ann@Example.org"}
	for i := 0; i < 2; i++ {
		d, err := svc.Donate(ctx, DonationInput{TenantID: f.tenantID, Donor: donor, CampaignID: &c.ID, AmountCents: 2_000, Method: payment.MethodCard})
		require.NoError(t, err)
		assert.Equal(t, model.PaymentPaid, d.PaymentStatus)
		assert.NotEmpty(t, d.TransactionID)
	}

	got, err := repo.GetCampaign(ctx, f.tenantID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4_000), got.CurrentCents)

	donors, err := repo.ListDonors(ctx, f.tenantID, repository.Page{})
	require.NoError(t, err)
	require.Len(t, donors, 1)
	assert.Equal(t, "ann@example.org", donors[0].Email)
	assert.Equal(t, []string{queue.DonationReceivedKey, queue.DonationReceivedKey}, f.publisher.Keys())
}

func TestDonateDeclinedRecordsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc, repo := newFundraising(f)
	c := model.Campaign{TenantID: f.tenantID, Name: "Roof", IsActive: true}
	require.NoError(t, svc.CreateCampaign(ctx, &c))

	_, err := svc.Donate(ctx, DonationInput{TenantID: f.tenantID, Donor: model.Donor{FirstName: "Big", Email: "big@example.org"},
		CampaignID: &c.ID, AmountCents: 1_000_000})
	assert.ErrorIs(t, err, ErrPaymentDeclined)

	got, err := repo.GetCampaign(ctx, f.tenantID, c.ID)
	require.NoError(t, err)
	assert.Zero(t, got.CurrentCents)
	donations, err := repo.ListDonations(ctx, f.tenantID, 0, repository.Page{})
	require.NoError(t, err)
	assert.Empty(t, donations)
}

func TestDonateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc, _ := newFundraising(f)
	missing := uint64(404)

	_, err := svc.Donate(ctx, DonationInput{TenantID: f.tenantID, Donor: model.Donor{FirstName: "A", Email: "a@example.org"}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount_cents", verr.Field)

	_, err = svc.Donate(ctx, DonationInput{TenantID: f.tenantID, Donor: model.Donor{FirstName: "A", Email: "not-an-email"}, AmountCents: 100})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	_, err = svc.Donate(ctx, DonationInput{TenantID: f.tenantID, Donor: model.Donor{FirstName: "A", Email: "a@example.org"}, CampaignID: &missing, AmountCents: 100})
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestPayFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := repository.NewFeeRepo(f.db)
	svc := NewFeeService(repo, f.processor, f.publisher, f.metrics, clock.NewFixed(f.now))
	u := f.user(t, "member@example.org")

	fee := model.MembershipFee{TenantID: f.tenantID, Name: "Annual dues", AmountCents: 5_000, IsActive: true}
	require.NoError(t, svc.CreateFee(ctx, &fee))
	assert.Equal(t, model.FeeYearly, fee.Interval)

	p, err := svc.Pay(ctx, f.tenantID, u, fee.ID, payment.MethodBankTransfer)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, p.Status)
	require.NotNil(t, p.PaidAt)

	expensive := model.MembershipFee{TenantID: f.tenantID, Name: "Lifetime", AmountCents: 500_000, Interval: model.FeeOneTime, IsActive: true}
	require.NoError(t, svc.CreateFee(ctx, &expensive))
	p, err = svc.Pay(ctx, f.tenantID, u, expensive.ID, payment.MethodCard)
	assert.ErrorIs(t, err, ErrPaymentDeclined)
	assert.Equal(t, model.PaymentFailed, p.Status)

	payments, err := repo.ListPayments(ctx, f.tenantID, u.ID, repository.Page{})
	require.NoError(t, err)
	assert.Len(t, payments, 2)
	assert.Equal(t, []string{queue.FeePaidKey}, f.publisher.Keys())

	_, err = svc.Pay(ctx, f.tenantID, u, 9999, payment.MethodCard)
	assert.ErrorIs(t, err, ErrFeeNotFound)
}
