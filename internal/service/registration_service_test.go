package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/association-platform/internal/clock"
	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/payment"
	"github.com/iliyamo/association-platform/internal/queue"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/testutil"
)

func TestRegisterFreeTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ann@example.org")
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Open day")
	ticketID := testutil.InsertTicketType(t, f.db, eventID, 0, 10)

	reg, err := f.registrations().Register(ctx, RegisterInput{TenantID: f.tenantID, User: u, EventID: eventID, TicketTypeID: ticketID})
	require.NoError(t, err)

	assert.Equal(t, model.RegistrationConfirmed, reg.Status)
	assert.Equal(t, model.PaymentUnpaid, reg.PaymentStatus)
	assert.Empty(t, reg.PaymentID)
	assert.Len(t, reg.ConfirmationCode, 16)
	assert.Equal(t, 1, f.sold(t, ticketID))
	assert.Equal(t, []string{queue.RegistrationConfirmedKey}, f.publisher.Keys())
}

func TestRegisterPaidTicket(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ann@example.org")
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Gala")
	ticketID := testutil.InsertTicketType(t, f.db, eventID, 2500, 10)

	reg, err := f.registrations().Register(context.Background(), RegisterInput{
		TenantID: f.tenantID, User: u, EventID: eventID, TicketTypeID: ticketID, Method: payment.MethodCard,
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentPaid, reg.PaymentStatus)
	assert.Equal(t, int64(2500), reg.AmountCents)
	assert.Contains(t, reg.PaymentID, "TRX-")
}

func TestRegisterTwiceForSameEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.registrations()
	u := f.user(t, "ann@example.org")
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Gala")
	ticketID := testutil.InsertTicketType(t, f.db, eventID, 0, 10)
	in := RegisterInput{TenantID: f.tenantID, User: u, EventID: eventID, TicketTypeID: ticketID}

	_, err := svc.Register(ctx, in)
	require.NoError(t, err)
	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Equal(t, 1, f.sold(t, ticketID))
}

func TestRegisterSoldOutLeavesInventoryUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.registrations()
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Gala")
	ticketID := testutil.InsertTicketType(t, f.db, eventID, 0, 1)

	_, err := svc.Register(ctx, RegisterInput{TenantID: f.tenantID, User: f.user(t, "a@example.org"), EventID: eventID, TicketTypeID: ticketID})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{TenantID: f.tenantID, User: f.user(t, "b@example.org"), EventID: eventID, TicketTypeID: ticketID})
	assert.ErrorIs(t, err, ErrSoldOut)
	assert.Equal(t, 1, f.sold(t, ticketID))
}

func TestRegisterRejectsBadReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.registrations()
	u := f.user(t, "ann@example.org")
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Gala")
	otherEventID := testutil.InsertEvent(t, f.db, f.tenantID, "Picnic")
	otherTicket := testutil.InsertTicketType(t, f.db, otherEventID, 0, 5)

	_, err := svc.Register(ctx, RegisterInput{TenantID: f.tenantID, User: u, EventID: 999, TicketTypeID: otherTicket})
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = svc.Register(ctx, RegisterInput{TenantID: f.tenantID, User: u, EventID: eventID, TicketTypeID: 999})
	assert.ErrorIs(t, err, ErrTicketTypeNotFound)

	_, err = svc.Register(ctx, RegisterInput{TenantID: f.tenantID, User: u, EventID: eventID, TicketTypeID: otherTicket})
	assert.ErrorIs(t, err, ErrTicketEventMismatch)
	assert.Equal(t, 0, f.sold(t, otherTicket))

	otherTenant := testutil.InsertTenant(t, f.db, "other", model.PlanStarter)
	_, err = svc.Register(ctx, RegisterInput{TenantID: otherTenant, User: u, EventID: eventID, TicketTypeID: otherTicket})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRegisterDeclinedPaymentRollsBack(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ann@example.org")
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Gala")
	ticketID := testutil.InsertTicketType(t, f.db, eventID, 50_000, 10)

	_, err := f.registrations().Register(context.Background(), RegisterInput{TenantID: f.tenantID, User: u, EventID: eventID, TicketTypeID: ticketID})
	assert.ErrorIs(t, err, ErrPaymentDeclined)
	assert.Equal(t, 0, f.sold(t, ticketID))

	exists, err := f.regs.ExistsForUserEvent(context.Background(), u.ID, eventID)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, f.publisher.Keys())
}

func TestRegisterConcurrentNeverOversells(t *testing.T) {
	f := newFixture(t)
	svc := f.registrations()
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Concert")
	ticketID := testutil.InsertTicketType(t, f.db, eventID, 0, 3)

	users := make([]model.User, 12)
	for i := range users {
		users[i] = f.user(t, fmt.Sprintf("u%d@example.org", i))
	}

	var (
		wg             sync.WaitGroup
		mu             sync.Mutex
		ok, soldOut    int
		unexpectedErrs []error
	)
	for _, u := range users {
		wg.Add(1)
		go func(u model.User) {
			defer wg.Done()
			_, err := svc.Register(context.Background(), RegisterInput{TenantID: f.tenantID, User: u, EventID: eventID, TicketTypeID: ticketID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrSoldOut):
				soldOut++
			default:
				unexpectedErrs = append(unexpectedErrs, err)
			}
		}(u)
	}
	wg.Wait()

	require.Empty(t, unexpectedErrs)
	assert.Equal(t, 3, ok)
	assert.Equal(t, 9, soldOut)
	assert.Equal(t, 3, f.sold(t, ticketID))
}

func TestCancelReleasesInventoryAndRefunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.registrations()
	u := f.user(t, "ann@example.org")
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Gala")
	ticketID := testutil.InsertTicketType(t, f.db, eventID, 1500, 1)

	reg, err := svc.Register(ctx, RegisterInput{TenantID: f.tenantID, User: u, EventID: eventID, TicketTypeID: ticketID})
	require.NoError(t, err)

	other := f.user(t, "bob@example.org")
	_, err = svc.Cancel(ctx, f.tenantID, other.ID, reg.ID, false)
	assert.ErrorIs(t, err, ErrRegistrationNotFound)

	cancelled, err := svc.Cancel(ctx, f.tenantID, u.ID, reg.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationRefunded, cancelled.Status)
	assert.Equal(t, model.PaymentRefunded, cancelled.PaymentStatus)
	assert.Equal(t, 0, f.sold(t, ticketID))

	_, err = svc.Cancel(ctx, f.tenantID, u.ID, reg.ID, false)
	assert.ErrorIs(t, err, ErrRegistrationClosed)

	// The released unit can be sold to someone else.
	_, err = svc.Register(ctx, RegisterInput{TenantID: f.tenantID, User: other, EventID: eventID, TicketTypeID: ticketID})
	require.NoError(t, err)
}

func TestCheckInTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.registrations()
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Gala")
	ticketID := testutil.InsertTicketType(t, f.db, eventID, 0, 5)
	reg, err := svc.Register(ctx, RegisterInput{TenantID: f.tenantID, User: f.user(t, "ann@example.org"), EventID: eventID, TicketTypeID: ticketID})
	require.NoError(t, err)

	got, err := svc.CheckIn(ctx, f.tenantID, reg.ConfirmationCode)
	require.NoError(t, err)
	assert.True(t, got.CheckedIn)
	require.NotNil(t, got.CheckInTime)

	_, err = svc.CheckIn(ctx, f.tenantID, reg.ConfirmationCode)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

	_, err = svc.CheckIn(ctx, f.tenantID, "NOPE")
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
}

// ledgerProcessor tracks charges that have not been refunded.
type ledgerProcessor struct {
	*payment.MockProcessor
	mu          sync.Mutex
	outstanding map[string]bool
}

func (p *ledgerProcessor) Charge(ctx context.Context, amountCents int64, currency string, method payment.Method) (payment.Outcome, error) {
	out, err := p.MockProcessor.Charge(ctx, amountCents, currency, method)
	if err == nil {
		p.mu.Lock()
		p.outstanding[out.TransactionID] = true
		p.mu.Unlock()
	}
	return out, err
}

func (p *ledgerProcessor) Refund(ctx context.Context, transactionID string, amountCents int64) (payment.Outcome, error) {
	out, err := p.MockProcessor.Refund(ctx, transactionID, amountCents)
	if err == nil {
		p.mu.Lock()
		delete(p.outstanding, transactionID)
		p.mu.Unlock()
	}
	return out, err
}

func TestRegisterRefundsWhenCommitFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ann@example.org")
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Gala")
	ticketID := testutil.InsertTicketType(t, f.db, eventID, 2500, 5)

	// A deferred foreign key violated by every insert only surfaces at COMMIT.
	_, err := f.db.Exec(`CREATE TABLE registration_audit (event_id INTEGER REFERENCES events(id) DEFERRABLE INITIALLY DEFERRED)`)
	require.NoError(t, err)
	_, err = f.db.Exec(`CREATE TRIGGER registration_audit_row AFTER INSERT ON event_registrations
		BEGIN INSERT INTO registration_audit (event_id) VALUES (-1); END`)
	require.NoError(t, err)

	proc := &ledgerProcessor{MockProcessor: f.processor, outstanding: map[string]bool{}}
	svc := NewRegistrationService(repository.NewTxManager(f.db), repository.NewEventRepo(f.db), f.tickets, f.regs,
		proc, f.publisher, f.metrics, clock.NewFixed(f.now))

	_, err = svc.Register(ctx, RegisterInput{TenantID: f.tenantID, User: u, EventID: eventID, TicketTypeID: ticketID})
	require.Error(t, err)
	assert.Empty(t, proc.outstanding)
	assert.Equal(t, 0, f.sold(t, ticketID))

	exists, err := f.regs.ExistsForUserEvent(ctx, u.ID, eventID)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, f.publisher.Keys())
}
