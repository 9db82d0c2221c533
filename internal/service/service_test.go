package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/association-platform/internal/clock"
	"github.com/iliyamo/association-platform/internal/metrics"
	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/payment"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/testutil"
)

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

type fixture struct {
	db        *sql.DB
	tenantID  uint64
	now       time.Time
	processor *payment.MockProcessor
	publisher *recordingPublisher
	metrics   *metrics.Metrics

	tickets *repository.TicketRepo
	regs    *repository.RegistrationRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	return &fixture{
		db:        db,
		tenantID:  testutil.InsertTenant(t, db, "acme", model.PlanProfessional),
		now:       time.Now().UTC(),
		processor: payment.NewMockProcessor(10_000),
		publisher: &recordingPublisher{},
		metrics:   metrics.New(),
		tickets:   repository.NewTicketRepo(db),
		regs:      repository.NewRegistrationRepo(db),
	}
}

func (f *fixture) user(t *testing.T, email string) model.User {
	t.Helper()
	id := testutil.InsertUser(t, f.db, f.tenantID, email, model.RoleMember)
	tid := f.tenantID
	return model.User{ID: id, TenantID: &tid, Email: email, Role: model.RoleMember}
}

func (f *fixture) registrations() *RegistrationService {
	return NewRegistrationService(repository.NewTxManager(f.db), repository.NewEventRepo(f.db), f.tickets, f.regs,
		f.processor, f.publisher, f.metrics, clock.NewFixed(f.now))
}

func (f *fixture) sold(t *testing.T, ticketID uint64) int {
	t.Helper()
	tt, err := f.tickets.Get(context.Background(), ticketID)
	require.NoError(t, err)
	return tt.QuantitySold
}
