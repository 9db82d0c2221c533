package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/association-platform/internal/clock"
	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/queue"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/testutil"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, any) error {
	return errors.New("broker unavailable")
}

func (f *fixture) planning(pub queue.Publisher) *PlanningService {
	return NewPlanningService(repository.NewEventRepo(f.db), repository.NewAgendaRepo(f.db),
		repository.NewStrategyRepo(f.db), repository.NewEmailListRepo(f.db), pub, clock.NewFixed(f.now))
}

func TestSessionValidationAndTenantScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.planning(f.publisher)
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Conference")
	other := testutil.InsertTenant(t, f.db, "other", model.PlanStarter)

	start := f.now.Add(48 * time.Hour)
	var verr *ValidationError
	err := svc.CreateSession(ctx, f.tenantID, &model.Session{EventID: eventID, Title: "Keynote", StartTime: start, EndTime: start})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "end_time", verr.Field)

	err = svc.CreateSession(ctx, other, &model.Session{EventID: eventID, Title: "Keynote", StartTime: start, EndTime: start.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrEventNotFound)

	s := model.Session{EventID: eventID, Title: "  Keynote ", StartTime: start, EndTime: start.Add(time.Hour)}
	require.NoError(t, svc.CreateSession(ctx, f.tenantID, &s))
	assert.Equal(t, "Keynote", s.Title)

	early := start.Add(-2 * time.Hour)
	_, err = svc.UpdateSession(ctx, f.tenantID, s.ID, repository.SessionUpdate{EndTime: &early})
	require.ErrorAs(t, err, &verr)

	later := start.Add(2 * time.Hour)
	got, err := svc.UpdateSession(ctx, f.tenantID, s.ID, repository.SessionUpdate{EndTime: &later})
	require.NoError(t, err)
	assert.True(t, later.Equal(got.EndTime))

	_, err = svc.UpdateSession(ctx, other, s.ID, repository.SessionUpdate{EndTime: &later})
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.DeleteSession(ctx, other, s.ID), ErrSessionNotFound)
	require.NoError(t, svc.DeleteSession(ctx, f.tenantID, s.ID))
}

func TestStrategyWritesRequireOwnEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.planning(f.publisher)
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Gala")
	other := testutil.InsertTenant(t, f.db, "other", model.PlanProfessional)

	var verr *ValidationError
	require.ErrorAs(t, svc.CreateBudgetItem(ctx, f.tenantID, &model.BudgetItem{EventID: eventID, Category: "Venue", PlannedCents: -1}), &verr)
	require.ErrorAs(t, svc.CreateESGMetric(ctx, f.tenantID, &model.ESGMetric{EventID: eventID, Metric: "carbon"}), &verr)
	assert.Equal(t, "unit", verr.Field)
	assert.ErrorIs(t, svc.CreateGoal(ctx, other, &model.Goal{EventID: eventID, MetricName: "Attendance"}), ErrEventNotFound)

	require.NoError(t, svc.CreateGoal(ctx, f.tenantID, &model.Goal{EventID: eventID, MetricName: "Attendance", TargetValue: 200}))
	require.NoError(t, svc.CreateBudgetItem(ctx, f.tenantID, &model.BudgetItem{EventID: eventID, Category: "Venue", PlannedCents: 50_000}))
	require.NoError(t, svc.CreateESGMetric(ctx, f.tenantID, &model.ESGMetric{EventID: eventID, Metric: "Carbon footprint", Value: 42, Unit: "kg CO2e"}))

	goals, budget, esg, err := svc.Strategy(ctx, f.tenantID, eventID)
	require.NoError(t, err)
	assert.Len(t, goals, 1)
	assert.Len(t, budget, 1)
	assert.Len(t, esg, 1)

	_, _, _, err = svc.Strategy(ctx, other, eventID)
	assert.ErrorIs(t, err, ErrEventNotFound)

	d, err := svc.Dashboard(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), d.BudgetPlannedCents)
	assert.InDelta(t, 42.0, d.CarbonFootprint, 0.001)
}

func TestEmailListCreateValidatesRecipients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.planning(f.publisher)
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Gala")

	var verr *ValidationError
	bad := model.EmailList{EventID: eventID, Name: "All", Subject: "Hi", Body: "Hello",
		Recipients: []model.EmailRecipient{{Email: "not-an-address"}}}
	require.ErrorAs(t, svc.CreateEmailList(ctx, f.tenantID, &bad), &verr)
	assert.Equal(t, "recipients", verr.Field)

	l := model.EmailList{EventID: eventID, Name: "All", Subject: "Hi", Body: "Hello",
		Recipients: []model.EmailRecipient{{Email: "ann@example.org"}, {Email: "ANN@example.org"}, {Email: "bob@example.org", Name: "Bob"}}}
	require.NoError(t, svc.CreateEmailList(ctx, f.tenantID, &l))
	assert.Len(t, l.Recipients, 2, "duplicates collapse")

	lists, err := svc.ListEmailLists(ctx, f.tenantID, eventID)
	require.NoError(t, err)
	require.Len(t, lists, 1)
}

func TestSendEmailListPublishesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.planning(f.publisher)
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Gala")

	l := model.EmailList{EventID: eventID, Name: "Speakers", Subject: "Schedule", Body: "Doors at 7",
		Recipients: []model.EmailRecipient{{Email: "ann@example.org"}}}
	require.NoError(t, svc.CreateEmailList(ctx, f.tenantID, &l))

	sent, err := svc.SendEmailList(ctx, f.tenantID, eventID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EmailListSent, sent.Status)
	require.NotNil(t, sent.SentAt)
	assert.Equal(t, []string{queue.EmailListSendKey}, f.publisher.Keys())
	ev, ok := f.publisher.events[0].(queue.EmailListSendEvent)
	require.True(t, ok)
	assert.Equal(t, []string{"ann@example.org"}, ev.Recipients)
	assert.Equal(t, "Gala", ev.EventTitle)

	_, err = svc.SendEmailList(ctx, f.tenantID, eventID, l.ID)
	assert.ErrorIs(t, err, ErrEmailListSent)
	assert.Len(t, f.publisher.Keys(), 1)

	_, err = svc.SendEmailList(ctx, f.tenantID, eventID, l.ID+100)
	assert.ErrorIs(t, err, ErrEmailListNotFound)

	empty := model.EmailList{EventID: eventID, Name: "Nobody", Subject: "Hi", Body: "Hello"}
	require.NoError(t, svc.CreateEmailList(ctx, f.tenantID, &empty))
	var verr *ValidationError
	_, err = svc.SendEmailList(ctx, f.tenantID, eventID, empty.ID)
	require.ErrorAs(t, err, &verr)
}

func TestSendEmailListMarksFailedWhenBrokerDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eventID := testutil.InsertEvent(t, f.db, f.tenantID, "Gala")
	l := model.EmailList{EventID: eventID, Name: "Speakers", Subject: "Schedule", Body: "Doors at 7",
		Recipients: []model.EmailRecipient{{Email: "ann@example.org"}}}
	require.NoError(t, f.planning(f.publisher).CreateEmailList(ctx, f.tenantID, &l))

	_, err := f.planning(failingPublisher{}).SendEmailList(ctx, f.tenantID, eventID, l.ID)
	require.Error(t, err)

	got, err := repository.NewEmailListRepo(f.db).Get(ctx, f.tenantID, eventID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EmailListFailed, got.Status)
	assert.Nil(t, got.SentAt)

	_, err = f.planning(f.publisher).SendEmailList(ctx, f.tenantID, eventID, l.ID)
	require.NoError(t, err, "a failed list can be retried")
}
