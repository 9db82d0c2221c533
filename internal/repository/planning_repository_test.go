package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/testutil"
)

func TestAgendaSessionsScopedToTenant(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	acme := testutil.InsertTenant(t, db, "acme", model.PlanStarter)
	other := testutil.InsertTenant(t, db, "other", model.PlanStarter)
	eventID := testutil.InsertEvent(t, db, acme, "Conference")
	agenda := NewAgendaRepo(db)

	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	late := model.Session{EventID: eventID, Title: "Closing", StartTime: start.Add(6 * time.Hour), EndTime: start.Add(7 * time.Hour)}
	early := model.Session{EventID: eventID, Title: "Keynote", StartTime: start, EndTime: start.Add(time.Hour), SpeakerName: "Ann"}
	require.NoError(t, agenda.Create(ctx, &late))
	require.NoError(t, agenda.Create(ctx, &early))

	list, err := agenda.ListByEvent(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Keynote", list[0].Title)
	assert.Equal(t, "Closing", list[1].Title)

	_, err = agenda.Get(ctx, other, early.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	title := "Hijacked"
	_, err = agenda.Update(ctx, other, early.ID, SessionUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, agenda.Delete(ctx, other, early.ID), ErrNotFound)

	loc := "Main hall"
	got, err := agenda.Update(ctx, acme, early.ID, SessionUpdate{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, "Main hall", got.Location)
	assert.Equal(t, "Keynote", got.Title)
	assert.Equal(t, "Ann", got.SpeakerName)

	require.NoError(t, agenda.Delete(ctx, acme, early.ID))
	_, err = agenda.Get(ctx, acme, early.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPositionTitleUniquePerTenantAndLinkedElection(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	acme := testutil.InsertTenant(t, db, "acme", model.PlanProfessional)
	other := testutil.InsertTenant(t, db, "other", model.PlanProfessional)
	repo := NewElectionRepo(db)

	treasurer := model.Position{TenantID: acme, Title: "Treasurer", TermLength: "2 years"}
	chair := model.Position{TenantID: acme, Title: "Chair", IsExecutive: true}
	require.NoError(t, repo.CreatePosition(ctx, &treasurer))
	require.NoError(t, repo.CreatePosition(ctx, &chair))
	assert.ErrorIs(t, repo.CreatePosition(ctx, &model.Position{TenantID: acme, Title: "Chair"}), ErrConflict)
	require.NoError(t, repo.CreatePosition(ctx, &model.Position{TenantID: other, Title: "Chair"}))

	list, err := repo.ListPositions(ctx, acme, Page{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Chair", list[0].Title, "executive roles first")

	_, err = repo.GetPosition(ctx, other, treasurer.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	now := time.Now().UTC()
	e := model.Election{TenantID: acme, Title: "Treasurer 2026", StartDate: now, EndDate: now.Add(time.Hour), PositionID: &treasurer.ID}
	require.NoError(t, repo.Create(ctx, &e))
	got, err := repo.Get(ctx, acme, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PositionID)
	assert.Equal(t, treasurer.ID, *got.PositionID)
}

func TestStrategyDashboardAggregatesTenantEvents(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	acme := testutil.InsertTenant(t, db, "acme", model.PlanProfessional)
	other := testutil.InsertTenant(t, db, "other", model.PlanProfessional)
	north := testutil.InsertEvent(t, db, acme, "North meetup")
	south := testutil.InsertEvent(t, db, acme, "South meetup")
	foreign := testutil.InsertEvent(t, db, other, "Elsewhere")
	_, err := db.Exec("UPDATE events SET region='north' WHERE id=?", north)
	require.NoError(t, err)
	_, err = db.Exec("UPDATE events SET status='DRAFT' WHERE id=?", south)
	require.NoError(t, err)
	repo := NewStrategyRepo(db)

	for _, b := range []model.BudgetItem{
		{EventID: north, Category: "Venue", PlannedCents: 10_000, ActualCents: 9_000, ForecastCents: 9_500},
		{EventID: south, Category: "Catering", PlannedCents: 5_000, ActualCents: 6_000, ForecastCents: 6_000},
		{EventID: foreign, Category: "Venue", PlannedCents: 99_999},
	} {
		require.NoError(t, repo.CreateBudgetItem(ctx, &b))
	}
	for _, m := range []model.ESGMetric{
		{EventID: north, Metric: "Carbon footprint", Value: 120.5, Unit: "kg CO2e"},
		{EventID: south, Metric: "carbon_travel", Value: 30, Unit: "kg CO2e"},
		{EventID: south, Metric: "Water", Value: 500, Unit: "l"},
		{EventID: foreign, Metric: "Carbon footprint", Value: 1000, Unit: "kg CO2e"},
	} {
		require.NoError(t, repo.CreateESGMetric(ctx, &m))
	}
	g := model.Goal{EventID: north, MetricName: "Attendance", TargetValue: 100}
	require.NoError(t, repo.CreateGoal(ctx, &g))

	d, err := repo.Dashboard(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.TotalEvents)
	assert.Equal(t, int64(15_000), d.BudgetPlannedCents)
	assert.Equal(t, int64(15_000), d.BudgetActualCents)
	assert.Equal(t, int64(15_500), d.BudgetForecastCents)
	assert.InDelta(t, 150.5, d.CarbonFootprint, 0.001)
	assert.Equal(t, map[string]int64{"north": 1, "unspecified": 1}, d.EventsByRegion)
	assert.Equal(t, map[string]int64{"PUBLISHED": 1, "DRAFT": 1}, d.EventsByStatus)

	goals, err := repo.ListGoals(ctx, north)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Attendance", goals[0].MetricName)

	empty, err := repo.Dashboard(ctx, testutil.InsertTenant(t, db, "empty", model.PlanProfessional))
	require.NoError(t, err)
	assert.Zero(t, empty.TotalEvents)
	assert.Empty(t, empty.EventsByRegion)
}

func TestEmailListSentOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	acme := testutil.InsertTenant(t, db, "acme", model.PlanStarter)
	other := testutil.InsertTenant(t, db, "other", model.PlanStarter)
	eventID := testutil.InsertEvent(t, db, acme, "Gala")
	repo := NewEmailListRepo(db)

	l := model.EmailList{EventID: eventID, Name: "Speakers", Subject: "Schedule", Body: "See attached",
		Recipients: []model.EmailRecipient{{Email: "ann@example.org", Name: "Ann"}}}
	require.NoError(t, repo.Create(ctx, &l))
	assert.Equal(t, model.EmailListDraft, l.Status)

	got, err := repo.Get(ctx, acme, eventID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.Recipients, got.Recipients)
	assert.Nil(t, got.SentAt)

	_, err = repo.Get(ctx, other, eventID, l.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkSent(ctx, l.ID, at))
	assert.ErrorIs(t, repo.MarkSent(ctx, l.ID, at), ErrConflict)

	got, err = repo.Get(ctx, acme, eventID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EmailListSent, got.Status)
	require.NotNil(t, got.SentAt)
	assert.True(t, at.Equal(*got.SentAt))

	require.NoError(t, repo.MarkFailed(ctx, l.ID))
	require.NoError(t, repo.MarkSent(ctx, l.ID, at), "a failed list can be sent again")
}
