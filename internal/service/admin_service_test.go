package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/plan"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/testutil"
)

func TestCloneEventCopiesTicketTypes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	events := repository.NewEventRepo(f.db)
	svc := NewEventService(repository.NewTxManager(f.db), events, f.tickets)

	src := model.Event{TenantID: f.tenantID, Title: "Summit", StartTime: f.now.Add(time.Hour), EndTime: f.now.Add(3 * time.Hour), Status: model.EventPublished}
	require.NoError(t, svc.CreateEvent(ctx, &src))
	tt := model.TicketType{EventID: src.ID, Name: "Standard", PriceCents: 1000, QuantityAvailable: 50, IsActive: true}
	require.NoError(t, svc.CreateTicketType(ctx, f.tenantID, &tt))
	require.NoError(t, f.tickets.Reserve(ctx, tt.ID))

	clone, err := svc.Clone(ctx, f.tenantID, src.ID)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, clone.ID)
	assert.Equal(t, model.EventDraft, clone.Status)
	require.NotNil(t, clone.ParentEventID)
	assert.Equal(t, src.ID, *clone.ParentEventID)

	copied, err := f.tickets.ListByEvent(ctx, clone.ID)
	require.NoError(t, err)
	require.Len(t, copied, 1)
	assert.Equal(t, "Standard", copied[0].Name)
	assert.Equal(t, 50, copied[0].QuantityAvailable)
	assert.Zero(t, copied[0].QuantitySold)

	_, err = svc.Clone(ctx, f.tenantID, 9999)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewEventService(repository.NewTxManager(f.db), repository.NewEventRepo(f.db), f.tickets)
	var verr *ValidationError

	err := svc.CreateEvent(ctx, &model.Event{TenantID: f.tenantID, Title: "  ", StartTime: f.now, EndTime: f.now.Add(time.Hour)})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	err = svc.CreateEvent(ctx, &model.Event{TenantID: f.tenantID, Title: "x", StartTime: f.now, EndTime: f.now.Add(-time.Hour)})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "end_time", verr.Field)

	id := testutil.InsertEvent(t, f.db, f.tenantID, "Gala")
	bad := -1
	_, err = svc.UpdateEvent(ctx, f.tenantID, id, repository.EventUpdate{Capacity: &bad})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "capacity", verr.Field)

	title := "Gala 2"
	e, err := svc.UpdateEvent(ctx, f.tenantID, id, repository.EventUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Gala 2", e.Title)

	err = svc.CreateTicketType(ctx, f.tenantID, &model.TicketType{EventID: 9999, Name: "x"})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestTenantLifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	svc := NewTenantService(repository.NewTenantRepo(db))

	tn := model.Tenant{Name: "Rowing Club", Slug: "Rowing-Club"}
	require.NoError(t, svc.CreateTenant(ctx, &tn))
	assert.Equal(t, "rowing-club", tn.Slug)
	assert.Equal(t, model.PlanStarter, tn.PlanTier)
	assert.True(t, tn.IsActive)

	err := svc.CreateTenant(ctx, &model.Tenant{Name: "Again", Slug: "rowing-club"})
	assert.ErrorIs(t, err, ErrSlugTaken)

	var verr *ValidationError
	err = svc.CreateTenant(ctx, &model.Tenant{Name: "Bad", Slug: "bad slug!"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "slug", verr.Field)

	gold := model.PlanTier("gold")
	_, err = svc.UpdateTenant(ctx, tn.ID, repository.TenantUpdate{PlanTier: &gold})
	require.ErrorAs(t, err, &verr)

	// Starter tenants are denied professional features until upgraded.
	require.ErrorIs(t, plan.Require(tn, model.PlanProfessional), plan.ErrInsufficientTier)
	pro := model.PlanProfessional
	upgraded, err := svc.UpdateTenant(ctx, tn.ID, repository.TenantUpdate{PlanTier: &pro})
	require.NoError(t, err)
	assert.NoError(t, plan.Require(upgraded, model.PlanProfessional))

	require.NoError(t, svc.DeleteTenant(ctx, tn.ID))
	assert.ErrorIs(t, svc.DeleteTenant(ctx, tn.ID), ErrTenantNotFound)
	_, err = svc.UpdateTenant(ctx, tn.ID, repository.TenantUpdate{PlanTier: &pro})
	assert.ErrorIs(t, err, ErrTenantNotFound)
}
