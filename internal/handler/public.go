package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/repository"
)

// PublicHandler serves the unauthenticated listings of an organization,
// addressed by its slug. Internal fields are filtered from responses.
type PublicHandler struct {
	Tenants     *repository.TenantRepo
	EventRepo   *repository.EventRepo
	Fundraising *repository.FundraisingRepo
}

// PublicEvent is an event as shown to visitors.
type PublicEvent struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Region      string    `json:"region,omitempty"`
	EventType   string    `json:"event_type,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// PublicCampaign is a campaign with its progress.
type PublicCampaign struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	GoalCents    int64  `json:"goal_cents"`
	CurrentCents int64  `json:"current_cents"`
}

// tenantBySlug resolves :slug to an active tenant, answering 404 otherwise.
func (h *PublicHandler) tenantBySlug(c echo.Context) (model.Tenant, bool) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tenants.GetBySlug(ctx, strings.ToLower(c.Param("slug")))
	if err != nil || !t.IsActive {
		return model.Tenant{}, false
	}
	return t, true
}

// Events lists the published, public and upcoming events of a tenant.
func (h *PublicHandler) Events(c echo.Context) error {
	t, ok := h.tenantBySlug(c)
	if !ok {
		return fail(c, http.StatusNotFound, "tenant_not_found", "organization not found")
	}
	now := time.Now().UTC()
	ctx, cancel := reqCtx(c)
	defer cancel()
	events, err := h.EventRepo.List(ctx, t.ID, repository.EventFilter{
		Status:     model.EventPublished,
		PublicOnly: true,
		From:       &now,
		Page:       pageFrom(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	out := make([]PublicEvent, 0, len(events))
	for _, e := range events {
		out = append(out, PublicEvent{
			ID: e.ID, Title: e.Title, Description: e.Description, Location: e.Location,
			Region: e.Region, EventType: e.EventType, StartTime: e.StartTime, EndTime: e.EndTime,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"organization": t.Name, "items": out})
}

// Campaigns lists a tenant's active campaigns.
func (h *PublicHandler) Campaigns(c echo.Context) error {
	t, ok := h.tenantBySlug(c)
	if !ok {
		return fail(c, http.StatusNotFound, "tenant_not_found", "organization not found")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	campaigns, err := h.Fundraising.ListCampaigns(ctx, t.ID, true)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]PublicCampaign, 0, len(campaigns))
	for _, cmp := range campaigns {
		out = append(out, PublicCampaign{
			ID: cmp.ID, Name: cmp.Name, Description: cmp.Description,
			GoalCents: cmp.GoalCents, CurrentCents: cmp.CurrentCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"organization": t.Name, "items": out})
}
