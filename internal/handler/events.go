package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/service"
)

// EventHandler serves events, their ticket types and sponsors.
type EventHandler struct {
	Events  *repository.EventRepo
	Tickets *repository.TicketRepo
	Svc     *service.EventService
}

type eventReq struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Location    string            `json:"location"`
	Region      string            `json:"region"`
	EventType   string            `json:"event_type"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time"`
	Capacity    int               `json:"capacity"`
	Status      model.EventStatus `json:"status"`
	IsPublic    *bool             `json:"is_public"`
}

// List returns the tenant's events. Members only see published ones;
// admins may filter with ?status=.
func (h *EventHandler) List(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	f := repository.EventFilter{Status: model.EventPublished, Page: pageFrom(c)}
	if isAdmin(c) {
		f.Status = model.EventStatus(strings.ToUpper(c.QueryParam("status")))
		if f.Status != "" && !f.Status.Valid() {
			return badRequest(c, "invalid status filter")
		}
	}
	if c.QueryParam("upcoming") == "true" {
		now := time.Now().UTC()
		f.From = &now
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	events, err := h.Events.List(ctx, tid, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": events})
}

func (h *EventHandler) Get(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.visibleEvent(ctx, c, tid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *EventHandler) visibleEvent(ctx context.Context, c echo.Context, tenantID, id uint64) (model.Event, error) {
	return visibleEvent(ctx, c, h.Events, tenantID, id)
}

// visibleEvent loads an event of the tenant. Drafts exist only for admins.
func visibleEvent(ctx context.Context, c echo.Context, events *repository.EventRepo, tenantID, id uint64) (model.Event, error) {
	e, err := events.Get(ctx, tenantID, id)
	if err != nil {
		return model.Event{}, mapNotFound(err, service.ErrEventNotFound)
	}
	if e.Status == model.EventDraft && !isAdmin(c) {
		return model.Event{}, service.ErrEventNotFound
	}
	return e, nil
}

func (h *EventHandler) Create(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	e := model.Event{
		TenantID:    tid,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Region:      req.Region,
		EventType:   req.EventType,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
		Status:      model.EventStatus(strings.ToUpper(string(req.Status))),
		IsPublic:    req.IsPublic == nil || *req.IsPublic,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.CreateEvent(ctx, &e); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

type updateEventReq struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Location    *string            `json:"location"`
	Region      *string            `json:"region"`
	EventType   *string            `json:"event_type"`
	StartTime   *time.Time         `json:"start_time"`
	EndTime     *time.Time         `json:"end_time"`
	Capacity    *int               `json:"capacity"`
	Status      *model.EventStatus `json:"status"`
	IsPublic    *bool              `json:"is_public"`
}

func (h *EventHandler) Update(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req updateEventReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Status != nil {
		s := model.EventStatus(strings.ToUpper(string(*req.Status)))
		req.Status = &s
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Svc.UpdateEvent(ctx, tid, id, repository.EventUpdate{
		Title: req.Title, Description: req.Description, Location: req.Location, Region: req.Region,
		EventType: req.EventType, StartTime: req.StartTime, EndTime: req.EndTime, Capacity: req.Capacity,
		Status: req.Status, IsPublic: req.IsPublic,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *EventHandler) Delete(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Events.Delete(ctx, tid, id); err != nil {
		return respondError(c, mapNotFound(err, service.ErrEventNotFound))
	}
	return c.NoContent(http.StatusNoContent)
}

// Clone copies an event with its ticket types as a new draft.
func (h *EventHandler) Clone(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Svc.Clone(ctx, tid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

// ListTickets returns an event's ticket types with their remaining stock.
func (h *EventHandler) ListTickets(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.visibleEvent(ctx, c, tid, id); err != nil {
		return respondError(c, err)
	}
	tickets, err := h.Tickets.ListByEvent(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tickets})
}

type ticketReq struct {
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	PriceCents        int64      `json:"price_cents"`
	Currency          string     `json:"currency"`
	QuantityAvailable int        `json:"quantity_available"`
	SaleStart         *time.Time `json:"sale_start"`
	SaleEnd           *time.Time `json:"sale_end"`
	IsActive          *bool      `json:"is_active"`
}

func (h *EventHandler) CreateTicket(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req ticketReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	t := model.TicketType{
		EventID:           id,
		Name:              req.Name,
		Description:       req.Description,
		PriceCents:        req.PriceCents,
		Currency:          strings.ToUpper(strings.TrimSpace(req.Currency)),
		QuantityAvailable: req.QuantityAvailable,
		SaleStart:         req.SaleStart,
		SaleEnd:           req.SaleEnd,
		IsActive:          req.IsActive == nil || *req.IsActive,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.CreateTicketType(ctx, tid, &t); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *EventHandler) ListSponsors(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.visibleEvent(ctx, c, tid, id); err != nil {
		return respondError(c, err)
	}
	sponsors, err := h.Events.ListSponsors(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": sponsors})
}

type sponsorReq struct {
	Name    string `json:"name"`
	Tier    string `json:"tier"`
	LogoURL string `json:"logo_url"`
	Website string `json:"website"`
	Bio     string `json:"bio"`
}

func (h *EventHandler) CreateSponsor(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req sponsorReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	s := model.Sponsor{
		EventID: id,
		Name:    strings.TrimSpace(req.Name),
		Tier:    model.SponsorTier(strings.TrimSpace(req.Tier)),
		LogoURL: req.LogoURL,
		Website: req.Website,
		Bio:     req.Bio,
	}
	if s.Tier == "" {
		s.Tier = model.SponsorBronze
	}
	if s.Name == "" {
		return respondError(c, &service.ValidationError{Field: "name", Message: "is required"})
	}
	if !s.Tier.Valid() {
		return respondError(c, &service.ValidationError{Field: "tier", Message: "must be Platinum, Gold, Silver or Bronze"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Events.Get(ctx, tid, id); err != nil {
		return respondError(c, mapNotFound(err, service.ErrEventNotFound))
	}
	if err := h.Events.CreateSponsor(ctx, &s); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *EventHandler) DeleteSponsor(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Events.DeleteSponsor(ctx, tid, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
