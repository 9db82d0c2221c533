package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/payment"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/service"
)

// RegistrationHandler sells tickets and manages attendance.
type RegistrationHandler struct {
	Regs   *repository.RegistrationRepo
	Events *repository.EventRepo
	Svc    *service.RegistrationService
}

type registerEventReq struct {
	TicketTypeID  uint64 `json:"ticket_type_id"`
	PaymentMethod string `json:"payment_method"`
}

// Register buys one unit of a ticket type for the caller.
func (h *RegistrationHandler) Register(c echo.Context) error {
	u, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	eventID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req registerEventReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.TicketTypeID == 0 {
		return respondError(c, &service.ValidationError{Field: "ticket_type_id", Message: "is required"})
	}
	method, err := payment.ParseMethod(req.PaymentMethod)
	if err != nil {
		return respondError(c, &service.ValidationError{Field: "payment_method", Message: err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	reg, err := h.Svc.Register(ctx, service.RegisterInput{
		TenantID:     tid,
		User:         u,
		EventID:      eventID,
		TicketTypeID: req.TicketTypeID,
		Method:       method,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, reg)
}

// Mine lists the caller's registrations.
func (h *RegistrationHandler) Mine(c echo.Context) error {
	u, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	regs, err := h.Regs.ListByUser(ctx, tid, u.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": regs})
}

// ListByEvent is the admin view of an event's attendees.
func (h *RegistrationHandler) ListByEvent(c echo.Context) error {
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
	if _, err := h.Events.Get(ctx, tid, id); err != nil {
		return respondError(c, mapNotFound(err, service.ErrEventNotFound))
	}
	regs, err := h.Regs.ListByEvent(ctx, tid, id, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": regs})
}

// Cancel cancels the caller's registration; admins may cancel any in the tenant.
func (h *RegistrationHandler) Cancel(c echo.Context) error {
	u, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	reg, err := h.Svc.Cancel(ctx, tid, u.ID, id, isAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, reg)
}

type checkInReq struct {
	ConfirmationCode string `json:"confirmation_code"`
}

func (h *RegistrationHandler) CheckIn(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	var req checkInReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	reg, err := h.Svc.CheckIn(ctx, tid, strings.ToUpper(strings.TrimSpace(req.ConfirmationCode)))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, reg)
}
