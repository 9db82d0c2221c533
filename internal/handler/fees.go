package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/payment"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/service"
)

// FeeHandler serves membership fees and their payments.
type FeeHandler struct {
	Fees *repository.FeeRepo
	Svc  *service.FeeService
}

// ListFees returns active fees; admins may pass ?all=true.
func (h *FeeHandler) ListFees(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	activeOnly := !(isAdmin(c) && c.QueryParam("all") == "true")
	ctx, cancel := reqCtx(c)
	defer cancel()
	fees, err := h.Fees.ListFees(ctx, tid, activeOnly)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": fees})
}

type feeReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Interval    string `json:"interval"`
	IsActive    *bool  `json:"is_active"`
}

func (h *FeeHandler) CreateFee(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	var req feeReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	f := model.MembershipFee{
		TenantID:    tid,
		Name:        req.Name,
		Description: req.Description,
		AmountCents: req.AmountCents,
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		Interval:    model.FeeInterval(strings.ToUpper(strings.TrimSpace(req.Interval))),
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.CreateFee(ctx, &f); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, f)
}

type payReq struct {
	FeeID         uint64 `json:"fee_id"`
	PaymentMethod string `json:"payment_method"`
}

// Pay charges the caller for a fee. A declined charge answers 400 and carries
// the FAILED payment row that was recorded.
func (h *FeeHandler) Pay(c echo.Context) error {
	u, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	var req payReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.FeeID == 0 {
		return respondError(c, &service.ValidationError{Field: "fee_id", Message: "is required"})
	}
	method, err := payment.ParseMethod(req.PaymentMethod)
	if err != nil {
		return respondError(c, &service.ValidationError{Field: "payment_method", Message: err.Error()})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Svc.Pay(ctx, tid, u, req.FeeID, method)
	if errors.Is(err, service.ErrPaymentDeclined) && p.ID != 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(), "code": "payment_declined", "payment": p,
		})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *FeeHandler) MyPayments(c echo.Context) error {
	u, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Fees.ListPayments(ctx, tid, u.ID, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AllPayments is the admin ledger; ?user_id= narrows it to one member.
func (h *FeeHandler) AllPayments(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	var userID uint64
	if c.QueryParam("user_id") != "" {
		id, ok := parseQueryID(c, "user_id")
		if !ok {
			return badRequest(c, "invalid user_id")
		}
		userID = id
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Fees.ListPayments(ctx, tid, userID, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
