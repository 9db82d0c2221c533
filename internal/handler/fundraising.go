package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/payment"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/service"
)

// FundraisingHandler serves donors, donations and campaigns.
type FundraisingHandler struct {
	Store *repository.FundraisingRepo
	Svc   *service.FundraisingService
}

func (h *FundraisingHandler) ListDonors(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	donors, err := h.Store.ListDonors(ctx, tid, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": donors})
}

// GetDonor returns a donor with their donations, newest first.
func (h *FundraisingHandler) GetDonor(c echo.Context) error {
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
	d, err := h.Store.GetDonor(ctx, tid, id)
	if err != nil {
		return respondError(c, mapNotFound(err, service.ErrDonorNotFound))
	}
	donations, err := h.Store.ListDonations(ctx, tid, d.ID, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"donor": d, "donations": donations})
}

// ListDonations lists the tenant's donations; ?donor_id= narrows to one donor.
func (h *FundraisingHandler) ListDonations(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	var donorID uint64
	if c.QueryParam("donor_id") != "" {
		id, ok := parseQueryID(c, "donor_id")
		if !ok {
			return badRequest(c, "invalid donor_id")
		}
		donorID = id
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Store.ListDonations(ctx, tid, donorID, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type donorReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// donorFrom fills missing donor details from the caller's own account, so a
// logged-in member can give without repeating their profile.
func donorFrom(req donorReq, u model.User, tenantID uint64) model.Donor {
	d := model.Donor{TenantID: tenantID, FirstName: req.FirstName, LastName: req.LastName, Email: req.Email, Phone: req.Phone}
	if strings.TrimSpace(d.Email) == "" || strings.EqualFold(strings.TrimSpace(d.Email), u.Email) {
		d.Email = u.Email
		d.UserID = &u.ID
		if strings.TrimSpace(d.FirstName) == "" {
			first, last, _ := strings.Cut(strings.TrimSpace(u.FullName), " ")
			d.FirstName, d.LastName = first, strings.TrimSpace(last)
		}
	}
	return d
}

// CreateDonor answers 201 for a new donor and 200 when an existing donor
// with the same email was updated.
func (h *FundraisingHandler) CreateDonor(c echo.Context) error {
	u, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	var req donorReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	d := donorFrom(req, u, tid)
	ctx, cancel := reqCtx(c)
	defer cancel()
	created, err := h.Svc.SaveDonor(ctx, &d)
	if err != nil {
		return respondError(c, err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, d)
}

type donationReq struct {
	donorReq
	CampaignID    *uint64 `json:"campaign_id"`
	AmountCents   int64   `json:"amount_cents"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method"`
}

func (h *FundraisingHandler) Donate(c echo.Context) error {
	u, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	var req donationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	method, err := payment.ParseMethod(req.PaymentMethod)
	if err != nil {
		return respondError(c, &service.ValidationError{Field: "payment_method", Message: err.Error()})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Svc.Donate(ctx, service.DonationInput{
		TenantID:    tid,
		Donor:       donorFrom(req.donorReq, u, tid),
		CampaignID:  req.CampaignID,
		AmountCents: req.AmountCents,
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		Method:      method,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

// ListCampaigns shows active campaigns; admins see all with ?all=true.
func (h *FundraisingHandler) ListCampaigns(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	activeOnly := !(isAdmin(c) && c.QueryParam("all") == "true")
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Store.ListCampaigns(ctx, tid, activeOnly)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *FundraisingHandler) GetCampaign(c echo.Context) error {
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
	cmp, err := h.Store.GetCampaign(ctx, tid, id)
	if err != nil {
		return respondError(c, mapNotFound(err, service.ErrCampaignNotFound))
	}
	return c.JSON(http.StatusOK, cmp)
}

type campaignReq struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	GoalCents   int64      `json:"goal_cents"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsActive    *bool      `json:"is_active"`
}

func (h *FundraisingHandler) CreateCampaign(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	var req campaignReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	cmp := model.Campaign{
		TenantID:    tid,
		Name:        req.Name,
		Description: req.Description,
		GoalCents:   req.GoalCents,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.CreateCampaign(ctx, &cmp); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, cmp)
}
