package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/service"
)

// PlatformHandler is the platform administrator's API over all tenants.
type PlatformHandler struct {
	Tenants   *repository.TenantRepo
	StatsRepo *repository.StatsRepo
	Svc       *service.TenantService
}

func (h *PlatformHandler) ListTenants(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Tenants.List(ctx, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type tenantReq struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	PlanTier string `json:"plan_tier"`
}

func (h *PlatformHandler) CreateTenant(c echo.Context) error {
	var req tenantReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	t := model.Tenant{Name: req.Name, Slug: req.Slug, PlanTier: model.PlanTier(strings.ToLower(strings.TrimSpace(req.PlanTier)))}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.CreateTenant(ctx, &t); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

type updateTenantReq struct {
	Name     *string `json:"name"`
	PlanTier *string `json:"plan_tier"`
	IsActive *bool   `json:"is_active"`
}

// UpdateTenant renames, re-tiers or (de)activates a tenant. Tier changes
// take effect on the tenant's next request.
func (h *PlatformHandler) UpdateTenant(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req updateTenantReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	upd := repository.TenantUpdate{Name: trimPtr(req.Name), IsActive: req.IsActive}
	if req.PlanTier != nil {
		tier := model.PlanTier(strings.ToLower(strings.TrimSpace(*req.PlanTier)))
		upd.PlanTier = &tier
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Svc.UpdateTenant(ctx, id, upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *PlatformHandler) DeleteTenant(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.DeleteTenant(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PlatformHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.StatsRepo.Platform(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
