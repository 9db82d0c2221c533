package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/repository"
)

// UserHandler lets tenant admins manage the members of their organization.
type UserHandler struct {
	Users *repository.UserRepo
}

func (h *UserHandler) List(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	role := model.Role(strings.ToLower(c.QueryParam("role")))
	if role != "" && !role.Valid() {
		return badRequest(c, "invalid role filter")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Users.ListByTenant(ctx, tid, role, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}

func (h *UserHandler) Get(c echo.Context) error {
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
	u, err := h.Users.GetInTenant(ctx, tid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

type updateUserReq struct {
	FullName       *string `json:"full_name"`
	Role           *string `json:"role"`
	MembershipTier *string `json:"membership_tier"`
	IsActive       *bool   `json:"is_active"`
}

// Update changes a member's role, membership tier or active flag. Admins
// cannot demote or deactivate themselves.
func (h *UserHandler) Update(c echo.Context) error {
	me, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	upd := repository.UserUpdate{FullName: trimPtr(req.FullName), MembershipTier: trimPtr(req.MembershipTier), IsActive: req.IsActive}
	if req.Role != nil {
		r := model.Role(strings.ToLower(strings.TrimSpace(*req.Role)))
		if !r.Valid() {
			return badRequest(c, "role must be admin, member, donor or volunteer")
		}
		upd.Role = &r
	}
	if id == me.ID && ((upd.Role != nil && *upd.Role != model.RoleAdmin) || (upd.IsActive != nil && !*upd.IsActive)) {
		return fail(c, http.StatusBadRequest, "invalid_request", "admins cannot demote or deactivate themselves")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Update(ctx, tid, id, upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
