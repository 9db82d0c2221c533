package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/middleware"
	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/repository"
)

const requestTimeout = 5 * time.Second

// reqCtx bounds the database work of one request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// caller returns the authenticated user and the ID of their tenant. ok is
// false when either is missing; the routes using it sit behind JWTAuth and
// RequireTenant.
func caller(c echo.Context) (u model.User, tenantID uint64, ok bool) {
	u, ok = middleware.CurrentUser(c)
	if !ok {
		return model.User{}, 0, false
	}
	t, ok := middleware.CurrentTenant(c)
	if !ok {
		return model.User{}, 0, false
	}
	return u, t.ID, true
}

func noTenant(c echo.Context) error {
	return fail(c, http.StatusNotFound, "tenant_not_found", "user is not associated with any tenant")
}

func isAdmin(c echo.Context) bool {
	u, ok := middleware.CurrentUser(c)
	return ok && u.Role == model.RoleAdmin
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// pageFrom reads ?limit= and ?offset=; bad values fall back to defaults.
func pageFrom(c echo.Context) repository.Page {
	var p repository.Page
	if v, err := strconv.ParseUint(c.QueryParam("limit"), 10, 64); err == nil {
		p.Limit = v
	}
	if v, err := strconv.ParseUint(c.QueryParam("offset"), 10, 64); err == nil {
		p.Offset = v
	}
	return p.Normalize()
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func parseQueryID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.QueryParam(name), 10, 64)
	return id, err == nil && id > 0
}
