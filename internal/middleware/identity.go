package middleware

// identity.go holds the keys under which JWTAuth stores the caller in the
// echo context and typed accessors for handlers and other middleware.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/model"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxUser   = "user"
	ctxTenant = "tenant"
)

// UserID returns the authenticated user's ID, or 0 for anonymous requests.
func UserID(c echo.Context) uint64 {
	id, _ := c.Get(ctxUserID).(uint64)
	return id
}

// CurrentUser returns the user loaded by JWTAuth.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(ctxUser).(model.User)
	return u, ok
}

// CurrentTenant returns the caller's organization. ok is false for platform
// administrators that do not belong to one.
func CurrentTenant(c echo.Context) (model.Tenant, bool) {
	t, ok := c.Get(ctxTenant).(model.Tenant)
	return t, ok
}

// SetIdentity stores u and its tenant in c. JWTAuth calls it; tests use it
// to fake an authenticated request.
func SetIdentity(c echo.Context, u model.User, t *model.Tenant) {
	c.Set(ctxUserID, u.ID)
	c.Set(ctxRole, u.Role)
	c.Set(ctxUser, u)
	if t != nil {
		c.Set(ctxTenant, *t)
	}
}

// deny writes the JSON error body used across the API.
func deny(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"error": msg, "code": code})
}
