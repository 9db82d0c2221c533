// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/handler"
	"github.com/iliyamo/association-platform/internal/metrics"
	"github.com/iliyamo/association-platform/internal/middleware"
	"github.com/iliyamo/association-platform/internal/model"
)

// Guards are the middleware chains shared by the route groups.
type Guards struct {
	Auth        echo.MiddlewareFunc // JWTAuth
	AuthLimiter echo.MiddlewareFunc // per-IP limiter for /v1/auth
	APILimiter  echo.MiddlewareFunc // per-user limiter for /v1
	Cache       echo.MiddlewareFunc // response cache for public listings and stats
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db *sql.DB, m *metrics.Metrics) {
	e.GET("/healthz", handler.Health(db))
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterAuth registers the session endpoints. Register, login and the
// token exchanges need no session; /v1/me needs a valid access token but
// not a tenant, so platform administrators can use it too.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	auth := e.Group("/v1/auth", g.AuthLimiter)
	auth.POST("/register", a.Register)
	auth.POST("/login", a.Login)
	auth.POST("/refresh", a.Refresh)
	auth.POST("/refresh-access", a.RefreshAccess)
	auth.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, g.Auth)
}

// RegisterPublic registers the guest listings of an organization.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, g Guards) {
	pub := e.Group("/v1/public/:slug", g.Cache)
	pub.GET("/events", p.Events)
	pub.GET("/campaigns", p.Campaigns)
}

// TenantAPI returns the /v1 group every tenant-scoped route hangs off:
// authenticated, bound to an active tenant and rate limited per user.
func TenantAPI(e *echo.Echo, g Guards) *echo.Group {
	return e.Group("/v1", g.Auth, middleware.RequireTenant(), g.APILimiter)
}

var adminOnly = middleware.RequireRole(model.RoleAdmin)
