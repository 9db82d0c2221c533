package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/handler"
	"github.com/iliyamo/association-platform/internal/middleware"
)

// RegisterPlatform registers the platform administrator's tenant management.
// These routes need no tenant of their own.
func RegisterPlatform(e *echo.Echo, p *handler.PlatformHandler, g Guards) {
	pg := e.Group("/v1/platform", g.Auth, middleware.RequirePlatformAdmin(), g.APILimiter)
	pg.GET("/tenants", p.ListTenants)
	pg.POST("/tenants", p.CreateTenant)
	pg.PUT("/tenants/:id", p.UpdateTenant)
	pg.DELETE("/tenants/:id", p.DeleteTenant)
	pg.GET("/stats", p.Stats, g.Cache)
}
