package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/plan"
)

// RequireRole lets the request through only if the caller, as loaded by
// JWTAuth, has one of roles.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok || !allowed[u.Role] {
				return deny(c, http.StatusForbidden, "forbidden", "insufficient role")
			}
			return next(c)
		}
	}
}

// RequireTenant rejects callers that do not belong to an organization.
func RequireTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentTenant(c); !ok {
				return deny(c, http.StatusNotFound, "tenant_not_found", "user is not associated with any tenant")
			}
			return next(c)
		}
	}
}

// RequireTier gates a feature on the caller's tenant plan.
func RequireTier(min model.PlanTier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			t, ok := CurrentTenant(c)
			if !ok {
				return deny(c, http.StatusNotFound, "tenant_not_found", "user is not associated with any tenant")
			}
			if err := plan.Require(t, min); err != nil {
				return deny(c, http.StatusForbidden, "plan_upgrade_required",
					"this feature requires a "+plan.Title(min)+" plan")
			}
			return next(c)
		}
	}
}

// RequirePlatformAdmin guards the cross-tenant administration endpoints.
func RequirePlatformAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok || !u.IsPlatformAdmin {
				return deny(c, http.StatusForbidden, "forbidden", "platform administrator only")
			}
			return next(c)
		}
	}
}
