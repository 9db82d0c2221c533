package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/utils"
)

type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type TenantLookup interface {
	GetByID(ctx context.Context, id uint64) (model.Tenant, error)
}

// JWTAuth validates the Bearer access token and loads the caller. The token
// only carries the user ID: role, active flag and tenant (with its plan
// tier) are read from the database on every request so a role change or a
// plan upgrade takes effect immediately.
func JWTAuth(secret string, users UserLookup, tenants TenantLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := utils.BearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				return deny(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			}
			uid, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return deny(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
			defer cancel()

			u, err := users.GetByID(ctx, uid)
			if errors.Is(err, repository.ErrNotFound) {
				return deny(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			}
			if err != nil {
				return deny(c, http.StatusInternalServerError, "internal_error", "load user failed")
			}
			if !u.IsActive {
				return deny(c, http.StatusForbidden, "account_disabled", "account is disabled")
			}

			var tenant *model.Tenant
			if u.TenantID != nil {
				t, err := tenants.GetByID(ctx, *u.TenantID)
				if err != nil && !errors.Is(err, repository.ErrNotFound) {
					return deny(c, http.StatusInternalServerError, "internal_error", "load tenant failed")
				}
				if err == nil {
					if !t.IsActive && !u.IsPlatformAdmin {
						return deny(c, http.StatusForbidden, "tenant_inactive", "organization is inactive")
					}
					tenant = &t
				}
			}
			SetIdentity(c, u, tenant)
			return next(c)
		}
	}
}
