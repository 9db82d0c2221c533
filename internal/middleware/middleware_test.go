package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/association-platform/internal/config"
	"github.com/iliyamo/association-platform/internal/metrics"
	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/testutil"
	"github.com/iliyamo/association-platform/internal/utils"
)

const testSecret = "test-secret"

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func bearer(t *testing.T, userID uint64) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, 0, "", 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func do(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTierGateFollowsUpgrade(t *testing.T) {
	db := testutil.NewTestDB(t)
	tenants := repository.NewTenantRepo(db)
	users := repository.NewUserRepo(db)
	tenantID := testutil.InsertTenant(t, db, "club", model.PlanStarter)
	userID := testutil.InsertUser(t, db, tenantID, "a@example.org", model.RoleMember)

	e := echo.New()
	g := e.Group("/v1", JWTAuth(testSecret, users, tenants), RequireTenant())
	g.GET("/elections", ok, RequireTier(model.PlanProfessional))
	auth := bearer(t, userID)

	rec := do(e, http.MethodGet, "/v1/elections", auth)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "this feature requires a Professional plan")

	pro := model.PlanProfessional
	_, err := tenants.Update(context.Background(), tenantID, repository.TenantUpdate{PlanTier: &pro})
	require.NoError(t, err)

	rec = do(e, http.MethodGet, "/v1/elections", auth)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthRejections(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := repository.NewUserRepo(db)
	tenantID := testutil.InsertTenant(t, db, "club", model.PlanStarter)
	userID := testutil.InsertUser(t, db, tenantID, "a@example.org", model.RoleMember)

	e := echo.New()
	e.GET("/me", ok, JWTAuth(testSecret, users, repository.NewTenantRepo(db)))

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", "Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", bearer(t, 9999)).Code)

	inactive := false
	_, err := users.Update(context.Background(), tenantID, userID, repository.UserUpdate{IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/me", bearer(t, userID)).Code)
}

func TestRequireRoleAndPlatformAdmin(t *testing.T) {
	e := echo.New()
	withUser := func(u model.User) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				SetIdentity(c, u, nil)
				return next(c)
			}
		}
	}
	e.GET("/member/admin", ok, withUser(model.User{ID: 1, Role: model.RoleMember}), RequireRole(model.RoleAdmin))
	e.GET("/admin/admin", ok, withUser(model.User{ID: 2, Role: model.RoleAdmin}), RequireRole(model.RoleAdmin))
	e.GET("/admin/platform", ok, withUser(model.User{ID: 2, Role: model.RoleAdmin}), RequirePlatformAdmin())
	e.GET("/root/platform", ok, withUser(model.User{ID: 3, IsPlatformAdmin: true}), RequirePlatformAdmin())
	e.GET("/root/tenant", ok, withUser(model.User{ID: 3, IsPlatformAdmin: true}), RequireTenant())

	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/member/admin", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/admin/admin", "").Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/admin/platform", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/root/platform", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/root/tenant", "").Code)
}

func TestCacheKeySeparatesTenants(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "path_query"}
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/public/:slug/events")
		return cacheKeyFrom(cfg, c)
	}

	assert.NotEqual(t, key("/v1/public/a/events"), key("/v1/public/b/events"))
	assert.NotEqual(t, key("/v1/public/a/events?page=1"), key("/v1/public/a/events?page=2"))
	assert.Equal(t, key("/v1/public/a/events"), key("/v1/public/a/events"))
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/auth/login")

	assert.Equal(t, "rl:auth:ip:10.0.0.1:route:POST /v1/auth/login",
		buildRateKey(config.RateLimitConfig{Prefix: "rl:auth", KeyStrategy: "ip_route"}, c))
	assert.Equal(t, "rl:user:anon", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))

	SetIdentity(c, model.User{ID: 42}, nil)
	assert.Equal(t, "rl:user:42", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
	assert.Equal(t, "rl:tenant:none", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "tenant"}, c))

	SetIdentity(c, model.User{ID: 42}, &model.Tenant{ID: 7})
	assert.Equal(t, "rl:tenant:7", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "tenant"}, c))
}

func TestDisabledLimiterAndCachePassThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", ok, NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil), NewRedisCache(config.CacheConfig{Enabled: true}, nil))
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", "").Code)
}

func TestMetricsMiddlewareCountsByRoute(t *testing.T) {
	m := metrics.New()
	e := echo.New()
	e.Use(Metrics(m))
	e.GET("/v1/events/:id", ok)

	do(e, http.MethodGet, "/v1/events/1", "")
	do(e, http.MethodGet, "/v1/events/2", "")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `association_http_requests_total{method="GET",path="/v1/events/:id",status="200"} 2`)
}
