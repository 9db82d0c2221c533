package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/association-platform/internal/config"
	"github.com/iliyamo/association-platform/internal/logger"
	"github.com/iliyamo/association-platform/internal/middleware"
	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/utils"
)

const minPasswordLen = 8

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Tokens  *repository.TokenRepo
	Tenants *repository.TenantRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, tenants *repository.TenantRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Tenants: tenants}
}

// ----- DTOs -----

type registerReq struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	TenantSlug string `json:"tenant_slug"`
	Role       string `json:"role"` // member | donor | volunteer
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID              uint64     `json:"id"`
	Email           string     `json:"email"`
	FullName        string     `json:"full_name"`
	Role            model.Role `json:"role"`
	TenantID        *uint64    `json:"tenant_id"`
	IsPlatformAdmin bool       `json:"is_platform_admin"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role, TenantID: u.TenantID, IsPlatformAdmin: u.IsPlatformAdmin}
}

// Register creates a member of the organization named by tenant_slug and
// returns tokens immediately. Self-registration never grants admin.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return badRequest(c, "invalid email")
	}
	if len(req.Password) < minPasswordLen {
		return badRequest(c, "password must be at least 8 characters")
	}
	slug := strings.ToLower(strings.TrimSpace(req.TenantSlug))
	if slug == "" {
		return badRequest(c, "tenant_slug required")
	}
	role := model.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	switch role {
	case model.RoleMember, model.RoleDonor, model.RoleVolunteer:
	default:
		role = model.RoleMember
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tenant, err := h.Tenants.GetBySlug(ctx, slug)
	if err != nil || !tenant.IsActive {
		return fail(c, http.StatusNotFound, "tenant_not_found", "organization not found")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal_error", "hash password failed")
	}
	u := model.User{
		TenantID:     &tenant.ID,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         role,
		IsActive:     true,
	}
	if err := h.Users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "email_exists", "email already exists")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "create user failed")
	}
	logger.FromContext(ctx).Info("user registered", zap.Uint64("user_id", u.ID), zap.Uint64("tenant_id", tenant.ID))

	return h.issue(c, http.StatusCreated, u)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "query failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	}
	if !u.IsActive {
		return fail(c, http.StatusForbidden, "account_disabled", "account is disabled")
	}
	return h.issue(c, http.StatusOK, u)
}

// issue signs an access token, stores a new refresh token and writes both.
func (h *AuthHandler) issue(c echo.Context, status int, u model.User) error {
	var tid uint64
	if u.TenantID != nil {
		tid = *u.TenantID
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, tid, string(u.Role), h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal_error", "issue access failed")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal_error", "issue refresh failed")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return fail(c, http.StatusInternalServerError, "internal_error", "save refresh failed")
	}
	return c.JSON(status, authResp{
		User:    toUserPart(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}

// Refresh validates a refresh token by hash, revokes it and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "invalid_refresh", "invalid refresh")
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "invalid_refresh", "invalid refresh")
	}
	if !u.IsActive {
		return fail(c, http.StatusForbidden, "account_disabled", "account is disabled")
	}
	return h.issue(c, http.StatusOK, u)
}

// RefreshAccess returns a new access token without rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "invalid_refresh", "invalid refresh")
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || !u.IsActive {
		return fail(c, http.StatusUnauthorized, "invalid_refresh", "invalid refresh")
	}
	var tid uint64
	if u.TenantID != nil {
		tid = *u.TenantID
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, tid, string(u.Role), h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal_error", "issue access failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes one session when a refresh_token is posted, or every
// session of the bearer's user when only an access token is supplied.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid uint64
	if raw, ok := utils.BearerToken(c.Request().Header.Get("Authorization")); ok {
		if id, err := utils.ParseAccessToken(h.Cfg.JWTSecret, raw); err == nil {
			uid = id
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return fail(c, http.StatusUnauthorized, "invalid_refresh", "invalid refresh token")
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return fail(c, http.StatusInternalServerError, "internal_error", "logout failed")
		}
		return c.NoContent(http.StatusNoContent)
	}
	if uid != 0 {
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return fail(c, http.StatusInternalServerError, "internal_error", "logout failed")
		}
		return c.NoContent(http.StatusNoContent)
	}
	return badRequest(c, "provide Authorization header or refresh_token")
}

// Me returns the caller's profile and organization.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	}
	resp := echo.Map{"user": u}
	if t, ok := middleware.CurrentTenant(c); ok {
		resp["tenant"] = t
	}
	return c.JSON(http.StatusOK, resp)
}

type profileReq struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Bio      *string `json:"bio"`
}

// UpdateMe lets a user edit their own profile fields.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	u, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return badRequest(c, "full_name must not be empty")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Users.Update(ctx, tid, u.ID, repository.UserUpdate{FullName: req.FullName, Phone: req.Phone, Bio: req.Bio})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
