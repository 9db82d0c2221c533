package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/association-platform/internal/logger"
	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/plan"
	"github.com/iliyamo/association-platform/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type TenantStore interface {
	Create(ctx context.Context, t *model.Tenant) error
	GetByID(ctx context.Context, id uint64) (model.Tenant, error)
	Update(ctx context.Context, id uint64, u repository.TenantUpdate) (model.Tenant, error)
	Delete(ctx context.Context, id uint64) error
}

// TenantService is the platform administrator's view of organizations.
type TenantService struct {
	store TenantStore
}

func NewTenantService(store TenantStore) *TenantService {
	return &TenantService{store: store}
}

// CreateTenant validates and stores a new active tenant. An empty tier
// defaults to starter.
func (s *TenantService) CreateTenant(ctx context.Context, t *model.Tenant) error {
	t.Name = strings.TrimSpace(t.Name)
	t.Slug = strings.ToLower(strings.TrimSpace(t.Slug))
	if t.PlanTier == "" {
		t.PlanTier = model.PlanStarter
	}
	switch {
	case t.Name == "":
		return invalid("name", "is required")
	case len(t.Slug) > 64 || !slugPattern.MatchString(t.Slug):
		return invalid("slug", "must be lowercase letters, digits and single dashes")
	case !plan.Valid(t.PlanTier):
		return invalid("plan_tier", "must be starter, professional or business")
	}
	t.IsActive = true
	if err := s.store.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			return ErrSlugTaken
		}
		return err
	}
	logger.FromContext(ctx).Info("tenant created",
		zap.Uint64("tenant_id", t.ID), zap.String("slug", t.Slug), zap.String("plan_tier", string(t.PlanTier)))
	return nil
}

func (s *TenantService) UpdateTenant(ctx context.Context, id uint64, u repository.TenantUpdate) (model.Tenant, error) {
	if u.Name != nil {
		n := strings.TrimSpace(*u.Name)
		if n == "" {
			return model.Tenant{}, invalid("name", "must not be empty")
		}
		u.Name = &n
	}
	if u.PlanTier != nil && !plan.Valid(*u.PlanTier) {
		return model.Tenant{}, invalid("plan_tier", "must be starter, professional or business")
	}
	t, err := s.store.Update(ctx, id, u)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Tenant{}, ErrTenantNotFound
	}
	if err != nil {
		return model.Tenant{}, err
	}
	if u.PlanTier != nil {
		logger.FromContext(ctx).Info("tenant plan changed",
			zap.Uint64("tenant_id", t.ID), zap.String("plan_tier", string(t.PlanTier)))
	}
	return t, nil
}

func (s *TenantService) DeleteTenant(ctx context.Context, id uint64) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTenantNotFound
	}
	return err
}
