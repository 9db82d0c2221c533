package model

import "time"

// PlanTier is the subscription level of a tenant. Ordering between tiers
// lives in package plan, not here.
type PlanTier string

const (
	PlanStarter      PlanTier = "starter"
	PlanProfessional PlanTier = "professional"
	PlanBusiness     PlanTier = "business"
)

// Tenant is an organization using the platform. Every tenant-owned row
// carries its ID.
type Tenant struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	PlanTier  PlanTier  `json:"plan_tier"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlatformStats are global counters shown to platform administrators.
type PlatformStats struct {
	Tenants             int64 `json:"total_tenants"`
	ActiveTenants       int64 `json:"active_tenants"`
	Users               int64 `json:"total_users"`
	Events              int64 `json:"total_events"`
	Registrations       int64 `json:"total_registrations"`
	Donations           int64 `json:"total_donations"`
	DonationAmountCents int64 `json:"donation_amount_cents"`
}
