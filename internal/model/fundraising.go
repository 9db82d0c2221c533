package model

import "time"

// Donor is a person giving to a tenant. Email is unique per tenant.
type Donor struct {
	ID        uint64    `json:"id"`
	TenantID  uint64    `json:"tenant_id"`
	UserID    *uint64   `json:"user_id,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Campaign struct {
	ID           uint64     `json:"id"`
	TenantID     uint64     `json:"tenant_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	GoalCents    int64      `json:"goal_cents"`
	CurrentCents int64      `json:"current_cents"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Donation struct {
	ID            uint64        `json:"id"`
	TenantID      uint64        `json:"tenant_id"`
	DonorID       uint64        `json:"donor_id"`
	CampaignID    *uint64       `json:"campaign_id,omitempty"`
	AmountCents   int64         `json:"amount_cents"`
	Currency      string        `json:"currency"`
	PaymentMethod string        `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
