package model

import "time"

type FeeInterval string

const (
	FeeMonthly FeeInterval = "MONTHLY"
	FeeYearly  FeeInterval = "YEARLY"
	FeeOneTime FeeInterval = "ONE_TIME"
)

func (i FeeInterval) Valid() bool {
	switch i {
	case FeeMonthly, FeeYearly, FeeOneTime:
		return true
	}
	return false
}

// MembershipFee is a charge members of a tenant can pay.
type MembershipFee struct {
	ID          uint64      `json:"id"`
	TenantID    uint64      `json:"tenant_id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	AmountCents int64       `json:"amount_cents"`
	Currency    string      `json:"currency"`
	Interval    FeeInterval `json:"interval"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Payment records one attempt to pay a membership fee.
type Payment struct {
	ID            uint64        `json:"id"`
	TenantID      uint64        `json:"tenant_id"`
	UserID        uint64        `json:"user_id"`
	FeeID         uint64        `json:"fee_id"`
	AmountCents   int64         `json:"amount_cents"`
	Currency      string        `json:"currency"`
	PaymentMethod string        `json:"payment_method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
