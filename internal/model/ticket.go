package model

import "time"

// TicketType is a priced allotment of admissions to one event.
// 0 <= QuantitySold <= QuantityAvailable holds after every registration.
type TicketType struct {
	ID                uint64     `json:"id"`
	EventID           uint64     `json:"event_id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	PriceCents        int64      `json:"price_cents"`
	Currency          string     `json:"currency"`
	QuantityAvailable int        `json:"quantity_available"`
	QuantitySold      int        `json:"quantity_sold"`
	SaleStart         *time.Time `json:"sale_start,omitempty"`
	SaleEnd           *time.Time `json:"sale_end,omitempty"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
}

// SoldOut reports whether no units remain.
func (t TicketType) SoldOut() bool { return t.QuantitySold >= t.QuantityAvailable }

// OnSale reports whether the ticket type can be purchased at now.
func (t TicketType) OnSale(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	if t.SaleStart != nil && now.Before(*t.SaleStart) {
		return false
	}
	if t.SaleEnd != nil && now.After(*t.SaleEnd) {
		return false
	}
	return true
}

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "PENDING"
	RegistrationConfirmed RegistrationStatus = "CONFIRMED"
	RegistrationCancelled RegistrationStatus = "CANCELLED"
	RegistrationRefunded  RegistrationStatus = "REFUNDED"
)

// PaymentStatus is shared by registrations, donations and fee payments.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Registration is one user's admission to one event. At most one exists
// per (user, event).
type Registration struct {
	ID               uint64             `json:"id"`
	TenantID         uint64             `json:"tenant_id"`
	EventID          uint64             `json:"event_id"`
	UserID           uint64             `json:"user_id"`
	TicketTypeID     uint64             `json:"ticket_type_id"`
	Status           RegistrationStatus `json:"status"`
	PaymentStatus    PaymentStatus      `json:"payment_status"`
	PaymentID        string             `json:"payment_id,omitempty"`
	AmountCents      int64              `json:"amount_cents"`
	ConfirmationCode string             `json:"confirmation_code"`
	CheckedIn        bool               `json:"checked_in"`
	CheckInTime      *time.Time         `json:"check_in_time,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}
