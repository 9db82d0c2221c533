// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher and consumer that carry them.
package queue

// Routing keys double as durable queue names on the default exchange.
const (
	RegistrationConfirmedKey = "registration.confirmed"
	DonationReceivedKey      = "donation.received"
	FeePaidKey               = "fee.paid"
	EmailListSendKey         = "email_list.send"
)

// RoutingKeys lists every queue the publisher declares and the consumer reads.
var RoutingKeys = []string{RegistrationConfirmedKey, DonationReceivedKey, FeePaidKey, EmailListSendKey}

// RegistrationConfirmedEvent is published when a ticket registration commits.
// It carries enough to render a confirmation without querying the database.
type RegistrationConfirmedEvent struct {
	RegistrationID   uint64 `json:"registration_id"`
	TenantID         uint64 `json:"tenant_id"`
	EventID          uint64 `json:"event_id"`
	EventTitle       string `json:"event_title"`
	StartsAt         string `json:"starts_at"`
	UserID           uint64 `json:"user_id"`
	UserEmail        string `json:"user_email"`
	TicketType       string `json:"ticket_type"`
	AmountCents      int64  `json:"amount_cents"`
	Currency         string `json:"currency"`
	ConfirmationCode string `json:"confirmation_code"`
	ConfirmedAt      string `json:"confirmed_at"`
}

// DonationReceivedEvent is published after a donation is recorded.
type DonationReceivedEvent struct {
	DonationID    uint64  `json:"donation_id"`
	TenantID      uint64  `json:"tenant_id"`
	DonorID       uint64  `json:"donor_id"`
	DonorName     string  `json:"donor_name"`
	DonorEmail    string  `json:"donor_email"`
	CampaignID    *uint64 `json:"campaign_id,omitempty"`
	AmountCents   int64   `json:"amount_cents"`
	Currency      string  `json:"currency"`
	TransactionID string  `json:"transaction_id"`
	ReceivedAt    string  `json:"received_at"`
}

// FeePaidEvent is published after a membership fee payment succeeds.
type FeePaidEvent struct {
	PaymentID     uint64 `json:"payment_id"`
	TenantID      uint64 `json:"tenant_id"`
	UserID        uint64 `json:"user_id"`
	UserEmail     string `json:"user_email"`
	FeeName       string `json:"fee_name"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	TransactionID string `json:"transaction_id"`
	PaidAt        string `json:"paid_at"`
}

// EmailListSendEvent asks the mailer to deliver one message to every
// recipient of an event email list.
type EmailListSendEvent struct {
	ListID      uint64   `json:"list_id"`
	TenantID    uint64   `json:"tenant_id"`
	EventID     uint64   `json:"event_id"`
	EventTitle  string   `json:"event_title"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	Recipients  []string `json:"recipients"`
	RequestedAt string   `json:"requested_at"`
}
