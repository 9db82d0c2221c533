package model

import "time"

type EmailListStatus string

const (
	EmailListDraft  EmailListStatus = "DRAFT"
	EmailListSent   EmailListStatus = "SENT"
	EmailListFailed EmailListStatus = "FAILED"
)

type EmailRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// EmailList is a message to a fixed set of recipients about an event. It
// is sent at most once.
type EmailList struct {
	ID         uint64           `json:"id"`
	EventID    uint64           `json:"event_id"`
	Name       string           `json:"name"`
	Subject    string           `json:"subject"`
	Body       string           `json:"body"`
	Recipients []EmailRecipient `json:"recipients"`
	Status     EmailListStatus  `json:"status"`
	SentAt     *time.Time       `json:"sent_at,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
