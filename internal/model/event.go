package model

import "time"

type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventPublished EventStatus = "PUBLISHED"
	EventCancelled EventStatus = "CANCELLED"
	EventCompleted EventStatus = "COMPLETED"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventCancelled, EventCompleted:
		return true
	}
	return false
}

// Event is a tenant-scoped gathering that ticket types and registrations
// hang off. ParentEventID is set on events created by cloning.
type Event struct {
	ID            uint64      `json:"id"`
	TenantID      uint64      `json:"tenant_id"`
	ParentEventID *uint64     `json:"parent_event_id,omitempty"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Location      string      `json:"location"`
	Region        string      `json:"region,omitempty"`
	EventType     string      `json:"event_type,omitempty"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       time.Time   `json:"end_time"`
	Capacity      int         `json:"capacity"`
	Status        EventStatus `json:"status"`
	IsPublic      bool        `json:"is_public"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// SponsorTier ranks sponsors for display.
type SponsorTier string

const (
	SponsorPlatinum SponsorTier = "Platinum"
	SponsorGold     SponsorTier = "Gold"
	SponsorSilver   SponsorTier = "Silver"
	SponsorBronze   SponsorTier = "Bronze"
)

func (t SponsorTier) Valid() bool {
	switch t {
	case SponsorPlatinum, SponsorGold, SponsorSilver, SponsorBronze:
		return true
	}
	return false
}

// Sponsor is an organization backing an event.
type Sponsor struct {
	ID        uint64      `json:"id"`
	EventID   uint64      `json:"event_id"`
	Name      string      `json:"name"`
	Tier      SponsorTier `json:"tier"`
	LogoURL   string      `json:"logo_url,omitempty"`
	Website   string      `json:"website,omitempty"`
	Bio       string      `json:"bio,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
