package model

import "time"

type Election struct {
	ID          uint64    `json:"id"`
	TenantID    uint64    `json:"tenant_id"`
	PositionID  *uint64   `json:"position_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Open reports whether votes are accepted at now.
func (e Election) Open(now time.Time) bool {
	return e.IsActive && !now.Before(e.StartDate) && !now.After(e.EndDate)
}

// Position is an office of the organization that elections fill.
type Position struct {
	ID              uint64    `json:"id"`
	TenantID        uint64    `json:"tenant_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	TermLength      string    `json:"term_length,omitempty"`
	IsExecutive     bool      `json:"is_executive"`
	CurrentHolderID *uint64   `json:"current_holder_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type Candidate struct {
	ID         uint64    `json:"id"`
	ElectionID uint64    `json:"election_id"`
	Name       string    `json:"name"`
	Bio        string    `json:"bio,omitempty"`
	PhotoURL   string    `json:"photo_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Vote ties one user to one candidate. At most one per (user, election).
type Vote struct {
	ID          uint64    `json:"id"`
	ElectionID  uint64    `json:"election_id"`
	CandidateID uint64    `json:"candidate_id"`
	UserID      uint64    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TallyEntry is one candidate's line in election results.
type TallyEntry struct {
	CandidateID uint64 `json:"candidate_id"`
	Name        string `json:"name"`
	VoteCount   int64  `json:"votes"`
}

type ElectionResults struct {
	ElectionID uint64       `json:"election_id"`
	Title      string       `json:"title"`
	TotalVotes int64        `json:"total_votes"`
	Results    []TallyEntry `json:"results"`
}
