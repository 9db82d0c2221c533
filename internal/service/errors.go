// Package service holds the business rules that span more than one
// repository call: ticket registration, voting, donations, fee payments,
// event cloning and tenant administration.
package service

import (
	"errors"
	"fmt"
)

// Not found.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrTicketTypeNotFound   = errors.New("ticket type not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrElectionNotFound     = errors.New("election not found")
	ErrCandidateNotFound    = errors.New("candidate not found")
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrDonorNotFound        = errors.New("donor not found")
	ErrFeeNotFound          = errors.New("membership fee not found")
	ErrTenantNotFound       = errors.New("tenant not found")
	ErrSessionNotFound      = errors.New("agenda session not found")
	ErrPositionNotFound     = errors.New("position not found")
	ErrEmailListNotFound    = errors.New("email list not found")
)

// Conflicts with existing state.
var (
	ErrSoldOut            = errors.New("ticket type is sold out")
	ErrAlreadyRegistered  = errors.New("already registered for this event")
	ErrAlreadyVoted       = errors.New("already voted in this election")
	ErrAlreadyCheckedIn   = errors.New("registration already checked in")
	ErrRegistrationClosed = errors.New("registration is not active")
	ErrSlugTaken          = errors.New("tenant slug already taken")
	ErrPositionExists     = errors.New("position title already exists")
	ErrEmailListSent      = errors.New("email list already sent")
)

// Business rule violations reported as bad requests.
var (
	ErrTicketEventMismatch = errors.New("ticket type does not belong to this event")
	ErrTicketNotOnSale     = errors.New("ticket type is not on sale")
	ErrEventNotOpen        = errors.New("event is not open for registration")
	ErrCandidateMismatch   = errors.New("candidate does not belong to this election")
	ErrElectionClosed      = errors.New("election is not open for voting")
	ErrCampaignInactive    = errors.New("campaign is not active")
	ErrFeeInactive         = errors.New("membership fee is not active")
	ErrPaymentDeclined     = errors.New("payment declined")
)

// ValidationError reports a single invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
