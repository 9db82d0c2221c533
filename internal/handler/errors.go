package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/association-platform/internal/logger"
	"github.com/iliyamo/association-platform/internal/plan"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, errorResponse{Error: msg, Code: code})
}

func badRequest(c echo.Context, msg string) error {
	return fail(c, http.StatusBadRequest, "invalid_request", msg)
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{service.ErrEventNotFound, http.StatusNotFound, "event_not_found"},
	{service.ErrTicketTypeNotFound, http.StatusNotFound, "ticket_type_not_found"},
	{service.ErrRegistrationNotFound, http.StatusNotFound, "registration_not_found"},
	{service.ErrElectionNotFound, http.StatusNotFound, "election_not_found"},
	{service.ErrCandidateNotFound, http.StatusNotFound, "candidate_not_found"},
	{service.ErrCampaignNotFound, http.StatusNotFound, "campaign_not_found"},
	{service.ErrDonorNotFound, http.StatusNotFound, "donor_not_found"},
	{service.ErrFeeNotFound, http.StatusNotFound, "fee_not_found"},
	{service.ErrTenantNotFound, http.StatusNotFound, "tenant_not_found"},
	{service.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{service.ErrPositionNotFound, http.StatusNotFound, "position_not_found"},
	{service.ErrEmailListNotFound, http.StatusNotFound, "email_list_not_found"},
	{repository.ErrNotFound, http.StatusNotFound, "not_found"},

	{service.ErrSoldOut, http.StatusConflict, "sold_out"},
	{service.ErrAlreadyRegistered, http.StatusConflict, "already_registered"},
	{service.ErrAlreadyVoted, http.StatusConflict, "already_voted"},
	{service.ErrAlreadyCheckedIn, http.StatusConflict, "already_checked_in"},
	{service.ErrRegistrationClosed, http.StatusConflict, "registration_not_active"},
	{service.ErrSlugTaken, http.StatusConflict, "slug_taken"},
	{service.ErrPositionExists, http.StatusConflict, "position_exists"},
	{service.ErrEmailListSent, http.StatusConflict, "email_list_sent"},
	{repository.ErrEmailExists, http.StatusConflict, "email_exists"},
	{repository.ErrConflict, http.StatusConflict, "conflict"},

	{service.ErrTicketEventMismatch, http.StatusBadRequest, "invalid_reference"},
	{service.ErrCandidateMismatch, http.StatusBadRequest, "invalid_reference"},
	{service.ErrTicketNotOnSale, http.StatusBadRequest, "ticket_not_on_sale"},
	{service.ErrEventNotOpen, http.StatusBadRequest, "event_not_open"},
	{service.ErrElectionClosed, http.StatusBadRequest, "election_closed"},
	{service.ErrCampaignInactive, http.StatusBadRequest, "campaign_inactive"},
	{service.ErrFeeInactive, http.StatusBadRequest, "fee_inactive"},
	{service.ErrPaymentDeclined, http.StatusBadRequest, "payment_declined"},

	{plan.ErrInsufficientTier, http.StatusForbidden, "plan_upgrade_required"},
	{repository.ErrForbidden, http.StatusForbidden, "forbidden"},
}

// respondError turns err into the JSON error body. Unknown errors are
// logged and reported as 500 without leaking their text.
func respondError(c echo.Context, err error) error {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Error(), Code: "validation_error", Field: verr.Field})
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			msg := m.err.Error()
			if m.status == http.StatusForbidden {
				msg = err.Error()
			}
			return fail(c, m.status, m.code, msg)
		}
	}
	logger.FromContext(c.Request().Context()).Error("unhandled error",
		zap.String("route", c.Path()), zap.Error(err))
	return fail(c, http.StatusInternalServerError, "internal_error", "internal error")
}

// mapNotFound swaps a repository miss for the domain error of the resource.
func mapNotFound(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}
