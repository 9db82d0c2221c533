package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/model"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/service"
)

// ElectionHandler runs member elections.
type ElectionHandler struct {
	Elections *repository.ElectionRepo
	Svc       *service.ElectionService
}

func (h *ElectionHandler) List(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Elections.List(ctx, tid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type electionReq struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsActive    *bool     `json:"is_active"`
	PositionID  *uint64   `json:"position_id"`
}

func (h *ElectionHandler) Create(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	var req electionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	e := model.Election{
		TenantID:    tid,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    req.IsActive == nil || *req.IsActive,
		PositionID:  req.PositionID,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.CreateElection(ctx, &e); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

// Get returns an election together with its candidates and whether the
// caller has already voted.
func (h *ElectionHandler) Get(c echo.Context) error {
	u, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e, err := h.Elections.Get(ctx, tid, id)
	if err != nil {
		return respondError(c, mapNotFound(err, service.ErrElectionNotFound))
	}
	candidates, err := h.Elections.ListCandidates(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	voted, err := h.Elections.HasVoted(ctx, id, u.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"election": e, "candidates": candidates, "has_voted": voted})
}

func (h *ElectionHandler) Delete(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Elections.Delete(ctx, tid, id); err != nil {
		return respondError(c, mapNotFound(err, service.ErrElectionNotFound))
	}
	return c.NoContent(http.StatusNoContent)
}

type candidateReq struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	PhotoURL string `json:"photo_url"`
}

func (h *ElectionHandler) AddCandidate(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req candidateReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	cand := model.Candidate{ElectionID: id, Name: req.Name, Bio: req.Bio, PhotoURL: req.PhotoURL}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.AddCandidate(ctx, tid, &cand); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, cand)
}

type voteReq struct {
	CandidateID uint64 `json:"candidate_id"`
}

func (h *ElectionHandler) Vote(c echo.Context) error {
	u, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req voteReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.CandidateID == 0 {
		return respondError(c, &service.ValidationError{Field: "candidate_id", Message: "is required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Svc.CastVote(ctx, tid, id, u.ID, req.CandidateID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *ElectionHandler) Results(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Svc.Results(ctx, tid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ElectionHandler) ListPositions(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Svc.ListPositions(ctx, tid, pageFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type positionReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TermLength  string `json:"term_length"`
	IsExecutive bool   `json:"is_executive"`
}

func (h *ElectionHandler) CreatePosition(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	var req positionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	p := model.Position{
		TenantID:    tid,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		TermLength:  req.TermLength,
		IsExecutive: req.IsExecutive,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.CreatePosition(ctx, &p); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}
