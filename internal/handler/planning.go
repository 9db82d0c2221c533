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

// PlanningHandler serves event agendas, strategy data and email lists.
type PlanningHandler struct {
	Events *repository.EventRepo
	Svc    *service.PlanningService
}

func (h *PlanningHandler) ListSessions(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	eventID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := visibleEvent(ctx, c, h.Events, tid, eventID); err != nil {
		return respondError(c, err)
	}
	items, err := h.Svc.ListSessions(ctx, eventID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type sessionReq struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location"`
	SpeakerName string    `json:"speaker_name"`
}

func (h *PlanningHandler) CreateSession(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	eventID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	s := model.Session{
		EventID:     eventID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    strings.TrimSpace(req.Location),
		SpeakerName: strings.TrimSpace(req.SpeakerName),
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.CreateSession(ctx, tid, &s); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

type sessionUpdateReq struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Location    *string    `json:"location"`
	SpeakerName *string    `json:"speaker_name"`
}

func (h *PlanningHandler) UpdateSession(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req sessionUpdateReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	u := repository.SessionUpdate{
		Title:       req.Title,
		Description: trimPtr(req.Description),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    trimPtr(req.Location),
		SpeakerName: trimPtr(req.SpeakerName),
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Svc.UpdateSession(ctx, tid, id, u)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *PlanningHandler) DeleteSession(c echo.Context) error {
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
	if err := h.Svc.DeleteSession(ctx, tid, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Strategy returns goals, budget lines and ESG metrics of one event.
func (h *PlanningHandler) Strategy(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	eventID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	goals, budget, esg, err := h.Svc.Strategy(ctx, tid, eventID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"goals": goals, "budget": budget, "esg": esg})
}

type goalReq struct {
	MetricName  string  `json:"metric_name"`
	TargetValue float64 `json:"target_value"`
	ActualValue float64 `json:"actual_value"`
}

func (h *PlanningHandler) CreateGoal(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	eventID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req goalReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	g := model.Goal{EventID: eventID, MetricName: req.MetricName, TargetValue: req.TargetValue, ActualValue: req.ActualValue}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.CreateGoal(ctx, tid, &g); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, g)
}

type budgetReq struct {
	Category      string `json:"category"`
	PlannedCents  int64  `json:"planned_cents"`
	ActualCents   int64  `json:"actual_cents"`
	ForecastCents int64  `json:"forecast_cents"`
}

func (h *PlanningHandler) CreateBudgetItem(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	eventID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req budgetReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	b := model.BudgetItem{
		EventID:       eventID,
		Category:      req.Category,
		PlannedCents:  req.PlannedCents,
		ActualCents:   req.ActualCents,
		ForecastCents: req.ForecastCents,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.CreateBudgetItem(ctx, tid, &b); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

type esgReq struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
}

func (h *PlanningHandler) CreateESGMetric(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	eventID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req esgReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	m := model.ESGMetric{EventID: eventID, Metric: req.Metric, Value: req.Value, Unit: req.Unit}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.CreateESGMetric(ctx, tid, &m); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *PlanningHandler) Dashboard(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Svc.Dashboard(ctx, tid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *PlanningHandler) ListEmailLists(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	eventID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Svc.ListEmailLists(ctx, tid, eventID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type emailListReq struct {
	Name       string                 `json:"name"`
	Subject    string                 `json:"subject"`
	Body       string                 `json:"body"`
	Recipients []model.EmailRecipient `json:"recipients"`
}

func (h *PlanningHandler) CreateEmailList(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	eventID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req emailListReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	l := model.EmailList{EventID: eventID, Name: req.Name, Subject: req.Subject, Body: req.Body, Recipients: req.Recipients}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Svc.CreateEmailList(ctx, tid, &l); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *PlanningHandler) SendEmailList(c echo.Context) error {
	_, tid, ok := caller(c)
	if !ok {
		return noTenant(c)
	}
	eventID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	listID, ok := parseID(c, "list_id")
	if !ok {
		return badRequest(c, "invalid list_id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	l, err := h.Svc.SendEmailList(ctx, tid, eventID, listID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}
