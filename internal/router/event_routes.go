package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/handler"
	"github.com/iliyamo/association-platform/internal/middleware"
	"github.com/iliyamo/association-platform/internal/model"
)

// RegisterEvents registers events, ticket types, registrations and
// sponsors. Cloning needs the professional plan and sponsors the business
// plan.
func RegisterEvents(api *echo.Group, ev *handler.EventHandler, reg *handler.RegistrationHandler) {
	api.GET("/events", ev.List)
	api.GET("/events/:id", ev.Get)
	api.POST("/events", ev.Create, adminOnly)
	api.PUT("/events/:id", ev.Update, adminOnly)
	api.DELETE("/events/:id", ev.Delete, adminOnly)
	api.POST("/events/:id/clone", ev.Clone, adminOnly, middleware.RequireTier(model.PlanProfessional))

	api.GET("/events/:id/tickets", ev.ListTickets)
	api.POST("/events/:id/tickets", ev.CreateTicket, adminOnly)

	api.POST("/events/:id/register", reg.Register)
	api.GET("/events/:id/registrations", reg.ListByEvent, adminOnly)
	api.GET("/registrations/me", reg.Mine)
	api.POST("/registrations/:id/cancel", reg.Cancel)
	api.POST("/registrations/check-in", reg.CheckIn, adminOnly)

	business := middleware.RequireTier(model.PlanBusiness)
	api.GET("/events/:id/sponsors", ev.ListSponsors, business)
	api.POST("/events/:id/sponsors", ev.CreateSponsor, adminOnly, business)
	api.DELETE("/sponsors/:id", ev.DeleteSponsor, adminOnly, business)
}

// RegisterPlanning registers event agendas, email lists and the
// professional-plan strategy routes.
func RegisterPlanning(api *echo.Group, h *handler.PlanningHandler) {
	api.GET("/events/:id/sessions", h.ListSessions)
	api.POST("/events/:id/sessions", h.CreateSession, adminOnly)
	api.PUT("/sessions/:id", h.UpdateSession, adminOnly)
	api.DELETE("/sessions/:id", h.DeleteSession, adminOnly)

	api.GET("/events/:id/email-lists", h.ListEmailLists, adminOnly)
	api.POST("/events/:id/email-lists", h.CreateEmailList, adminOnly)
	api.POST("/events/:id/email-lists/:list_id/send", h.SendEmailList, adminOnly)

	pro := middleware.RequireTier(model.PlanProfessional)
	api.GET("/events/:id/strategy", h.Strategy, adminOnly, pro)
	api.POST("/events/:id/goals", h.CreateGoal, adminOnly, pro)
	api.POST("/events/:id/budget", h.CreateBudgetItem, adminOnly, pro)
	api.POST("/events/:id/esg", h.CreateESGMetric, adminOnly, pro)
	api.GET("/strategy/dashboard", h.Dashboard, adminOnly, pro)
}
