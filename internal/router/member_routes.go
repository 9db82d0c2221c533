package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/handler"
	"github.com/iliyamo/association-platform/internal/middleware"
	"github.com/iliyamo/association-platform/internal/model"
)

// RegisterMembers registers profile, member administration and membership
// fees. These are available on every plan.
func RegisterMembers(api *echo.Group, a *handler.AuthHandler, u *handler.UserHandler, f *handler.FeeHandler) {
	api.PUT("/me", a.UpdateMe)

	api.GET("/users", u.List, adminOnly)
	api.GET("/users/:id", u.Get, adminOnly)
	api.PUT("/users/:id", u.Update, adminOnly)

	api.GET("/fees", f.ListFees)
	api.POST("/fees", f.CreateFee, adminOnly)
	api.POST("/payments", f.Pay)
	api.GET("/payments/me", f.MyPayments)
	api.GET("/payments", f.AllPayments, adminOnly)
}

// RegisterElections registers the professional-plan election and board
// position routes.
func RegisterElections(api *echo.Group, h *handler.ElectionHandler) {
	pro := middleware.RequireTier(model.PlanProfessional)
	api.GET("/positions", h.ListPositions, pro)
	api.POST("/positions", h.CreatePosition, pro, adminOnly)

	g := api.Group("/elections", pro)
	g.GET("", h.List)
	g.POST("", h.Create, adminOnly)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete, adminOnly)
	g.POST("/:id/candidates", h.AddCandidate, adminOnly)
	g.POST("/:id/vote", h.Vote)
	g.GET("/:id/results", h.Results)
}

// RegisterFundraising registers the professional-plan donor, donation and
// campaign routes.
func RegisterFundraising(api *echo.Group, h *handler.FundraisingHandler) {
	pro := middleware.RequireTier(model.PlanProfessional)
	api.GET("/donors", h.ListDonors, pro, adminOnly)
	api.GET("/donors/:id", h.GetDonor, pro, adminOnly)
	api.POST("/donors", h.CreateDonor, pro)
	api.GET("/donations", h.ListDonations, pro, adminOnly)
	api.POST("/donations", h.Donate, pro)
	api.GET("/campaigns", h.ListCampaigns, pro)
	api.GET("/campaigns/:id", h.GetCampaign, pro)
	api.POST("/campaigns", h.CreateCampaign, pro, adminOnly)
}
