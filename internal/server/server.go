// Package server assembles repositories, services, handlers and middleware
// into one Echo instance.
package server

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/association-platform/internal/clock"
	"github.com/iliyamo/association-platform/internal/config"
	"github.com/iliyamo/association-platform/internal/handler"
	"github.com/iliyamo/association-platform/internal/metrics"
	"github.com/iliyamo/association-platform/internal/middleware"
	"github.com/iliyamo/association-platform/internal/payment"
	"github.com/iliyamo/association-platform/internal/queue"
	"github.com/iliyamo/association-platform/internal/repository"
	"github.com/iliyamo/association-platform/internal/router"
	"github.com/iliyamo/association-platform/internal/service"
)

// Options carries the process-wide dependencies. Redis may be nil, which
// disables rate limiting and caching.
type Options struct {
	Config    config.Config
	DB        *sql.DB
	Redis     *redis.Client
	Publisher queue.Publisher
	Payments  payment.Processor
	Metrics   *metrics.Metrics
	Clock     clock.Clock
	Log       *zap.Logger

	RateLimit     config.RateLimitConfig
	AuthRateLimit config.RateLimitConfig
	Cache         config.CacheConfig
}

// New returns a ready-to-serve Echo instance with every route registered.
func New(o Options) *echo.Echo {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	if o.Clock == nil {
		o.Clock = clock.NewSystem()
	}
	if o.Payments == nil {
		o.Payments = payment.NewMockProcessor(o.Config.PaymentDeclineAboveCents)
	}
	if o.Publisher == nil {
		o.Publisher = queue.NopPublisher{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(o.Log))
	if o.Metrics != nil {
		e.Use(middleware.Metrics(o.Metrics))
	}
	cors := echomw.DefaultCORSConfig
	if len(o.Config.CORSOrigins) > 0 {
		cors.AllowOrigins = o.Config.CORSOrigins
	}
	e.Use(echomw.CORSWithConfig(cors))

	// repositories
	tenants := repository.NewTenantRepo(o.DB)
	users := repository.NewUserRepo(o.DB)
	tokens := repository.NewTokenRepo(o.DB)
	events := repository.NewEventRepo(o.DB)
	tickets := repository.NewTicketRepo(o.DB)
	regs := repository.NewRegistrationRepo(o.DB)
	elections := repository.NewElectionRepo(o.DB)
	fundraising := repository.NewFundraisingRepo(o.DB)
	fees := repository.NewFeeRepo(o.DB)
	stats := repository.NewStatsRepo(o.DB)
	agenda := repository.NewAgendaRepo(o.DB)
	strategy := repository.NewStrategyRepo(o.DB)
	emailLists := repository.NewEmailListRepo(o.DB)
	tx := repository.NewTxManager(o.DB)

	// services
	eventSvc := service.NewEventService(tx, events, tickets)
	regSvc := service.NewRegistrationService(tx, events, tickets, regs, o.Payments, o.Publisher, o.Metrics, o.Clock)
	electionSvc := service.NewElectionService(elections, o.Metrics, o.Clock)
	fundSvc := service.NewFundraisingService(tx, fundraising, o.Payments, o.Publisher, o.Metrics, o.Clock)
	feeSvc := service.NewFeeService(fees, o.Payments, o.Publisher, o.Metrics, o.Clock)
	tenantSvc := service.NewTenantService(tenants)
	planningSvc := service.NewPlanningService(events, agenda, strategy, emailLists, o.Publisher, o.Clock)

	guards := router.Guards{
		Auth:        middleware.JWTAuth(o.Config.JWTSecret, users, tenants),
		AuthLimiter: middleware.NewTokenBucket(o.AuthRateLimit, o.Redis),
		APILimiter:  middleware.NewTokenBucket(o.RateLimit, o.Redis),
		Cache:       middleware.NewRedisCache(o.Cache, o.Redis),
	}
	authH := handler.NewAuthHandler(o.Config, users, tokens, tenants)

	router.RegisterRoutes(e, o.DB, o.Metrics)
	router.RegisterAuth(e, authH, guards)
	router.RegisterPublic(e, &handler.PublicHandler{Tenants: tenants, EventRepo: events, Fundraising: fundraising}, guards)
	router.RegisterPlatform(e, &handler.PlatformHandler{Tenants: tenants, StatsRepo: stats, Svc: tenantSvc}, guards)

	api := router.TenantAPI(e, guards)
	router.RegisterEvents(api,
		&handler.EventHandler{Events: events, Tickets: tickets, Svc: eventSvc},
		&handler.RegistrationHandler{Regs: regs, Events: events, Svc: regSvc})
	router.RegisterPlanning(api, &handler.PlanningHandler{Events: events, Svc: planningSvc})
	router.RegisterMembers(api, authH, &handler.UserHandler{Users: users}, &handler.FeeHandler{Fees: fees, Svc: feeSvc})
	router.RegisterElections(api, &handler.ElectionHandler{Elections: elections, Svc: electionSvc})
	router.RegisterFundraising(api, &handler.FundraisingHandler{Store: fundraising, Svc: fundSvc})

	return e
}
