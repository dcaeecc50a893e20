package router

import (
	"net/http"
	"time"

	"protegeya-backend/internal/application/accounts"
	"protegeya-backend/internal/application/brokers"
	"protegeya-backend/internal/application/exclusions"
	"protegeya-backend/internal/application/insurers"
	"protegeya-backend/internal/application/leads"
	"protegeya-backend/internal/application/plans"
	"protegeya-backend/internal/application/quotes"
	"protegeya-backend/internal/application/reports"
	"protegeya-backend/internal/application/settings"
	"protegeya-backend/internal/config"
	"protegeya-backend/internal/infrastructure/lock"
	acchandler "protegeya-backend/internal/interfaces/handlers/accounts"
	brokerhandler "protegeya-backend/internal/interfaces/handlers/brokers"
	exclhandler "protegeya-backend/internal/interfaces/handlers/exclusions"
	healthhandler "protegeya-backend/internal/interfaces/handlers/health"
	inshandler "protegeya-backend/internal/interfaces/handlers/insurers"
	leadhandler "protegeya-backend/internal/interfaces/handlers/leads"
	planhandler "protegeya-backend/internal/interfaces/handlers/plans"
	quotehandler "protegeya-backend/internal/interfaces/handlers/quotes"
	reporthandler "protegeya-backend/internal/interfaces/handlers/reports"
	settingshandler "protegeya-backend/internal/interfaces/handlers/settings"
	"protegeya-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the shared clients the HTTP layer is built on. Redis is optional.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Locker lock.Locker
}

// Services groups the application services behind the routes and scheduled jobs.
type Services struct {
	Quotes     *quotes.Service
	Insurers   *insurers.Service
	Exclusions *exclusions.Service
	Brokers    *brokers.Service
	Leads      *leads.Service
	Plans      *plans.Service
	Accounts   *accounts.Service
	Settings   *settings.Service
	Reports    *reports.Service
}

func NewServices(cfg *config.Config, db *gorm.DB) *Services {
	brk := &brokers.Service{DB: db, Location: cfg.Location}
	return &Services{
		Quotes:     &quotes.Service{DB: db},
		Insurers:   &insurers.Service{DB: db},
		Exclusions: &exclusions.Service{DB: db},
		Brokers:    brk,
		Leads: &leads.Service{
			DB:              db,
			Brokers:         brk,
			SLAFirstContact: cfg.SLAFirstContact,
			SLAReassignment: cfg.SLAReassignment,
		},
		Plans:    &plans.Service{DB: db},
		Accounts: &accounts.Service{DB: db, Location: cfg.Location, GracePeriod: cfg.GracePeriod},
		Settings: &settings.Service{DB: db},
		Reports:  &reports.Service{DB: db, Location: cfg.Location},
	}
}

func CreateApp(d Deps, svc *Services) *fiber.App {
	cfg := d.Config
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler(d.Redis),
		EnableTrustedProxyCheck: true,
		ReadTimeout:             30 * time.Second,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.Env != "production"}))
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.HealthMarker(d.Redis))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{Rdb: d.Redis, HealthAdminKey: cfg.HealthAdminKey, Version: cfg.Version}
	if sqlDB, err := d.DB.DB(); err == nil {
		hh.DB = sqlDB
	}
	app.Get("/", hh.Root)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Post("/health/reset", hh.Reset)

	adminKey := middleware.RequireAdminKey(cfg.AdminAPIKey)

	qh := &quotehandler.Handlers{Service: svc.Quotes}
	app.Post("/api/quotes/simulate", qh.Simulate)

	lh := &leadhandler.Handlers{Service: svc.Leads}
	app.Get("/api/leads", adminKey, lh.List)
	app.Get("/api/leads/:id", adminKey, lh.Get)
	app.Post("/api/leads/:id/status", lh.UpdateStatus)
	app.Post("/api/leads/:id/assign", adminKey, lh.Assign)
	app.Post("/api/leads/:id/assign-auto", adminKey, lh.AssignAuto)

	bh := &brokerhandler.Handlers{Service: svc.Brokers, Locker: d.Locker}
	bg := app.Group("/api/brokers", adminKey)
	bg.Get("/", bh.List)
	bg.Post("/", bh.Create)
	bg.Get("/:id", bh.Get)
	bg.Put("/:id", bh.Update)
	bg.Put("/:id/subscription", bh.UpdateSubscription)
	bg.Delete("/:id", bh.Delete)

	rh := &reporthandler.Handlers{Service: svc.Reports}
	app.Get("/api/reports/kpi", adminKey, rh.KPI)

	admin := app.Group("/api/admin", adminKey)

	ih := &inshandler.Handlers{Service: svc.Insurers}
	admin.Get("/aseguradoras", ih.List)
	admin.Post("/aseguradoras", ih.Create)
	admin.Get("/aseguradoras/:id", ih.Get)
	admin.Put("/aseguradoras/:id", ih.Update)
	admin.Delete("/aseguradoras/:id", ih.Delete)

	eh := &exclhandler.Handlers{Service: svc.Exclusions}
	admin.Get("/vehiculos-no-asegurables", eh.List)
	admin.Post("/vehiculos-no-asegurables", eh.Create)
	admin.Put("/vehiculos-no-asegurables/:id", eh.Update)
	admin.Delete("/vehiculos-no-asegurables/:id", eh.Delete)

	admin.Post("/leads", lh.Create)
	admin.Delete("/leads/bulk", lh.BulkDelete)
	admin.Delete("/leads/:id", lh.Delete)

	ph := &planhandler.Handlers{Service: svc.Plans}
	admin.Get("/plans", ph.List)
	admin.Post("/plans", ph.Create)
	admin.Put("/plans/:id", ph.Update)
	admin.Delete("/plans/:id", ph.Delete)

	ah := &acchandler.Handlers{Service: svc.Accounts, Locker: d.Locker}
	admin.Post("/brokers/reset-monthly-leads", bh.ResetMonthlyLeads)
	admin.Post("/brokers/:id/assign-plan", ah.AssignPlan)
	admin.Get("/accounts", ah.List)
	admin.Post("/accounts/generate-charges", ah.GenerateCharges)
	admin.Post("/accounts/check-overdue", ah.CheckOverdue)
	admin.Get("/accounts/:broker_id", ah.Get)
	admin.Get("/accounts/:account_id/status-history", ah.StatusHistory)
	admin.Post("/accounts/:broker_id/apply-payment", ah.ApplyPayment)
	admin.Post("/accounts/:broker_id/adjust", ah.Adjust)
	admin.Post("/accounts/:broker_id/reactivate", ah.Reactivate)
	admin.Get("/transactions/:account_id", ah.Transactions)

	sh := &settingshandler.Handlers{Service: svc.Settings}
	admin.Get("/configuration", sh.Get)
	admin.Get("/configuration/history", sh.History)
	admin.Put("/configuration", sh.Update)

	return app
}

// Handler exposes the app as a net/http handler for serverless runtimes.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
