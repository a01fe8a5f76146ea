package handlers

import (
	"context"
	"time"

	"github.com/payme/contracts/internal/platform/db"
	"github.com/payme/contracts/internal/platform/host"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds the HTTP settings of the API.
type Config struct {
	RateLimit    float64 // mutating requests per second per client
	RateBurst    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// API returns the fiber app with every route mounted. Operation counters only move when h was
// built with Metrics.Middleware.
func API(ctx context.Context, cfg Config, masterDB *db.DB, h *host.Host,
	registry *prometheus.Registry) *fiber.App {

	app := fiber.New(fiber.Config{
		AppName:               "paymed",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(RequestContext(ctx))

	health := Health{MasterDB: masterDB}
	app.Get("/healthz", health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	limiter := NewLimiter(cfg.RateLimit, cfg.RateBurst, 10*time.Minute)
	signed := []fiber.Handler{limiter.Handler(), Authenticate(h)}

	v1 := app.Group("/v1")

	l := Ledger{Host: h}
	v1.Get("/ledger", l.Sequence)

	// Register token operations.
	t := Token{MasterDB: masterDB, Host: h}

	tokens := v1.Group("/tokens/:contract")
	tokens.Get("/", t.Metadata)
	tokens.Get("/balances/:holder", t.Balance)
	tokens.Get("/holdings", t.Holdings)
	tokens.Get("/allowances/:owner/:spender", t.Allowance)

	tokens.Post("/initialize", append(signed, t.Initialize)...)
	tokens.Post("/mint", append(signed, t.Mint)...)
	tokens.Post("/burn", append(signed, t.Burn)...)
	tokens.Post("/transfer", append(signed, t.Transfer)...)
	tokens.Post("/approve", append(signed, t.Approve)...)
	tokens.Post("/transfer_from", append(signed, t.TransferFrom)...)
	tokens.Post("/burn_from", append(signed, t.BurnFrom)...)
	tokens.Post("/admin", append(signed, t.SetAdmin)...)

	// Register employee registry operations.
	r := Registry{MasterDB: masterDB, Host: h}

	registries := v1.Group("/registries/:contract")
	registries.Get("/", r.Institution)
	registries.Get("/employees", r.List)
	registries.Get("/employees/:employee", r.Get)

	registries.Post("/initialize", append(signed, r.Initialize)...)
	registries.Post("/employees", append(signed, r.Add)...)
	registries.Patch("/employees/:employee", append(signed, r.Update)...)
	registries.Delete("/employees/:employee", append(signed, r.Remove)...)
	registries.Post("/employees/:employee/promote", append(signed, r.Promote)...)
	registries.Post("/employees/:employee/pay", append(signed, r.Pay)...)
	registries.Post("/payroll", append(signed, r.PayAll)...)
	registries.Post("/roster", append(signed, r.Import)...)

	return app
}
