package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/orderstock/api/controllers"
	inventorycontrollers "github.com/angelmondragon/orderstock/api/controllers/inventory"
	ordercontrollers "github.com/angelmondragon/orderstock/api/controllers/orders"
	"github.com/angelmondragon/orderstock/api/middleware"
	"github.com/angelmondragon/orderstock/internal/inventory"
	"github.com/angelmondragon/orderstock/internal/orders"
	"github.com/angelmondragon/orderstock/pkg/config"
	"github.com/angelmondragon/orderstock/pkg/logger"
	"github.com/angelmondragon/orderstock/pkg/metrics"
	"github.com/angelmondragon/orderstock/pkg/redis"
)

// Deps carries everything the HTTP surface needs. The Redis-backed fields are
// optional and must be left nil (not typed-nil) when Redis is not configured.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	RateLimiter redis.RateLimiter
	Orders      orders.Service
	Inventory   inventory.Store
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.Tracing("http.server"),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
	)

	createOrderPolicy := middleware.NewRateLimitPolicy(
		"create_order",
		cfg.RateLimit.CreateOrderWindow,
		cfg.RateLimit.CreateOrderLimit,
	).WithTrustedProxies(cfg.RateLimit.TrustedProxyPrefixes())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.With(
				middleware.RateLimit(createOrderPolicy, deps.RateLimiter, logg),
				middleware.Idempotency(deps.Idempotency, logg),
			).Post("/", ordercontrollers.Create(deps.Orders, logg))
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Delete("/{orderId}", ordercontrollers.Delete(deps.Orders, logg))
		})

		r.Get("/customers/{customerId}/orders", ordercontrollers.ListForCustomer(deps.Orders, logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Put("/{productId}", inventorycontrollers.SetStock(deps.Inventory, logg))
			r.Get("/{productId}", inventorycontrollers.GetStock(deps.Inventory, logg))
		})
	})

	return r
}
