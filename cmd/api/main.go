package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/orderstock/api/routes"
	"github.com/angelmondragon/orderstock/internal/inventory"
	"github.com/angelmondragon/orderstock/internal/orders"
	"github.com/angelmondragon/orderstock/pkg/config"
	"github.com/angelmondragon/orderstock/pkg/db"
	"github.com/angelmondragon/orderstock/pkg/instance"
	"github.com/angelmondragon/orderstock/pkg/logger"
	"github.com/angelmondragon/orderstock/pkg/metrics"
	"github.com/angelmondragon/orderstock/pkg/migrate"
	"github.com/angelmondragon/orderstock/pkg/redis"
	"github.com/angelmondragon/orderstock/pkg/tracing"
)

const serviceName = "orderstock-api"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, serviceName, version, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = multierr.Append(err, shutdownTracing(flushCtx))
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	deps := routes.Deps{
		Config: cfg,
		Logger: logg,
		DB:     dbClient,
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		deps.Redis = redisClient
		deps.Idempotency = redisClient
		deps.RateLimiter = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; idempotency and rate limiting disabled")
	}

	stock, err := inventoryStore(cfg, dbClient, redisClient)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := orders.NewService(orders.ServiceParams{
		Store:     orderStore(cfg, dbClient),
		Inventory: stock,
		Logger:    logg,
		Config:    cfg.Orders,
		Metrics:   metrics.NewOrderMetrics(reg),
	})
	if err != nil {
		return err
	}

	deps.Orders = svc
	deps.Inventory = stock
	deps.Gatherer = reg
	deps.HTTPMetrics = metrics.NewHTTPMetrics(reg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":               cfg.App.Env,
		"addr":              addr,
		"version":           version,
		"instance":          instance.GetID(),
		"inventory_backend": cfg.Stores.Inventory,
		"orders_backend":    cfg.Stores.Orders,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func inventoryStore(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client) (inventory.Store, error) {
	switch cfg.Stores.Inventory {
	case config.BackendMemory:
		return inventory.NewMemoryStore(), nil
	case config.BackendRedis:
		if redisClient == nil {
			return nil, errors.New("redis inventory backend requires a redis connection")
		}
		return inventory.NewRedisStore(redisClient), nil
	default:
		return inventory.NewSQLStore(dbClient.DB()), nil
	}
}

func orderStore(cfg *config.Config, dbClient *db.Client) orders.Store {
	if cfg.Stores.Orders == config.BackendMemory {
		return orders.NewMemoryRepository()
	}
	return orders.NewRepository(dbClient.DB())
}
