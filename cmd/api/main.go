package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"storefront-checkout/internal/client/orderapi"
	"storefront-checkout/internal/config"
	"storefront-checkout/internal/db"
	"storefront-checkout/internal/httpserver"
	"storefront-checkout/internal/lock"
	"storefront-checkout/internal/logging"
	"storefront-checkout/internal/messaging/kafka"
	"storefront-checkout/internal/metrics"
	"storefront-checkout/internal/observability"
	cartrepo "storefront-checkout/internal/repository/cart"
	orderrepo "storefront-checkout/internal/repository/order"
	productrepo "storefront-checkout/internal/repository/product"
	"storefront-checkout/internal/seed"
	cartsvc "storefront-checkout/internal/service/cart"
	"storefront-checkout/internal/service/checkout"
	ordersvc "storefront-checkout/internal/service/order"
	productsvc "storefront-checkout/internal/service/product"
	"storefront-checkout/internal/service/session"
)

const serviceName = "storefront-checkout"

func main() {
	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	entry := logger.WithField("service", serviceName)

	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: serviceName,
		Endpoint:    cfg.OTLPEndpoint,
		Output:      os.Stdout,
	}, entry)
	if err != nil {
		entry.WithError(err).Fatal("init tracing")
	}

	readyChecks := map[string]httpserver.ReadyCheck{}

	var pool *pgxpool.Pool
	if cfg.NeedsDatabase() {
		pool, err = db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			entry.WithError(err).Fatal("connect to db")
		}
		defer pool.Close()
		readyChecks["db"] = pool.Ping
	}

	var productRepo productrepo.Repository
	if pool != nil {
		productRepo = productrepo.NewPostgres(pool, entry)
	} else {
		productRepo = productrepo.NewMemory(seed.Products...)
	}

	var rdb *redis.Client
	if cfg.NeedsRedis() {
		rdb, err = db.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			entry.WithError(err).Fatal("connect to redis")
		}
		defer func() { _ = rdb.Close() }()
		readyChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	cartRepo := buildCartRepo(cfg, pool, rdb, entry)
	cartService := cartsvc.New(cartRepo, productRepo, entry)

	deps := httpserver.Deps{
		ProductSvc:  productsvc.New(productRepo),
		CartSvc:     cartService,
		ReadyChecks: readyChecks,
		CORSOrigins: cfg.CORSOrigins,
		ServiceName: serviceName,
	}

	var placer checkout.OrderPlacer
	if cfg.OrderAPIURL != "" {
		client, err := orderapi.New(cfg.OrderAPIURL, cfg.SubmitTimeout, entry)
		if err != nil {
			entry.WithError(err).Fatal("init order api client")
		}
		placer = client
		entry.WithField("url", cfg.OrderAPIURL).Info("orders go to remote order service")
	} else {
		var orderRepo orderrepo.Repository
		if cfg.OrderStore == "postgres" {
			orderRepo = orderrepo.NewPostgres(pool)
		} else {
			orderRepo = orderrepo.NewMemory()
		}
		orderService := ordersvc.New(orderRepo, entry)
		placer = orderService
		deps.OrderSvc = orderService
	}

	var events checkout.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic, entry)
		if err != nil {
			entry.WithError(err).Fatal("init kafka producer")
		}
		defer func() {
			if err := producer.Close(); err != nil {
				entry.WithError(err).Warn("close kafka producer")
			}
		}()
		events = producer
	}

	if cfg.JWTSecret != "" {
		deps.Sessions = session.New(cfg.JWTSecret)
	} else {
		entry.Warn("JWT_SECRET not set, every request is anonymous")
	}

	var submitLock checkout.SubmissionLock
	switch cfg.SubmitLock {
	case "redis":
		// Outlives the boundary call and the cart clear that follows it.
		submitLock = lock.NewRedis(rdb, cfg.SubmitTimeout+30*time.Second, entry)
	case "local":
		entry.Info("submit lock is in-process, run a single replica")
	default:
		entry.WithField("submit_lock", cfg.SubmitLock).Fatal("unknown submit lock")
	}

	deps.CheckoutSvc = checkout.New(cartService, placer, checkout.Options{
		SubmitTimeout: cfg.SubmitTimeout,
		Events:        events,
		Lock:          submitLock,
		Metrics:       metrics.NewCheckoutMetrics(),
		Logger:        entry,
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, deps)
	if err != nil {
		entry.WithError(err).Fatal("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		entry.WithField("addr", cfg.HTTPAddr).Info("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		entry.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		entry.WithError(err).Error("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		entry.WithError(err).Error("graceful shutdown failed")
	} else {
		entry.Info("server stopped")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		entry.WithError(err).Warn("flush traces")
	}
}

func buildCartRepo(cfg config.Config, pool *pgxpool.Pool, rdb *redis.Client, logger *log.Entry) cartrepo.Repository {
	switch cfg.CartStore {
	case "postgres":
		return cartrepo.NewPostgres(pool)
	case "redis":
		return cartrepo.NewRedis(rdb, cfg.CartTTL)
	case "memory":
		return cartrepo.NewMemory()
	default:
		logger.WithField("cart_store", cfg.CartStore).Fatal("unknown cart store")
		return nil
	}
}
