package main

import (
	"context"
	"net/http"
	"os"

	"github.com/harvestly/harvestly-backend/api/routes"
	"github.com/harvestly/harvestly-backend/internal/cart"
	"github.com/harvestly/harvestly-backend/internal/checkout"
	"github.com/harvestly/harvestly-backend/internal/coupons"
	"github.com/harvestly/harvestly-backend/internal/orders"
	"github.com/harvestly/harvestly-backend/internal/products"
	"github.com/harvestly/harvestly-backend/pkg/config"
	"github.com/harvestly/harvestly-backend/pkg/db"
	"github.com/harvestly/harvestly-backend/pkg/logger"
	"github.com/harvestly/harvestly-backend/pkg/metrics"
	"github.com/harvestly/harvestly-backend/pkg/migrate"
	"github.com/harvestly/harvestly-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	snapshots, err := cart.NewRedisSnapshots(redisClient, cfg.Cart.SnapshotTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart snapshot store", err)
		os.Exit(1)
	}
	cartManager, err := cart.NewManager(snapshots)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart manager", err)
		os.Exit(1)
	}

	productsRepo, err := products.NewRepo(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create products repo", err)
		os.Exit(1)
	}
	couponsRepo, err := coupons.NewRepo(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create coupons repo", err)
		os.Exit(1)
	}
	ordersRepo, err := orders.NewRepo(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create orders repo", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(dbClient, ordersRepo, productsRepo, couponsRepo, cfg.Checkout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	couponsService, err := coupons.NewService(couponsRepo, ordersService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupons service", err)
		os.Exit(1)
	}
	checkoutService, err := checkout.NewService(ordersService, cfg.Checkout, checkoutMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			cartManager,
			productsRepo,
			couponsService,
			ordersService,
			checkoutService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
