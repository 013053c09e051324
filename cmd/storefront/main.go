package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ElisioMassango/chelevi-sub000/api/routes"
	"github.com/ElisioMassango/chelevi-sub000/internal/cartstore"
	"github.com/ElisioMassango/chelevi-sub000/internal/cartsync"
	"github.com/ElisioMassango/chelevi-sub000/internal/commerce"
	"github.com/ElisioMassango/chelevi-sub000/internal/guestcart"
	"github.com/ElisioMassango/chelevi-sub000/internal/pricing"
	"github.com/ElisioMassango/chelevi-sub000/pkg/config"
	"github.com/ElisioMassango/chelevi-sub000/pkg/db"
	"github.com/ElisioMassango/chelevi-sub000/pkg/logger"
	"github.com/ElisioMassango/chelevi-sub000/pkg/metrics"
	"github.com/ElisioMassango/chelevi-sub000/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.GuestStore, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open guest store", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing guest store", err)
		}
	}()

	guestStore, err := guestcart.NewStore(dbClient.DB(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap guest cart", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	commerceMetrics := metrics.NewCommerceMetrics(registry)

	commerceClient, err := commerce.NewClient(cfg.Commerce, commerceMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create commerce client", err)
		os.Exit(1)
	}

	syncService, err := cartsync.NewService(commerceClient, cfg.Commerce.AssetHost, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart sync service", err)
		os.Exit(1)
	}

	migrator, err := cartsync.NewMigrator(commerceClient, guestStore, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create migrator", err)
		os.Exit(1)
	}

	cartStore, err := cartstore.New(context.Background(), cartstore.Params{
		Guest:    guestStore,
		Sync:     syncService,
		Migrator: migrator,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}

	priceCache := pricing.NewCache(redisClient, cfg.PriceCache.TTL, logg)
	resolver, err := pricing.NewResolver(commerceClient, priceCache, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create price resolver", err)
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
	logg.Info(ctx, "starting storefront server")

	routerDeps := routes.Deps{
		Config:    cfg,
		Logger:    logg,
		GuestDB:   dbClient,
		CartStore: cartStore,
		Resolver:  resolver,
		Registry:  registry,
	}
	if redisClient != nil {
		routerDeps.Cache = redisClient
	}

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(routerDeps),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "storefront server stopped unexpectedly", err)
		os.Exit(1)
	}
}
