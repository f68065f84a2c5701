package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qyve/storefront/api"
	"github.com/qyve/storefront/api/routes"
	"github.com/qyve/storefront/internal/cart"
	checkoutsvc "github.com/qyve/storefront/internal/checkout"
	"github.com/qyve/storefront/internal/crawler"
	"github.com/qyve/storefront/internal/dashboard"
	"github.com/qyve/storefront/internal/ledger"
	"github.com/qyve/storefront/internal/newsletter"
	"github.com/qyve/storefront/internal/orders"
	"github.com/qyve/storefront/internal/products"
	stripewebhook "github.com/qyve/storefront/internal/webhooks/stripe"
	"github.com/qyve/storefront/pkg/config"
	"github.com/qyve/storefront/pkg/db"
	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/metrics"
	"github.com/qyve/storefront/pkg/migrate"
	"github.com/qyve/storefront/pkg/outbox"
	"github.com/qyve/storefront/pkg/redis"
	"github.com/qyve/storefront/pkg/stripe"
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
		Console:     cfg.App.IsDev(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	requireResource(ctx, logg, "stripe client", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	gormDB := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)
	productRepo := products.NewRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)

	checkoutService, err := checkoutsvc.NewService(stripeClient, productRepo, checkoutsvc.Config{
		BaseURL:     cfg.Storefront.BaseURL,
		Currency:    cfg.Checkout.Currency,
		SuccessPath: cfg.Checkout.SuccessPath,
		CancelPath:  cfg.Checkout.CancelPath,
	}, logg, storefrontMetrics)
	requireResource(ctx, logg, "checkout service", err)

	cartService, err := cart.NewService(cartRepo, dbClient, productRepo)
	requireResource(ctx, logg, "cart service", err)

	cartResolver, err := cart.NewResolver(cartRepo)
	requireResource(ctx, logg, "cart resolver", err)

	fulfiller, err := orders.NewFulfiller(dbClient, orderRepo, cartResolver, cartRepo, ledgerRepo, outboxSvc, logg, storefrontMetrics)
	requireResource(ctx, logg, "order fulfiller", err)

	orderService, err := orders.NewService(orderRepo, dbClient, outboxSvc)
	requireResource(ctx, logg, "order service", err)

	ledgerService, err := ledger.NewService(ledgerRepo, dbClient)
	requireResource(ctx, logg, "ledger service", err)

	productService, err := products.NewService(productRepo, ledgerRepo, dbClient)
	requireResource(ctx, logg, "product service", err)

	dashboardService, err := dashboard.NewService(orderService, ledgerRepo)
	requireResource(ctx, logg, "dashboard service", err)

	newsletterService, err := newsletter.NewService(newsletter.NewRepository(gormDB), dbClient, outboxSvc)
	requireResource(ctx, logg, "newsletter service", err)

	crawlerService, err := crawler.NewService(
		crawler.NewRepository(gormDB),
		crawler.NewFetcher(&http.Client{Timeout: cfg.Crawler.Timeout}, cfg.Crawler.UserAgent),
		crawler.Config{Sources: cfg.Crawler.Sources, MaxPages: cfg.Crawler.MaxPages, MinScore: cfg.Crawler.MinScore},
		logg,
	)
	requireResource(ctx, logg, "crawler service", err)

	webhookService, err := stripewebhook.NewService(fulfiller, logg)
	requireResource(ctx, logg, "stripe webhook service", err)

	webhookGuard, err := stripewebhook.NewEventGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL)
	requireResource(ctx, logg, "stripe webhook guard", err)

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:             dbClient,
		Redis:          redisClient,
		Metrics:        storefrontMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		StripeClient:   stripeClient,
		WebhookService: webhookService,
		WebhookGuard:   webhookGuard,
		Checkout:       checkoutService,
		Cart:           cartService,
		Orders:         orderService,
		Ledger:         ledgerService,
		Products:       productService,
		Dashboard:      dashboardService,
		Crawler:        crawlerService,
		Newsletter:     newsletterService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	if err := api.Serve(ctx, api.NewServer(addr, handler), logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "resource", resource), "failed to initialize resource", err)
	os.Exit(1)
}
