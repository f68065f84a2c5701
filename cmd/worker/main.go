package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/qyve/storefront/internal/analytics"
	"github.com/qyve/storefront/internal/consumers"
	analyticsconsumer "github.com/qyve/storefront/internal/consumers/analytics"
	"github.com/qyve/storefront/internal/notifications"
	"github.com/qyve/storefront/pkg/bigquery"
	"github.com/qyve/storefront/pkg/config"
	"github.com/qyve/storefront/pkg/instance"
	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/mailer"
	"github.com/qyve/storefront/pkg/outbox/idempotency"
	"github.com/qyve/storefront/pkg/pubsub"
	"github.com/qyve/storefront/pkg/redis"
)

// The worker consumes order and newsletter events: emails always, the sales
// fact table only when BigQuery is configured.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	subscription := pubsubClient.OrdersSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "orders subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	mail, err := mailer.New(cfg.SMTP, logg)
	requireResource(ctx, logg, "mailer", err)

	notificationConsumer, err := notifications.NewConsumer(mail, manager, cfg.Admin.Emails, cfg.Storefront.BaseURL, logg)
	requireResource(ctx, logg, "notification consumer", err)

	handlers := []consumers.Handler{notificationConsumer}

	if cfg.BigQuery.Enabled() {
		bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		requireResource(ctx, logg, "bigquery client", err)
		defer func() {
			if err := bqClient.Close(); err != nil {
				logg.Error(ctx, "failed to close bigquery client", err)
			}
		}()

		salesWriter, err := analytics.NewSalesWriter(bqClient, cfg.BigQuery.SalesTable, analytics.RetryPolicy{})
		requireResource(ctx, logg, "sales writer", err)

		salesConsumer, err := analyticsconsumer.NewConsumer(salesWriter, manager, logg)
		requireResource(ctx, logg, "analytics consumer", err)
		handlers = append(handlers, salesConsumer)
	} else {
		logg.Warn(ctx, "bigquery not configured; sales analytics disabled")
	}

	router, err := consumers.NewRouter(subscription, logg, handlers...)
	requireResource(ctx, logg, "consumer router", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "worker",
		"instance":    instance.GetID(),
		"handlers":    len(handlers),
	})
	logg.Info(runCtx, "worker ready")

	if err := router.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "worker failed", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
