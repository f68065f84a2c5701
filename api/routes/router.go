package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/qyve/storefront/api/controllers"
	webhookcontrollers "github.com/qyve/storefront/api/controllers/webhooks"
	"github.com/qyve/storefront/api/middleware"
	"github.com/qyve/storefront/internal/cart"
	checkoutsvc "github.com/qyve/storefront/internal/checkout"
	"github.com/qyve/storefront/internal/crawler"
	"github.com/qyve/storefront/internal/dashboard"
	"github.com/qyve/storefront/internal/ledger"
	"github.com/qyve/storefront/internal/newsletter"
	"github.com/qyve/storefront/internal/orders"
	"github.com/qyve/storefront/internal/products"
	"github.com/qyve/storefront/pkg/config"
	"github.com/qyve/storefront/pkg/db"
	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/metrics"
	pkgredis "github.com/qyve/storefront/pkg/redis"
)

type redisStore interface {
	pkgredis.IdempotencyStore
	pkgredis.Pinger
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type signingSecretProvider interface {
	SigningSecret() string
}

type webhookGuard interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// Dependencies carries everything the HTTP surface needs. Metrics and
// MetricsHandler are optional.
type Dependencies struct {
	DB    db.Pinger
	Redis redisStore

	Metrics        *metrics.StorefrontMetrics
	MetricsHandler http.Handler

	StripeClient   signingSecretProvider
	WebhookService webhookcontrollers.StripeWebhookService
	WebhookGuard   webhookGuard

	Checkout   checkoutsvc.Service
	Cart       cart.Service
	Orders     orders.Service
	Ledger     ledger.Service
	Products   products.Service
	Dashboard  dashboard.Service
	Crawler    crawler.Service
	Newsletter newsletter.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.Window, cfg.RateLimit.CheckoutLimit).
		BehindProxies(cfg.RateLimit.TrustedProxies)
	newsletterPolicy := middleware.NewRateLimitPolicy("newsletter", cfg.RateLimit.Window, cfg.RateLimit.NewsletterLimit).
		BehindProxies(cfg.RateLimit.TrustedProxies)
	idempotent := middleware.Idempotency(deps.Redis, cfg.Eventing.RequestIdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// Stripe calls the webhook server to server, outside the CORS allow-list.
	r.Post("/api/webhook", webhookcontrollers.StripeWebhook(deps.WebhookService, deps.StripeClient, deps.WebhookGuard, deps.Metrics, logg))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.Storefront.Origins(), cfg.App.IsDev()))

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.Auth, logg))
			r.With(
				middleware.RateLimit(checkoutPolicy, deps.Redis, logg),
				idempotent,
			).Post("/checkout", controllers.Checkout(deps.Checkout, logg))
		})

		r.Get("/products", controllers.ProductList(deps.Products, logg, false))
		r.Get("/products/{productId}", controllers.ProductDetail(deps.Products, logg, false))
		r.Get("/articles", controllers.ArticleList(deps.Crawler, logg))
		r.Get("/size-chart", controllers.SizeChart(logg))
		r.Get("/size-chart/recommend", controllers.SizeRecommend(logg))

		r.Route("/newsletter", func(r chi.Router) {
			r.Use(middleware.RateLimit(newsletterPolicy, deps.Redis, logg))
			r.Post("/subscribe", controllers.NewsletterSubscribe(deps.Newsletter, logg))
			r.Post("/unsubscribe", controllers.NewsletterUnsubscribe(deps.Newsletter, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Auth, logg))
			r.Get("/cart", controllers.CartGet(deps.Cart, logg))
			r.Post("/cart/items", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/cart/items/{itemId}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/cart/items/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Get("/orders", controllers.BuyerOrderList(deps.Orders, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Auth, logg))
			r.Use(middleware.RequireAdmin(cfg.Admin, logg))

			r.Get("/dashboard", controllers.AdminDashboard(deps.Dashboard, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
				r.Get("/{orderId}", controllers.AdminOrderDetail(deps.Orders, logg))
				r.Patch("/{orderId}/status", controllers.AdminOrderUpdateStatus(deps.Orders, logg))
			})

			r.Route("/stock", func(r chi.Router) {
				r.Get("/", controllers.StockList(deps.Ledger, logg))
				r.Get("/history", controllers.StockHistory(deps.Ledger, logg))
				r.With(idempotent).Post("/adjust", controllers.StockAdjust(deps.Ledger, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(deps.Products, logg, true))
				r.Post("/", controllers.AdminProductCreate(deps.Products, logg))
				r.Get("/{productId}", controllers.ProductDetail(deps.Products, logg, true))
				r.Put("/{productId}", controllers.AdminProductUpdate(deps.Products, logg))
				r.Delete("/{productId}", controllers.AdminProductDelete(deps.Products, logg))
			})

			r.Post("/crawler/run", controllers.AdminCrawlerRun(deps.Crawler, logg))
		})
	})

	return r
}
