package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	Admin        AdminConfig
	Storefront   StorefrontConfig
	Checkout     CheckoutConfig
	Stripe       StripeConfig
	SMTP         SMTPConfig
	Crawler      CrawlerConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Stripe.validate(cfg.App.IsProd()); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"QYVE_APP_ENV" required:"true"`
	Port         string `envconfig:"QYVE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"QYVE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QYVE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"QYVE_DB_DSN"`
	Driver string `envconfig:"QYVE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"QYVE_DB_HOST"`
	Port     int    `envconfig:"QYVE_DB_PORT" default:"5432"`
	User     string `envconfig:"QYVE_DB_USER"`
	Password string `envconfig:"QYVE_DB_PASSWORD"`
	Name     string `envconfig:"QYVE_DB_NAME"`
	SSLMode  string `envconfig:"QYVE_DB_SSLMODE" default:"require"`

	MaxOpenConns    int           `envconfig:"QYVE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QYVE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QYVE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QYVE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"QYVE_REDIS_URL"`
	Address      string        `envconfig:"QYVE_REDIS_ADDR"`
	Password     string        `envconfig:"QYVE_REDIS_PASSWORD"`
	DB           int           `envconfig:"QYVE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QYVE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QYVE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QYVE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QYVE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QYVE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AuthConfig verifies access tokens minted by the hosted auth provider.
type AuthConfig struct {
	JWTSecret string `envconfig:"QYVE_AUTH_JWT_SECRET" required:"true"`
	Issuer    string `envconfig:"QYVE_AUTH_ISSUER"`
	Audience  string `envconfig:"QYVE_AUTH_AUDIENCE" default:"authenticated"`
}

type AdminConfig struct {
	Emails []string `envconfig:"QYVE_ADMIN_EMAILS"`
}

// IsAdmin reports whether the email is on the allow-list, ignoring case.
func (a AdminConfig) IsAdmin(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, candidate := range a.Emails {
		if strings.EqualFold(strings.TrimSpace(candidate), email) {
			return true
		}
	}
	return false
}

type StorefrontConfig struct {
	BaseURL        string   `envconfig:"QYVE_BASE_URL" required:"true"`
	AllowedOrigins []string `envconfig:"QYVE_ALLOWED_ORIGINS"`
}

// Origins returns the CORS allow-list, falling back to the storefront base URL.
func (s StorefrontConfig) Origins() []string {
	if len(s.AllowedOrigins) > 0 {
		return s.AllowedOrigins
	}
	base := strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if base == "" {
		return nil
	}
	return []string{base}
}

// RateLimitConfig bounds anonymous write traffic per client IP. A zero limit
// disables the policy.
type RateLimitConfig struct {
	Window          time.Duration `envconfig:"QYVE_RATE_LIMIT_WINDOW" default:"1m"`
	CheckoutLimit   int           `envconfig:"QYVE_RATE_LIMIT_CHECKOUT" default:"20"`
	NewsletterLimit int           `envconfig:"QYVE_RATE_LIMIT_NEWSLETTER" default:"5"`
	// TrustedProxies counts the reverse proxies in front of the API that
	// append to X-Forwarded-For. Zero ignores the header.
	TrustedProxies int `envconfig:"QYVE_RATE_LIMIT_TRUSTED_PROXIES" default:"0"`
}

type CheckoutConfig struct {
	Currency    string `envconfig:"QYVE_CHECKOUT_CURRENCY" default:"idr"`
	SuccessPath string `envconfig:"QYVE_CHECKOUT_SUCCESS_PATH" default:"/checkout/success"`
	CancelPath  string `envconfig:"QYVE_CHECKOUT_CANCEL_PATH" default:"/cart"`
}

type StripeConfig struct {
	Env           string `envconfig:"QYVE_STRIPE_ENV" default:"test"`
	TestSecretKey string `envconfig:"QYVE_STRIPE_TEST_SECRET_KEY"`
	LiveSecretKey string `envconfig:"QYVE_STRIPE_LIVE_SECRET_KEY"`
	WebhookSecret string `envconfig:"QYVE_STRIPE_WEBHOOK_SECRET"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return StripeEnvTest
	}
	return env
}

// SecretKey returns the API key for the configured environment.
func (s StripeConfig) SecretKey() string {
	if s.Environment() == StripeEnvLive {
		return strings.TrimSpace(s.LiveSecretKey)
	}
	return strings.TrimSpace(s.TestSecretKey)
}

func (s StripeConfig) validate(prod bool) error {
	switch s.Environment() {
	case StripeEnvTest, StripeEnvLive:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvStripeEnv, StripeEnvTest, StripeEnvLive)
	}
	if prod && s.Environment() != StripeEnvLive {
		return fmt.Errorf("%s must be %q in prod", EnvStripeEnv, StripeEnvLive)
	}
	return nil
}

type SMTPConfig struct {
	Host     string        `envconfig:"QYVE_SMTP_HOST"`
	Port     int           `envconfig:"QYVE_SMTP_PORT" default:"587"`
	Username string        `envconfig:"QYVE_SMTP_USER"`
	Password string        `envconfig:"QYVE_SMTP_PASSWORD"`
	From     string        `envconfig:"QYVE_SMTP_FROM" default:"QYVE <no-reply@qyve.id>"`
	Timeout  time.Duration `envconfig:"QYVE_SMTP_TIMEOUT" default:"30s"`
}

func (s SMTPConfig) Enabled() bool {
	return strings.TrimSpace(s.Host) != ""
}

type CrawlerConfig struct {
	Enabled   bool          `envconfig:"QYVE_CRAWLER_ENABLED" default:"false"`
	Sources   []string      `envconfig:"QYVE_CRAWLER_SOURCES"`
	MaxPages  int           `envconfig:"QYVE_CRAWLER_MAX_PAGES" default:"3"`
	UserAgent string        `envconfig:"QYVE_CRAWLER_USER_AGENT" default:"qyve-crawler/1.0"`
	Timeout   time.Duration `envconfig:"QYVE_CRAWLER_TIMEOUT" default:"15s"`
	MinScore  int           `envconfig:"QYVE_CRAWLER_MIN_SCORE" default:"2"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"QYVE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"QYVE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL  time.Duration `envconfig:"QYVE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	WebhookIdempotencyTTL time.Duration `envconfig:"QYVE_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
	RequestIdempotencyTTL time.Duration `envconfig:"QYVE_REQUEST_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"QYVE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"QYVE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"QYVE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"QYVE_PUBSUB_ORDERS_TOPIC" default:"qyve-order-events"`
	OrdersSubscription string `envconfig:"QYVE_PUBSUB_ORDERS_SUBSCRIPTION" default:"qyve-order-events-worker"`
}

type BigQueryConfig struct {
	Dataset    string `envconfig:"QYVE_BIGQUERY_DATASET"`
	SalesTable string `envconfig:"QYVE_BIGQUERY_SALES_TABLE" default:"sales_facts"`
}

func (b BigQueryConfig) Enabled() bool {
	return strings.TrimSpace(b.Dataset) != ""
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"QYVE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"QYVE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"QYVE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"QYVE_OUTBOX_RETENTION_DAYS" default:"14"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"QYVE_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"QYVE_CRON_LOCK_TTL" default:"30m"`
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if db.DSN != "" {
		return nil
	}
	if sqlite {
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
