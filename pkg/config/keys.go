package config

// EnvPrefix scopes envconfig lookups; struct tags carry the full QYVE_ names
// so they resolve through envconfig's alternate-key lookup.
const EnvPrefix = "QYVE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StripeEnvTest = "test"
	StripeEnvLive = "live"

	defaultSQLiteDSN = "file:qyve.db?cache=shared&_fk=1"
)

const (
	EnvAppEnv        = "QYVE_APP_ENV"
	EnvPort          = "QYVE_APP_PORT"
	EnvDBDSN         = "QYVE_DB_DSN"
	EnvDBHost        = "QYVE_DB_HOST"
	EnvDBUser        = "QYVE_DB_USER"
	EnvDBName        = "QYVE_DB_NAME"
	EnvRedisURL      = "QYVE_REDIS_URL"
	EnvAuthJWTSecret = "QYVE_AUTH_JWT_SECRET"
	EnvAdminEmails   = "QYVE_ADMIN_EMAILS"
	EnvBaseURL       = "QYVE_BASE_URL"
	EnvStripeEnv     = "QYVE_STRIPE_ENV"
	EnvStripeTestKey = "QYVE_STRIPE_TEST_SECRET_KEY"
	EnvStripeLiveKey = "QYVE_STRIPE_LIVE_SECRET_KEY"
	EnvStripeWebhook = "QYVE_STRIPE_WEBHOOK_SECRET"
	EnvUseSQLite     = "QYVE_USE_SQLITE"
	EnvCrawlerSource = "QYVE_CRAWLER_SOURCES"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
