package config

// EnvPrefix is passed to envconfig. Fields name their full variable in the
// envconfig tag, which envconfig falls back to when the prefixed key is unset.
const EnvPrefix = "SHOPFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv       = "SHOPFRONT_APP_ENV"
	EnvPort         = "SHOPFRONT_APP_PORT"
	EnvDBDSN        = "SHOPFRONT_DB_DSN"
	EnvDBDriver     = "SHOPFRONT_DB_DRIVER"
	EnvDBHost       = "SHOPFRONT_DB_HOST"
	EnvDBUser       = "SHOPFRONT_DB_USER"
	EnvDBName       = "SHOPFRONT_DB_NAME"
	EnvRedisURL     = "SHOPFRONT_REDIS_URL"
	EnvJWTSecret    = "SHOPFRONT_JWT_SECRET"
	EnvJWTIssuer    = "SHOPFRONT_JWT_ISSUER"
	EnvCORSOrigins  = "SHOPFRONT_CORS_ALLOWED_ORIGINS"
	EnvDeliveryDays = "SHOPFRONT_ORDERS_DEFAULT_DELIVERY_DAYS"
	EnvShippingFee  = "SHOPFRONT_CART_DEFAULT_SHIPPING_FEE"
	EnvGCPProjectID = "SHOPFRONT_GCP_PROJECT_ID"
	EnvPubSubTopic  = "SHOPFRONT_PUBSUB_DOMAIN_TOPIC"
	EnvCronInterval = "SHOPFRONT_CRON_INTERVAL"
)
