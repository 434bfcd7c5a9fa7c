package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Cart         CartConfig
	Orders       OrdersConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

// Load reads the environment and rejects settings the services cannot run
// with. Every problem is reported at once.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.DB.DSN == "" {
		dsn, err := cfg.DB.dsnFromParts()
		if err != nil {
			return nil, err
		}
		cfg.DB.DSN = dsn
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs error
	if !slices.Contains([]string{DriverPostgres, DriverSQLite}, c.DB.Driver) {
		errs = multierr.Append(errs, fmt.Errorf("%s must be %s or %s", EnvDBDriver, DriverPostgres, DriverSQLite))
	}
	if c.Cart.DefaultShippingFee.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("%s must not be negative", EnvShippingFee))
	}
	if c.Orders.DefaultDeliveryDays < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must not be negative", EnvDeliveryDays))
	}
	if c.Cron.Interval <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvCronInterval))
	}
	if c.App.IsProd() && len(c.JWT.Secret) < 32 {
		errs = multierr.Append(errs, errors.New("jwt secret must be at least 32 bytes in prod"))
	}
	return errs
}

type AppConfig struct {
	Env          string `envconfig:"SHOPFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SHOPFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SHOPFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SHOPFRONT_SERVICE_KIND" default:"api"`
}

// DBConfig takes either a full DSN or the discrete Postgres settings below.
// With the sqlite driver DSN is a file path or ":memory:".
type DBConfig struct {
	DSN    string `envconfig:"SHOPFRONT_DB_DSN"`
	Driver string `envconfig:"SHOPFRONT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SHOPFRONT_DB_HOST"`
	Port     int    `envconfig:"SHOPFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"SHOPFRONT_DB_USER"`
	Password string `envconfig:"SHOPFRONT_DB_PASSWORD"`
	Name     string `envconfig:"SHOPFRONT_DB_NAME"`
	SSLMode  string `envconfig:"SHOPFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQuery is the duration above which a statement is logged as slow.
	SlowQuery time.Duration `envconfig:"SHOPFRONT_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOPFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHOPFRONT_JWT_EXPIRATION_MINUTES" default:"60"`
	// CookieName is read when no Authorization header is present.
	CookieName string `envconfig:"SHOPFRONT_JWT_COOKIE_NAME" default:"accessToken"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SHOPFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type CartConfig struct {
	// DefaultShippingFee is charged per line item whose product has no shipping fee.
	DefaultShippingFee decimal.Decimal `envconfig:"SHOPFRONT_CART_DEFAULT_SHIPPING_FEE" default:"100"`
}

type OrdersConfig struct {
	DefaultDeliveryDays int  `envconfig:"SHOPFRONT_ORDERS_DEFAULT_DELIVERY_DAYS" default:"7"`
	ClearCartOnPlace    bool `envconfig:"SHOPFRONT_ORDERS_CLEAR_CART_ON_PLACE" default:"true"`
}

type RateLimitConfig struct {
	CouponLookupLimit  int           `envconfig:"SHOPFRONT_RATE_LIMIT_COUPON_LOOKUP_LIMIT" default:"30"`
	CouponLookupWindow time.Duration `envconfig:"SHOPFRONT_RATE_LIMIT_COUPON_LOOKUP_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPFRONT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SHOPFRONT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"SHOPFRONT_PUBSUB_DOMAIN_TOPIC" default:"shopfront-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHOPFRONT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHOPFRONT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHOPFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval           time.Duration `envconfig:"SHOPFRONT_CRON_INTERVAL" default:"1h"`
	JobTimeout         time.Duration `envconfig:"SHOPFRONT_CRON_JOB_TIMEOUT" default:"5m"`
	ProductFreshWindow time.Duration `envconfig:"SHOPFRONT_CRON_PRODUCT_FRESH_WINDOW" default:"48h"`
	OutboxRetention    time.Duration `envconfig:"SHOPFRONT_CRON_OUTBOX_RETENTION" default:"336h"`
}

func (db DBConfig) dsnFromParts() (string, error) {
	var missing []string
	for env, v := range map[string]string{EnvDBHost: db.Host, EnvDBUser: db.User, EnvDBName: db.Name} {
		if v == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("config: set %s or all of %s", EnvDBDSN, strings.Join(missing, ", "))
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.User(db.User),
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	}
	if db.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	return u.String(), nil
}
