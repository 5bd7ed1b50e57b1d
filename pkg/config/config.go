package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cart         CartConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HARVESTLY_APP_ENV" required:"true"`
	Port         string `envconfig:"HARVESTLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HARVESTLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HARVESTLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HARVESTLY_DB_DSN"`
	Driver string `envconfig:"HARVESTLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HARVESTLY_DB_HOST"`
	LegacyPort     int    `envconfig:"HARVESTLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HARVESTLY_DB_USER"`
	LegacyPassword string `envconfig:"HARVESTLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"HARVESTLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"HARVESTLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HARVESTLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HARVESTLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HARVESTLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HARVESTLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HARVESTLY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HARVESTLY_REDIS_ADDR"`
	Password     string        `envconfig:"HARVESTLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"HARVESTLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HARVESTLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HARVESTLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HARVESTLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HARVESTLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HARVESTLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"HARVESTLY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HARVESTLY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"HARVESTLY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CartConfig struct {
	SnapshotTTL time.Duration `envconfig:"HARVESTLY_CART_SNAPSHOT_TTL" default:"720h"`
}

// CheckoutConfig centralizes the checkout business constants so the
// shipping-fee policy and delivery lead time live in exactly one place.
type CheckoutConfig struct {
	ShippingFee           string `envconfig:"HARVESTLY_CHECKOUT_SHIPPING_FEE" default:"49.90"`
	FreeShippingThreshold string `envconfig:"HARVESTLY_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"150"`
	DeliveryLeadDays      int    `envconfig:"HARVESTLY_CHECKOUT_DELIVERY_LEAD_DAYS" default:"3"`
}

func (c CheckoutConfig) validate() error {
	if _, err := decimal.NewFromString(c.ShippingFee); err != nil {
		return fmt.Errorf("invalid shipping fee %q: %w", c.ShippingFee, err)
	}
	if _, err := decimal.NewFromString(c.FreeShippingThreshold); err != nil {
		return fmt.Errorf("invalid free shipping threshold %q: %w", c.FreeShippingThreshold, err)
	}
	if c.DeliveryLeadDays <= 0 {
		return fmt.Errorf("delivery lead days must be positive")
	}
	return nil
}

// ShippingFeeAmount returns the flat shipping fee as a decimal.
func (c CheckoutConfig) ShippingFeeAmount() decimal.Decimal {
	return decimal.RequireFromString(c.ShippingFee)
}

// FreeShippingAt returns the subtotal threshold at which shipping is free.
func (c CheckoutConfig) FreeShippingAt() decimal.Decimal {
	return decimal.RequireFromString(c.FreeShippingThreshold)
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HARVESTLY_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		"HARVESTLY_DB_HOST": db.LegacyHost,
		"HARVESTLY_DB_USER": db.LegacyUser,
		"HARVESTLY_DB_NAME": db.LegacyName,
	}
	for _, env := range []string{"HARVESTLY_DB_HOST", "HARVESTLY_DB_USER", "HARVESTLY_DB_NAME"} {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either HARVESTLY_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
