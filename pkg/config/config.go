package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App        AppConfig
	Commerce   CommerceConfig
	GuestStore GuestStoreConfig
	Redis      RedisConfig
	PriceCache PriceCacheConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Commerce.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CHELEVI_APP_ENV" default:"development"`
	Port         string `envconfig:"CHELEVI_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CHELEVI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHELEVI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CommerceConfig points the storefront at the remote commerce API. StoreID is
// embedded in every request body; AssetHost qualifies relative image paths.
type CommerceConfig struct {
	BaseURL   string        `envconfig:"CHELEVI_COMMERCE_BASE_URL" required:"true"`
	StoreID   string        `envconfig:"CHELEVI_COMMERCE_STORE_ID" required:"true"`
	AssetHost string        `envconfig:"CHELEVI_COMMERCE_ASSET_HOST"`
	Timeout   time.Duration `envconfig:"CHELEVI_COMMERCE_TIMEOUT" default:"15s"`
}

func (c CommerceConfig) validate() error {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("CHELEVI_COMMERCE_BASE_URL must be an absolute url")
	}
	if c.AssetHost != "" {
		if asset, err := url.Parse(c.AssetHost); err != nil || asset.Scheme == "" || asset.Host == "" {
			return fmt.Errorf("CHELEVI_COMMERCE_ASSET_HOST must be an absolute url")
		}
	}
	return nil
}

type GuestStoreConfig struct {
	Path string `envconfig:"CHELEVI_GUEST_STORE_PATH" default:"chelevi-guest.db"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHELEVI_REDIS_URL"`
	Address      string        `envconfig:"CHELEVI_REDIS_ADDR"`
	Password     string        `envconfig:"CHELEVI_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHELEVI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHELEVI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHELEVI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHELEVI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHELEVI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHELEVI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all; the price
// cache is skipped entirely when it was not.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type PriceCacheConfig struct {
	TTL time.Duration `envconfig:"CHELEVI_PRICE_CACHE_TTL" default:"5m"`
}
