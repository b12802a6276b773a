package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/dram-store/internal/domain/order"
)

// Config holds the complete application configuration, loadable from
// environment variables (DRAM_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (DRAM_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (DRAM_API_KEY_PEPPER)" flag:"api-key-pepper"`

	Stripe    StripeConfig
	Pricing   PricingConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// StripeConfig configures the payment gateway adapter.
type StripeConfig struct {
	SecretKey string `usage:"Stripe secret key (DRAM_STRIPE_SECRET_KEY)" flag:"stripe-secret-key"`
	BaseURL   string `default:"" usage:"Override Stripe API base URL (stripe-mock in dev)" flag:"stripe-base-url"`
	Currency  string `default:"usd" usage:"ISO 4217 currency for payment intents"`
}

// PricingConfig carries the checkout pricing policy as decimal strings.
type PricingConfig struct {
	FreeShippingOver string `default:"200" usage:"Items subtotal above which shipping is free" flag:"free-shipping-over"`
	ShippingFee      string `default:"25" usage:"Flat shipping fee below the free-shipping threshold" flag:"shipping-fee"`
	TaxRate          string `default:"0.05" usage:"Tax rate applied to the items subtotal" flag:"tax-rate"`
}

// Parse converts the decimal strings into the domain pricing policy.
func (p PricingConfig) Parse() (order.PricingConfig, error) {
	var (
		cfg order.PricingConfig
		err error
	)
	if cfg.FreeShippingOver, err = decimal.NewFromString(p.FreeShippingOver); err != nil {
		return cfg, errors.Wrap(err, "parse free-shipping-over")
	}
	if cfg.ShippingFee, err = decimal.NewFromString(p.ShippingFee); err != nil {
		return cfg, errors.Wrap(err, "parse shipping-fee")
	}
	if cfg.TaxRate, err = decimal.NewFromString(p.TaxRate); err != nil {
		return cfg, errors.Wrap(err, "parse tax-rate")
	}
	return cfg, nil
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "DRAM",
		Files:     []string{"config.yaml", "/etc/dram-store/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set DRAM_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's DRAM_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
