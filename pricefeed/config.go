package pricefeed

import (
	"fmt"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/viper"
)

// Config holds the price feed service configuration. Values come from a
// config file when one is given, with SURGE_PRICEFEED_* environment
// variables overriding individual keys.
type Config struct {
	// ListenAddr is the HTTP bind address for the quote API.
	ListenAddr string `mapstructure:"listen_addr"`

	// NodeAPIURL is the chain node's API endpoint serving on-chain TWAP
	// quotes. It is the primary price source.
	NodeAPIURL string `mapstructure:"node_api_url"`

	// AggregatorURL is the external price aggregator used when the node
	// is unreachable or its oracle is stale.
	AggregatorURL string `mapstructure:"aggregator_url"`

	// RequestTimeout bounds each upstream quote request.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// MaxPriceDeviation is the largest relative move from the last known
	// good price a fresh quote may show before it is rejected.
	MaxPriceDeviation string `mapstructure:"max_price_deviation"`

	// CacheTTL is how long a last-known-good price may keep serving once
	// every live source has failed.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:        ":8431",
		RequestTimeout:    5 * time.Second,
		MaxPriceDeviation: "0.15",
		CacheTTL:          5 * time.Minute,
	}
}

// LoadConfig reads configuration from path. An empty path loads defaults
// plus environment overrides only.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("listen_addr", ":8431")
	v.SetDefault("request_timeout", 5*time.Second)
	v.SetDefault("max_price_deviation", "0.15")
	v.SetDefault("cache_ttl", 5*time.Minute)

	v.SetEnvPrefix("SURGE_PRICEFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr cannot be empty")
	}
	if c.NodeAPIURL == "" && c.AggregatorURL == "" {
		return fmt.Errorf("at least one of node_api_url and aggregator_url is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	dev, err := sdkmath.LegacyNewDecFromStr(c.MaxPriceDeviation)
	if err != nil {
		return fmt.Errorf("invalid max_price_deviation %q: %w", c.MaxPriceDeviation, err)
	}
	if dev.IsNegative() {
		return fmt.Errorf("max_price_deviation cannot be negative")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive")
	}
	return nil
}
