/*
Package config manages the TOML config for shopserve.

The file lives at <config dir>/shopserve/config.toml and is created with
defaults on first run. A file that fails to decode as a whole is salvaged
section by section, so one bad value only resets that value.
*/
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bastiangx/shopserve/internal/utils"
	"github.com/bastiangx/shopserve/pkg/cart"
	"github.com/bastiangx/shopserve/pkg/pricefeed"
	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
)

// FileName is the config file name inside the config dir
const FileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Search    SearchConfig    `toml:"search"`
	Filter    FilterConfig    `toml:"filter"`
	History   HistoryConfig   `toml:"history"`
	HTTP      HTTPConfig      `toml:"http"`
	Cart      CartConfig      `toml:"cart"`
	Coupons   []CouponConfig  `toml:"coupons"`
	PriceFeed PriceFeedConfig `toml:"pricefeed"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxLimit int `toml:"max_limit"`
	// ReloadEvery re-reads the config file after this many requests. 0 disables it.
	ReloadEvery int `toml:"reload_every"`
}

// SearchConfig holds suggestion engine options.
type SearchConfig struct {
	MaxProductMatches int `toml:"max_product_matches"`
	// PredictionsFile is an optional TOML prefix table merged over the built-in one
	PredictionsFile string   `toml:"predictions_file"`
	CommonTerms     []string `toml:"common_terms,omitempty"`
}

// FilterConfig holds product listing options.
type FilterConfig struct {
	DefaultSort string `toml:"default_sort"`
}

// HistoryConfig selects where recent searches are kept.
type HistoryConfig struct {
	// Backend is one of "file", "redis" or "memory"
	Backend    string `toml:"backend"`
	Key        string `toml:"key"`
	MaxEntries int    `toml:"max_entries"`
	RedisURL   string `toml:"redis_url"`
	// Dir overrides <config dir>/history for the file backend
	Dir string `toml:"dir,omitempty"`
}

// HTTPConfig holds HTTP API options.
type HTTPConfig struct {
	Addr string `toml:"addr"`
	// RateLimit is requests per second per client IP. 0 disables limiting.
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

// CartConfig holds pricing rules.
type CartConfig struct {
	FreeShippingThreshold float64 `toml:"free_shipping_threshold"`
	ShippingFee           float64 `toml:"shipping_fee"`
	TaxRate               float64 `toml:"tax_rate"`
}

// CouponConfig is one [[coupons]] entry.
type CouponConfig struct {
	Code     string  `toml:"code"`
	Kind     string  `toml:"kind"`
	Value    float64 `toml:"value"`
	MinOrder float64 `toml:"min_order"`
	// Expires is a YYYY-MM-DD date, inclusive. Empty never expires.
	Expires string `toml:"expires,omitempty"`
}

// PriceFeedConfig holds scraper options.
type PriceFeedConfig struct {
	TimeoutSeconds     int                            `toml:"timeout_seconds"`
	UserAgent          string                         `toml:"user_agent"`
	FailureThreshold   int                            `toml:"failure_threshold"`
	SuccessThreshold   int                            `toml:"success_threshold"`
	OpenTimeoutSeconds int                            `toml:"open_timeout_seconds"`
	Sites              map[string]pricefeed.Selectors `toml:"sites,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxLimit:    24,
			ReloadEvery: 100,
		},
		Search: SearchConfig{
			MaxProductMatches: 5,
		},
		Filter: FilterConfig{
			DefaultSort: "featured",
		},
		History: HistoryConfig{
			Backend:    "file",
			Key:        "shopserve:search-history",
			MaxEntries: 10,
			RedisURL:   "redis://localhost:6379/0",
		},
		HTTP: HTTPConfig{
			Addr:      ":8080",
			RateLimit: 20,
			Burst:     40,
		},
		Cart: CartConfig{
			FreeShippingThreshold: 50,
			ShippingFee:           5.99,
			TaxRate:               0.08,
		},
		Coupons: []CouponConfig{
			{Code: "WELCOME10", Kind: "percent", Value: 10},
			{Code: "SAVE20", Kind: "fixed", Value: 20, MinOrder: 100},
		},
		PriceFeed: PriceFeedConfig{
			TimeoutSeconds:     30,
			UserAgent:          "Mozilla/5.0 (compatible; shopserve-pricefeed/1.0)",
			FailureThreshold:   3,
			SuccessThreshold:   1,
			OpenTimeoutSeconds: 60,
			Sites:              map[string]pricefeed.Selectors{},
		},
	}
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath(pr *utils.PathResolver) (string, error) {
	return pr.GetConfigPath(FileName)
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/shopserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string, pr *utils.PathResolver) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	if pr == nil {
		return DefaultConfig(), "", nil
	}
	defaultPath, err := GetDefaultConfigPath(pr)
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	// [[coupons]] replaces the default list instead of merging into it
	defaultCoupons := config.Coupons
	config.Coupons = nil

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	if config.Coupons == nil {
		config.Coupons = defaultCoupons
	}
	return config, nil
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// ApplyEnv overrides values from the environment. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if url := strings.TrimSpace(getenv("SHOPSERVE_REDIS_URL")); url != "" {
		c.History.RedisURL = url
		c.History.Backend = "redis"
		log.Debugf("History backend set to redis from environment")
	}
	if addr := strings.TrimSpace(getenv("SHOPSERVE_HTTP_ADDR")); addr != "" {
		c.HTTP.Addr = addr
	}
}

// CartRules converts the cart section to pricing rules
func (c *Config) CartRules() cart.Rules {
	return cart.Rules{
		FreeShippingThreshold: decimal.NewFromFloat(c.Cart.FreeShippingThreshold),
		ShippingFee:           decimal.NewFromFloat(c.Cart.ShippingFee),
		TaxRate:               decimal.NewFromFloat(c.Cart.TaxRate),
	}
}

// CouponSet converts the [[coupons]] entries, skipping invalid ones.
func (c *Config) CouponSet() cart.Coupons {
	list := make([]cart.Coupon, 0, len(c.Coupons))
	for _, cc := range c.Coupons {
		if strings.TrimSpace(cc.Code) == "" {
			log.Warnf("Skipping coupon without a code")
			continue
		}
		kind := cart.CouponKind(strings.ToLower(cc.Kind))
		if kind != cart.CouponPercent && kind != cart.CouponFixed {
			log.Warnf("Skipping coupon %s: unknown kind %q", cc.Code, cc.Kind)
			continue
		}

		coupon := cart.Coupon{
			Code:     cc.Code,
			Kind:     kind,
			Value:    decimal.NewFromFloat(cc.Value),
			MinOrder: decimal.NewFromFloat(cc.MinOrder),
		}
		if cc.Expires != "" {
			day, err := time.Parse(time.DateOnly, cc.Expires)
			if err != nil {
				log.Warnf("Skipping coupon %s: bad expiry %q", cc.Code, cc.Expires)
				continue
			}
			coupon.ExpiresAt = day.Add(24*time.Hour - time.Nanosecond)
		}
		list = append(list, coupon)
	}
	return cart.NewCoupons(list)
}

// PriceFeedOptions converts the pricefeed section to updater options
func (c *Config) PriceFeedOptions() pricefeed.Options {
	pf := c.PriceFeed
	sites := make(map[string]pricefeed.Selectors, len(pf.Sites))
	for host, sel := range pf.Sites {
		sites[strings.TrimPrefix(strings.ToLower(host), "www.")] = sel
	}
	return pricefeed.Options{
		Timeout:          time.Duration(pf.TimeoutSeconds) * time.Second,
		UserAgent:        pf.UserAgent,
		Sites:            sites,
		FailureThreshold: pf.FailureThreshold,
		SuccessThreshold: pf.SuccessThreshold,
		OpenTimeout:      time.Duration(pf.OpenTimeoutSeconds) * time.Second,
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}
