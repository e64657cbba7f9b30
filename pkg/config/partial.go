package config

import (
	"github.com/bastiangx/shopserve/internal/utils"
	"github.com/bastiangx/shopserve/pkg/pricefeed"
	"github.com/charmbracelet/log"
)

// tryPartialParse salvages the sections that can be read from a TOML file
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "search"); ok {
		extractSearchConfig(section, &config.Search)
	}
	if section, ok := utils.ExtractSection(tempConfig, "filter"); ok {
		if val, ok := utils.ExtractString(section, "default_sort"); ok {
			config.Filter.DefaultSort = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "history"); ok {
		extractHistoryConfig(section, &config.History)
	}
	if section, ok := utils.ExtractSection(tempConfig, "http"); ok {
		extractHTTPConfig(section, &config.HTTP)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cart"); ok {
		extractCartConfig(section, &config.Cart)
	}
	if coupons, ok := tempConfig["coupons"].([]map[string]any); ok {
		config.Coupons = extractCoupons(coupons)
	}
	if section, ok := utils.ExtractSection(tempConfig, "pricefeed"); ok {
		extractPriceFeedConfig(section, &config.PriceFeed)
	}
	return config, nil
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "reload_every"); ok {
		server.ReloadEvery = val
	}
}

func extractSearchConfig(data map[string]any, search *SearchConfig) {
	if val, ok := utils.ExtractInt64(data, "max_product_matches"); ok {
		search.MaxProductMatches = val
	}
	if val, ok := utils.ExtractString(data, "predictions_file"); ok {
		search.PredictionsFile = val
	}
	if raw, ok := data["common_terms"].([]any); ok {
		terms := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				terms = append(terms, s)
			}
		}
		search.CommonTerms = terms
	}
}

func extractHistoryConfig(data map[string]any, history *HistoryConfig) {
	if val, ok := utils.ExtractString(data, "backend"); ok {
		history.Backend = val
	}
	if val, ok := utils.ExtractString(data, "key"); ok {
		history.Key = val
	}
	if val, ok := utils.ExtractInt64(data, "max_entries"); ok {
		history.MaxEntries = val
	}
	if val, ok := utils.ExtractString(data, "redis_url"); ok {
		history.RedisURL = val
	}
	if val, ok := utils.ExtractString(data, "dir"); ok {
		history.Dir = val
	}
}

func extractHTTPConfig(data map[string]any, http *HTTPConfig) {
	if val, ok := utils.ExtractString(data, "addr"); ok {
		http.Addr = val
	}
	if val, ok := utils.ExtractFloat(data, "rate_limit"); ok {
		http.RateLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "burst"); ok {
		http.Burst = val
	}
}

func extractCartConfig(data map[string]any, c *CartConfig) {
	if val, ok := utils.ExtractFloat(data, "free_shipping_threshold"); ok {
		c.FreeShippingThreshold = val
	}
	if val, ok := utils.ExtractFloat(data, "shipping_fee"); ok {
		c.ShippingFee = val
	}
	if val, ok := utils.ExtractFloat(data, "tax_rate"); ok {
		c.TaxRate = val
	}
}

func extractCoupons(entries []map[string]any) []CouponConfig {
	out := make([]CouponConfig, 0, len(entries))
	for _, e := range entries {
		var cc CouponConfig
		cc.Code, _ = utils.ExtractString(e, "code")
		cc.Kind, _ = utils.ExtractString(e, "kind")
		cc.Value, _ = utils.ExtractFloat(e, "value")
		cc.MinOrder, _ = utils.ExtractFloat(e, "min_order")
		cc.Expires, _ = utils.ExtractString(e, "expires")
		out = append(out, cc)
	}
	return out
}

func extractPriceFeedConfig(data map[string]any, pf *PriceFeedConfig) {
	if val, ok := utils.ExtractInt64(data, "timeout_seconds"); ok {
		pf.TimeoutSeconds = val
	}
	if val, ok := utils.ExtractString(data, "user_agent"); ok {
		pf.UserAgent = val
	}
	if val, ok := utils.ExtractInt64(data, "failure_threshold"); ok {
		pf.FailureThreshold = val
	}
	if val, ok := utils.ExtractInt64(data, "success_threshold"); ok {
		pf.SuccessThreshold = val
	}
	if val, ok := utils.ExtractInt64(data, "open_timeout_seconds"); ok {
		pf.OpenTimeoutSeconds = val
	}
	if sites, ok := utils.ExtractSection(data, "sites"); ok {
		for host, raw := range sites {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			var sel pricefeed.Selectors
			sel.Price, _ = utils.ExtractString(entry, "price")
			sel.Original, _ = utils.ExtractString(entry, "original")
			pf.Sites[host] = sel
		}
	}
}
