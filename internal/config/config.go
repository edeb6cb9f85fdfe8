// Package config defines analyzer configuration options.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the analysis service.
type Config struct {
	// === Basic Settings ===

	// User-Agent string sent with every HTTP and browser request
	UserAgent string `mapstructure:"user_agent"`

	// Request timeout for direct HTTP fetches
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`

	// Timeout for lightweight probes (broken links, performance)
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`

	// Maximum number of redirects to follow
	MaxRedirects int `mapstructure:"max_redirects"`

	// Maximum response body size in bytes
	MaxBodySize int64 `mapstructure:"max_body_size"`

	// === Browser Rendering ===

	// Number of headless browser instances in the pool
	BrowserPoolSize int `mapstructure:"browser_pool_size"`

	// Navigation timeout for browser rendering
	BrowserTimeout time.Duration `mapstructure:"browser_timeout"`

	// Timeout when waiting for a selector to appear
	SelectorTimeout time.Duration `mapstructure:"selector_timeout"`

	// Settle delay after body readiness, for late script execution
	RenderSettleDelay time.Duration `mapstructure:"render_settle_delay"`

	// Chromium executable path (empty = discovered)
	ChromiumPath string `mapstructure:"chromium_path"`

	// === Concurrency & Limits ===

	// Maximum simultaneous broken-link probes
	MaxConcurrentProbes int `mapstructure:"max_concurrent_probes"`

	// Maximum number of links submitted to the broken-link checker
	MaxLinksToCheck int `mapstructure:"max_links_to_check"`

	// Maximum geo points queried per map provider
	MaxGeoPoints int `mapstructure:"max_geo_points"`

	// Delay between consecutive map-provider queries
	RequestDelay time.Duration `mapstructure:"request_delay"`

	// === Ranking Thresholds ===

	// Average rank at or below which the tier is green
	RankGreenThreshold float64 `mapstructure:"rank_green_threshold"`

	// Average rank at or below which the tier is yellow
	RankYellowThreshold float64 `mapstructure:"rank_yellow_threshold"`

	// === Content Thresholds ===

	TitleMinLength    int `mapstructure:"title_min_length"`
	TitleMaxLength    int `mapstructure:"title_max_length"`
	MetaDescMinLength int `mapstructure:"meta_desc_min_length"`
	MetaDescMaxLength int `mapstructure:"meta_desc_max_length"`

	// TTFB above which a server-speed recommendation is emitted (ms)
	TTFBThresholdMS int `mapstructure:"ttfb_threshold_ms"`

	// === Safety ===

	// CIDR networks that the URL validator always rejects
	DeniedNetworks []string `mapstructure:"denied_networks"`

	// === External Services ===

	// Bing Maps Local Search API key (empty = browser fallback)
	BingMapsAPIKey string `mapstructure:"bing_maps_api_key"`

	// Contact identifier sent to the geocoding service
	GeocodingUserAgent string `mapstructure:"geocoding_user_agent"`

	// === Feature Flags ===

	EnableGoogleMapsCheck bool `mapstructure:"enable_google_maps_check"`
	EnableBingMapsCheck   bool `mapstructure:"enable_bing_maps_check"`
	EnablePerformance     bool `mapstructure:"enable_performance"`
	EnableBrokenLinks     bool `mapstructure:"enable_broken_links"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",

		FetchTimeout: 20 * time.Second,
		ProbeTimeout: 5 * time.Second,
		MaxRedirects: 10,
		MaxBodySize:  10 * 1024 * 1024, // 10MB

		BrowserPoolSize:   3,
		BrowserTimeout:    20 * time.Second,
		SelectorTimeout:   10 * time.Second,
		RenderSettleDelay: time.Second,

		MaxConcurrentProbes: 5,
		MaxLinksToCheck:     20,
		MaxGeoPoints:        5,
		RequestDelay:        2 * time.Second,

		RankGreenThreshold:  2.0,
		RankYellowThreshold: 3.0,

		TitleMinLength:    30,
		TitleMaxLength:    70,
		MetaDescMinLength: 100,
		MetaDescMaxLength: 160,
		TTFBThresholdMS:   500,

		DeniedNetworks: []string{
			"169.254.169.254/32", // cloud metadata service
			"127.0.0.0/8",        // loopback
			"10.0.0.0/8",         // private class A
			"172.16.0.0/12",      // private class B
			"192.168.0.0/16",     // private class C
			"169.254.0.0/16",     // link-local
			"::1/128",            // IPv6 loopback
			"fc00::/7",           // IPv6 private
			"fe80::/10",          // IPv6 link-local
		},

		GeocodingUserAgent: "sitelens-analyzer",

		EnableGoogleMapsCheck: true,
		EnableBingMapsCheck:   true,
		EnablePerformance:     true,
		EnableBrokenLinks:     true,
	}
}

// Load builds a Config from defaults overlaid with SITELENS_* environment
// variables (e.g. SITELENS_BROWSER_POOL_SIZE=5).
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SITELENS")
	v.AutomaticEnv()

	cfg := DefaultConfig()

	bindDefaults(v, cfg)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// bindDefaults registers every key so AutomaticEnv can see it.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("user_agent", cfg.UserAgent)
	v.SetDefault("fetch_timeout", cfg.FetchTimeout)
	v.SetDefault("probe_timeout", cfg.ProbeTimeout)
	v.SetDefault("max_redirects", cfg.MaxRedirects)
	v.SetDefault("max_body_size", cfg.MaxBodySize)
	v.SetDefault("browser_pool_size", cfg.BrowserPoolSize)
	v.SetDefault("browser_timeout", cfg.BrowserTimeout)
	v.SetDefault("selector_timeout", cfg.SelectorTimeout)
	v.SetDefault("render_settle_delay", cfg.RenderSettleDelay)
	v.SetDefault("chromium_path", cfg.ChromiumPath)
	v.SetDefault("max_concurrent_probes", cfg.MaxConcurrentProbes)
	v.SetDefault("max_links_to_check", cfg.MaxLinksToCheck)
	v.SetDefault("max_geo_points", cfg.MaxGeoPoints)
	v.SetDefault("request_delay", cfg.RequestDelay)
	v.SetDefault("rank_green_threshold", cfg.RankGreenThreshold)
	v.SetDefault("rank_yellow_threshold", cfg.RankYellowThreshold)
	v.SetDefault("title_min_length", cfg.TitleMinLength)
	v.SetDefault("title_max_length", cfg.TitleMaxLength)
	v.SetDefault("meta_desc_min_length", cfg.MetaDescMinLength)
	v.SetDefault("meta_desc_max_length", cfg.MetaDescMaxLength)
	v.SetDefault("ttfb_threshold_ms", cfg.TTFBThresholdMS)
	v.SetDefault("denied_networks", cfg.DeniedNetworks)
	v.SetDefault("bing_maps_api_key", cfg.BingMapsAPIKey)
	v.SetDefault("geocoding_user_agent", cfg.GeocodingUserAgent)
	v.SetDefault("enable_google_maps_check", cfg.EnableGoogleMapsCheck)
	v.SetDefault("enable_bing_maps_check", cfg.EnableBingMapsCheck)
	v.SetDefault("enable_performance", cfg.EnablePerformance)
	v.SetDefault("enable_broken_links", cfg.EnableBrokenLinks)
}

// Validate checks if the configuration is valid, clamping what it can.
func (c *Config) Validate() error {
	if c.BrowserPoolSize < 1 {
		c.BrowserPoolSize = 1
	}
	if c.MaxConcurrentProbes < 1 {
		c.MaxConcurrentProbes = 1
	}
	if c.MaxLinksToCheck < 0 {
		c.MaxLinksToCheck = 0
	}
	if c.MaxGeoPoints < 1 {
		c.MaxGeoPoints = 1
	}
	if c.FetchTimeout < time.Second {
		c.FetchTimeout = time.Second
	}
	if c.BrowserTimeout < time.Second {
		c.BrowserTimeout = time.Second
	}
	if c.MaxRedirects < 0 {
		c.MaxRedirects = 0
	}
	if c.RankGreenThreshold <= 0 || c.RankYellowThreshold < c.RankGreenThreshold {
		return fmt.Errorf("rank thresholds must satisfy 0 < green <= yellow (got %.1f, %.1f)",
			c.RankGreenThreshold, c.RankYellowThreshold)
	}
	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.DeniedNetworks = make([]string, len(c.DeniedNetworks))
	copy(clone.DeniedNetworks, c.DeniedNetworks)
	return &clone
}
