package common

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Catalog  CatalogConfig
	LLM      LLMConfig
	Distance DistanceConfig
	Pricing  PricingConfig
	LogLevel string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr     string
	QuoteTimeout time.Duration
	HistorySize  int
}

// CatalogConfig holds price list ingestion configuration
type CatalogConfig struct {
	SourcesPath      string
	FetchTimeout     time.Duration
	FetchConcurrency int
	ReloadInterval   time.Duration
	ReloadTimeout    time.Duration
	Watch            bool
	WatchDebounce    time.Duration
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// DistanceConfig holds distance lookup configuration
type DistanceConfig struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	CacheDriver string // memory, redis or none
	CacheTTL    time.Duration
	RedisAddr   string
	RedisDB     int
}

// PricingConfig is the quote policy. It can be overridden by a YAML file (PRICING_CONFIG).
type PricingConfig struct {
	Origin             string          `yaml:"origin"`
	TransportRatePerKM float64         `yaml:"transport_rate_per_km"`
	MarkupTiers        []int           `yaml:"markup_tiers"`
	MarkupExemptRegexp string          `yaml:"markup_exempt_pattern"`
	DefaultHeights     []DefaultHeight `yaml:"default_heights"`
	RowLabelRatio      float64         `yaml:"row_label_ratio"`
	ColumnLabelRatio   float64         `yaml:"column_label_ratio"`
}

// DefaultHeight gives products whose name matches Pattern a fixed height when none was requested.
type DefaultHeight struct {
	Pattern  string `yaml:"pattern"`
	HeightMM int    `yaml:"height_mm"`
}

// DefaultPricing returns the built-in quote policy.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		Origin:             "Praha",
		TransportRatePerKM: 15,
		MarkupTiers:        []int{12, 13, 14, 15},
		MarkupExemptRegexp: `(?i)screen`,
		DefaultHeights:     []DefaultHeight{{Pattern: `(?i)screen`, HeightMM: 2500}},
		RowLabelRatio:      0.6,
		ColumnLabelRatio:   0.6,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			GRPCAddr:     getEnv("GRPC_ADDR", ":8080"),
			QuoteTimeout: getEnvAsDuration("QUOTE_TIMEOUT", 90*time.Second),
			HistorySize:  getEnvAsInt("HISTORY_SIZE", 200),
		},
		Catalog: CatalogConfig{
			SourcesPath:      getEnv("CATALOG_SOURCES", "./ceniky.txt"),
			FetchTimeout:     getEnvAsDuration("CATALOG_FETCH_TIMEOUT", 20*time.Second),
			FetchConcurrency: getEnvAsInt("CATALOG_FETCH_CONCURRENCY", 4),
			ReloadInterval:   getEnvAsDuration("CATALOG_RELOAD_INTERVAL", 0),
			ReloadTimeout:    getEnvAsDuration("CATALOG_RELOAD_TIMEOUT", 2*time.Minute),
			Watch:            getEnvAsBool("CATALOG_WATCH", true),
			WatchDebounce:    getEnvAsDuration("CATALOG_WATCH_DEBOUNCE", 500*time.Millisecond),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Distance: DistanceConfig{
			APIKey:      getEnv("GOOGLE_MAPS_API_KEY", ""),
			BaseURL:     getEnv("DISTANCE_BASE_URL", ""),
			Timeout:     getEnvAsDuration("DISTANCE_TIMEOUT", 10*time.Second),
			CacheDriver: strings.ToLower(getEnv("DISTANCE_CACHE", "memory")),
			CacheTTL:    getEnvAsDuration("DISTANCE_CACHE_TTL", 24*time.Hour),
			RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
			RedisDB:     getEnvAsInt("REDIS_DB", 0),
		},
		Pricing:  DefaultPricing(),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	if origin := os.Getenv("TRANSPORT_ORIGIN"); origin != "" {
		cfg.Pricing.Origin = origin
	}
	if v := os.Getenv("TRANSPORT_RATE_PER_KM"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, NewAppError(CodeConfig, "TRANSPORT_RATE_PER_KM is not a number", ErrInvalidInput)
		}
		cfg.Pricing.TransportRatePerKM = rate
	}
	if path := os.Getenv("PRICING_CONFIG"); path != "" {
		if err := cfg.Pricing.MergeFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// MergeFile overlays the YAML file at path onto p. Keys absent from the file keep their value.
func (p *PricingConfig) MergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return NewAppError(CodeConfig, "read pricing config", err)
	}
	return p.MergeYAML(b)
}

// MergeYAML overlays a YAML document onto p.
func (p *PricingConfig) MergeYAML(doc []byte) error {
	if err := yaml.Unmarshal(doc, p); err != nil {
		return NewAppError(CodeConfig, "decode pricing config", err)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Catalog.SourcesPath) == "" {
		return NewAppError(CodeConfig, "CATALOG_SOURCES is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError(CodeConfig, "GRPC_ADDR is required", ErrInvalidInput)
	}
	switch c.Distance.CacheDriver {
	case "memory", "redis", "none":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("DISTANCE_CACHE %q must be memory, redis or none", c.Distance.CacheDriver), ErrInvalidInput)
	}
	return c.Pricing.Validate()
}

// Validate checks the pricing policy.
func (p PricingConfig) Validate() error {
	if p.TransportRatePerKM <= 0 {
		return NewAppError(CodeConfig, "transport rate must be positive", ErrInvalidInput)
	}
	for _, tier := range p.MarkupTiers {
		if tier < 0 {
			return NewAppError(CodeConfig, fmt.Sprintf("markup tier %d is negative", tier), ErrInvalidInput)
		}
	}
	if p.MarkupExemptRegexp != "" {
		if _, err := regexp.Compile(p.MarkupExemptRegexp); err != nil {
			return NewAppError(CodeConfig, "markup_exempt_pattern does not compile", err)
		}
	}
	for _, dh := range p.DefaultHeights {
		if _, err := regexp.Compile(dh.Pattern); err != nil {
			return NewAppError(CodeConfig, fmt.Sprintf("default height pattern %q does not compile", dh.Pattern), err)
		}
		if dh.HeightMM <= 0 {
			return NewAppError(CodeConfig, fmt.Sprintf("default height for %q must be positive", dh.Pattern), ErrInvalidInput)
		}
	}
	if p.RowLabelRatio <= 0 || p.RowLabelRatio > 1 || p.ColumnLabelRatio <= 0 || p.ColumnLabelRatio > 1 {
		return NewAppError(CodeConfig, "label ratios must be within (0, 1]", ErrInvalidInput)
	}
	return nil
}
