package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Version is reported by the health and config endpoints.
const Version = "2.0.0"

type RateLimitPolicy struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

type Config struct {
	// Server
	Port         string
	Env          string
	DevMode      bool
	MaxBodyBytes int64

	// Upstream (VAPI)
	VapiAPIKey       string
	VapiAssistantID  string
	VapiPublicAPIKey string
	VapiBaseURL      string
	VapiTimeout      time.Duration

	// CORS
	AllowedOrigins []string

	// Client identity
	TrustProxyHeaders bool

	// Rate limiting
	ChatRateLimit   RateLimitPolicy
	ConfigRateLimit RateLimitPolicy
	SweepInterval   time.Duration

	// Observability
	MetricsEnabled bool
	LogLevel       string
	LogFormat      string
}

// fileConfig is the optional YAML overlay. Secrets are env-only.
type fileConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	Upstream       struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"upstream"`
	RateLimits struct {
		Chat   *RateLimitPolicy `yaml:"chat"`
		Config *RateLimitPolicy `yaml:"config"`
		Sweep  time.Duration    `yaml:"sweep"`
	} `yaml:"rate_limits"`
}

func defaults() *Config {
	return &Config{
		Port:            "3001",
		Env:             "production",
		MaxBodyBytes:    1 << 20,
		VapiBaseURL:     "https://api.vapi.ai",
		VapiTimeout:     30 * time.Second,
		AllowedOrigins:  []string{"http://localhost:3000"},
		ChatRateLimit:   RateLimitPolicy{Limit: 20, Window: time.Minute},
		ConfigRateLimit: RateLimitPolicy{Limit: 50, Window: 5 * time.Minute},
		SweepInterval:   time.Minute,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Load reads configuration from defaults, the optional PROXY_CONFIG_FILE and
// the environment, in increasing precedence. Missing upstream credentials are
// reported as an error; the caller must not start serving.
func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("PROXY_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.DevMode = cfg.Env == "development"
	cfg.MaxBodyBytes = int64(getEnvAsIntOrDefault("MAX_BODY_BYTES", int(cfg.MaxBodyBytes)))

	cfg.VapiAPIKey = os.Getenv("VAPI_API_KEY")
	cfg.VapiAssistantID = os.Getenv("VAPI_ASSISTANT_ID")
	cfg.VapiPublicAPIKey = os.Getenv("VAPI_PUBLIC_API_KEY")
	cfg.VapiBaseURL = strings.TrimRight(getEnvOrDefault("VAPI_BASE_URL", cfg.VapiBaseURL), "/")
	cfg.VapiTimeout = getEnvAsDurationOrDefault("VAPI_TIMEOUT", cfg.VapiTimeout)

	cfg.AllowedOrigins = getEnvAsListOrDefault("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.TrustProxyHeaders = getEnvAsBoolOrDefault("TRUST_PROXY_HEADERS", cfg.TrustProxyHeaders)

	cfg.ChatRateLimit.Limit = getEnvAsIntOrDefault("CHAT_RATE_LIMIT", cfg.ChatRateLimit.Limit)
	cfg.ChatRateLimit.Window = getEnvAsDurationOrDefault("CHAT_RATE_WINDOW", cfg.ChatRateLimit.Window)
	cfg.ConfigRateLimit.Limit = getEnvAsIntOrDefault("CONFIG_RATE_LIMIT", cfg.ConfigRateLimit.Limit)
	cfg.ConfigRateLimit.Window = getEnvAsDurationOrDefault("CONFIG_RATE_WINDOW", cfg.ConfigRateLimit.Window)
	cfg.SweepInterval = getEnvAsDurationOrDefault("RATE_LIMIT_SWEEP", cfg.SweepInterval)

	cfg.MetricsEnabled = getEnvAsBoolOrDefault("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required credentials and policy bounds.
func (c *Config) Validate() error {
	var missing []string
	if c.VapiAPIKey == "" {
		missing = append(missing, "VAPI_API_KEY")
	}
	if c.VapiAssistantID == "" {
		missing = append(missing, "VAPI_ASSISTANT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var errs []error
	for name, p := range map[string]RateLimitPolicy{"chat": c.ChatRateLimit, "config": c.ConfigRateLimit} {
		if p.Limit <= 0 {
			errs = append(errs, fmt.Errorf("%s rate limit must be positive, got %d", name, p.Limit))
		}
		if p.Window <= 0 {
			errs = append(errs, fmt.Errorf("%s rate window must be positive, got %s", name, p.Window))
		}
	}
	if c.VapiTimeout <= 0 {
		errs = append(errs, fmt.Errorf("upstream timeout must be positive, got %s", c.VapiTimeout))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes))
	}
	return errors.Join(errs...)
}

// PermissiveCORS reports whether the allow-list contains the wildcard origin.
func (c *Config) PermissiveCORS() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// merge overrides each field that the overlay sets, so a file may change
// only the limit or only the window of a policy.
func (p *RateLimitPolicy) merge(o *RateLimitPolicy) {
	if o == nil {
		return
	}
	if o.Limit != 0 {
		p.Limit = o.Limit
	}
	if o.Window != 0 {
		p.Window = o.Window
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if len(fc.AllowedOrigins) > 0 {
		c.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.Upstream.BaseURL != "" {
		c.VapiBaseURL = fc.Upstream.BaseURL
	}
	if fc.Upstream.Timeout > 0 {
		c.VapiTimeout = fc.Upstream.Timeout
	}
	c.ChatRateLimit.merge(fc.RateLimits.Chat)
	c.ConfigRateLimit.merge(fc.RateLimits.Config)
	if fc.RateLimits.Sweep > 0 {
		c.SweepInterval = fc.RateLimits.Sweep
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
