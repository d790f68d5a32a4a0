package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application level configuration loaded from an optional YAML
// file, environment variables and flags, in increasing order of precedence.
type Config struct {
	RunAddress   string `yaml:"run_address"`
	DatabaseURI  string `yaml:"database_uri"`
	PublicURL    string `yaml:"public_url"`
	CheckoutPath string `yaml:"checkout_path"`
	CleanURLs    bool   `yaml:"clean_urls"`

	APIURL        string        `yaml:"api_url"`
	TestAPIURL    string        `yaml:"test_api_url"`
	APIKey        string        `yaml:"api_key"`
	APIKeyTestnet string        `yaml:"api_key_testnet"`
	TestMode      bool          `yaml:"test_mode"`
	APITimeout    time.Duration `yaml:"api_timeout"`

	InsecureSkipSignature bool          `yaml:"insecure_skip_signature"`
	ReplayWindow          time.Duration `yaml:"replay_window"`
	EventDedupTTL         time.Duration `yaml:"event_dedup_ttl"`
	WebhookRateLimit      int           `yaml:"webhook_rate_limit"`
	TrustedProxies        []string      `yaml:"trusted_proxies"`
	AutoConfigureWebhook  bool          `yaml:"auto_configure_webhook"`

	TokenCacheTTL time.Duration `yaml:"token_cache_ttl"`
	RedisURL      string        `yaml:"redis_url"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`

	AuthStrategy string        `yaml:"auth_strategy"`
	JWTSecret    string        `yaml:"jwt_secret"`
	SessionTTL   time.Duration `yaml:"session_ttl"`

	InvoiceSyncInterval time.Duration `yaml:"invoice_sync_interval"`
	InvoiceSyncAge      time.Duration `yaml:"invoice_sync_age"`
	WorkerPoolSize      int           `yaml:"worker_pool_size"`
	MaxOrdersBatch      int           `yaml:"poll_batch_size"`
	ShutdownTimeout     time.Duration `yaml:"shutdown_timeout"`
	LogLevel            string        `yaml:"log_level"`
}

const (
	AuthStrategyHMAC = "hmac"
	AuthStrategyJWT  = "jwt"

	// WebhookPath is the route the processor delivers events to.
	WebhookPath = "/api/lightpay/webhook"
)

const (
	defaultRunAddress       = ":8080"
	defaultCheckoutPath     = "/checkout"
	defaultAPIURL           = "https://api.golightpay.com"
	defaultTestAPIURL       = "https://testapi.golightpay.com"
	defaultAPITimeout       = 30 * time.Second
	defaultWebhookRateLimit = 20
	defaultTokenCacheTTL    = 24 * time.Hour
	defaultJWTSecret        = "change-me-in-production"
	defaultSessionTTL       = 24 * time.Hour
	defaultInvoiceSyncAge   = 10 * time.Minute
	defaultWorkerPoolSize   = 4
	defaultShutdownTimeout  = 10 * time.Second
	defaultMaxOrdersBatch   = 32
	defaultLogLevel         = "info"
)

// Load parses configuration from flags, environment variables and CONFIG_FILE.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func defaults() *Config {
	return &Config{
		RunAddress:           defaultRunAddress,
		CheckoutPath:         defaultCheckoutPath,
		CleanURLs:            true,
		APIURL:               defaultAPIURL,
		TestAPIURL:           defaultTestAPIURL,
		APITimeout:           defaultAPITimeout,
		WebhookRateLimit:     defaultWebhookRateLimit,
		AutoConfigureWebhook: true,
		TokenCacheTTL:        defaultTokenCacheTTL,
		AuthStrategy:         AuthStrategyHMAC,
		JWTSecret:            defaultJWTSecret,
		SessionTTL:           defaultSessionTTL,
		InvoiceSyncAge:       defaultInvoiceSyncAge,
		WorkerPoolSize:       defaultWorkerPoolSize,
		ShutdownTimeout:      defaultShutdownTimeout,
		MaxOrdersBatch:       defaultMaxOrdersBatch,
		LogLevel:             defaultLogLevel,
	}
}

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := defaults()

	if path := configPath(args, lookup); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg, lookup)

	fs := flag.NewFlagSet("golightpay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFile         string
		syncIntervalStr    = cfg.InvoiceSyncInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&configFile, "config", "", "Path to YAML configuration file")
	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "Public storefront base URL")
	fs.StringVar(&cfg.CheckoutPath, "checkout-path", cfg.CheckoutPath, "Checkout page path")
	fs.BoolVar(&cfg.CleanURLs, "clean-urls", cfg.CleanURLs, "Use clean-path payment page URLs")
	fs.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "LightPay production API base URL")
	fs.BoolVar(&cfg.TestMode, "test-mode", cfg.TestMode, "Use the LightPay testnet key and API")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&syncIntervalStr, "sync-interval", syncIntervalStr, "Interval between invoice sync runs, 0 disables")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent invoice sync workers")
	fs.IntVar(&cfg.MaxOrdersBatch, "poll-batch", cfg.MaxOrdersBatch, "Maximum orders per sync batch")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.InvoiceSyncInterval, err = time.ParseDuration(syncIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sync interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	secrets := []struct {
		env    string
		target *string
	}{
		{"LIGHTPAY_API_KEY_FILE", &cfg.APIKey},
		{"LIGHTPAY_API_KEY_TESTNET_FILE", &cfg.APIKeyTestnet},
		{"JWT_SECRET_FILE", &cfg.JWTSecret},
	}
	for _, s := range secrets {
		if file, ok := lookup(s.env); ok && file != "" {
			content, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", strings.ToLower(s.env), err)
			}
			*s.target = strings.TrimSpace(string(content))
		}
	}

	normalize(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configPath returns the YAML file named by -config or CONFIG_FILE.
func configPath(args []string, lookup envLookup) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return getString(lookup, "CONFIG_FILE", "")
}

func applyEnv(cfg *Config, lookup envLookup) {
	cfg.RunAddress = getString(lookup, "RUN_ADDRESS", cfg.RunAddress)
	cfg.DatabaseURI = getString(lookup, "DATABASE_URI", cfg.DatabaseURI)
	cfg.PublicURL = getString(lookup, "PUBLIC_URL", cfg.PublicURL)
	cfg.CheckoutPath = getString(lookup, "CHECKOUT_PATH", cfg.CheckoutPath)
	cfg.CleanURLs = getBool(lookup, "CLEAN_URLS", cfg.CleanURLs)

	cfg.APIURL = getString(lookup, "LIGHTPAY_API_URL", cfg.APIURL)
	cfg.TestAPIURL = getString(lookup, "LIGHTPAY_TEST_API_URL", cfg.TestAPIURL)
	cfg.APIKey = getString(lookup, "LIGHTPAY_API_KEY", cfg.APIKey)
	cfg.APIKeyTestnet = getString(lookup, "LIGHTPAY_API_KEY_TESTNET", cfg.APIKeyTestnet)
	cfg.TestMode = getBool(lookup, "LIGHTPAY_TEST_MODE", cfg.TestMode)
	cfg.APITimeout = getDuration(lookup, "LIGHTPAY_TIMEOUT", cfg.APITimeout)

	cfg.InsecureSkipSignature = getBool(lookup, "WEBHOOK_INSECURE_SKIP_SIGNATURE", cfg.InsecureSkipSignature)
	cfg.ReplayWindow = getDuration(lookup, "WEBHOOK_REPLAY_WINDOW", cfg.ReplayWindow)
	cfg.EventDedupTTL = getDuration(lookup, "WEBHOOK_DEDUP_TTL", cfg.EventDedupTTL)
	cfg.WebhookRateLimit = getInt(lookup, "WEBHOOK_RATE_LIMIT", cfg.WebhookRateLimit)
	cfg.TrustedProxies = getList(lookup, "TRUSTED_PROXIES", cfg.TrustedProxies)
	cfg.AutoConfigureWebhook = getBool(lookup, "LIGHTPAY_AUTO_WEBHOOK", cfg.AutoConfigureWebhook)

	cfg.TokenCacheTTL = getDuration(lookup, "TOKEN_CACHE_TTL", cfg.TokenCacheTTL)
	cfg.RedisURL = getString(lookup, "REDIS_URL", cfg.RedisURL)
	cfg.RedisPassword = getString(lookup, "REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getInt(lookup, "REDIS_DB", cfg.RedisDB)

	cfg.AuthStrategy = getString(lookup, "AUTH_STRATEGY", cfg.AuthStrategy)
	cfg.JWTSecret = getString(lookup, "JWT_SECRET", cfg.JWTSecret)
	cfg.SessionTTL = getDuration(lookup, "SESSION_TTL", cfg.SessionTTL)

	cfg.InvoiceSyncInterval = getDuration(lookup, "INVOICE_SYNC_INTERVAL", cfg.InvoiceSyncInterval)
	cfg.InvoiceSyncAge = getDuration(lookup, "INVOICE_SYNC_AGE", cfg.InvoiceSyncAge)
	cfg.WorkerPoolSize = getInt(lookup, "WORKER_POOL_SIZE", cfg.WorkerPoolSize)
	cfg.MaxOrdersBatch = getInt(lookup, "POLL_BATCH_SIZE", cfg.MaxOrdersBatch)
	cfg.ShutdownTimeout = getDuration(lookup, "SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.LogLevel = getString(lookup, "LOG_LEVEL", cfg.LogLevel)
}

func normalize(cfg *Config) {
	cfg.PublicURL = strings.TrimRight(strings.TrimSpace(cfg.PublicURL), "/")
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.TestAPIURL = strings.TrimRight(cfg.TestAPIURL, "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.APIKeyTestnet = strings.TrimSpace(cfg.APIKeyTestnet)
	cfg.AuthStrategy = strings.ToLower(strings.TrimSpace(cfg.AuthStrategy))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	cfg.CheckoutPath = "/" + strings.Trim(cfg.CheckoutPath, "/")
	if cfg.CheckoutPath == "/" {
		cfg.CheckoutPath = defaultCheckoutPath
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.MaxOrdersBatch <= 0 {
		cfg.MaxOrdersBatch = defaultMaxOrdersBatch
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.APITimeout <= 0 {
		cfg.APITimeout = defaultAPITimeout
	}

	if cfg.TokenCacheTTL <= 0 {
		cfg.TokenCacheTTL = defaultTokenCacheTTL
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	if cfg.InvoiceSyncAge <= 0 {
		cfg.InvoiceSyncAge = defaultInvoiceSyncAge
	}

	if cfg.WebhookRateLimit < 0 {
		cfg.WebhookRateLimit = 0
	}

	if cfg.InvoiceSyncInterval < 0 {
		cfg.InvoiceSyncInterval = 0
	}
}

func validate(cfg *Config) error {
	if cfg.DatabaseURI == "" {
		return fmt.Errorf("database URI must be provided")
	}

	if cfg.PublicURL == "" {
		return fmt.Errorf("public URL must be provided")
	}
	if u, err := url.Parse(cfg.PublicURL); err != nil || !u.IsAbs() {
		return fmt.Errorf("public URL must be absolute: %q", cfg.PublicURL)
	}

	for _, proxy := range cfg.TrustedProxies {
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("trusted proxy must be an IP or CIDR: %q", proxy)
		}
	}

	switch cfg.AuthStrategy {
	case AuthStrategyHMAC, AuthStrategyJWT:
	default:
		return fmt.Errorf("unknown auth strategy %q", cfg.AuthStrategy)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}

	return nil
}

// ActiveAPIKey returns the API key for the selected environment.
func (c *Config) ActiveAPIKey() string {
	if c.TestMode {
		return c.APIKeyTestnet
	}
	return c.APIKey
}

// ActiveAPIURL returns the processor base URL for the selected environment.
func (c *Config) ActiveAPIURL() string {
	if c.TestMode {
		return c.TestAPIURL
	}
	return c.APIURL
}

// CheckoutURL is the absolute storefront checkout address.
func (c *Config) CheckoutURL() string {
	return c.PublicURL + c.CheckoutPath
}

// WebhookURL is the absolute address the processor should deliver events to.
func (c *Config) WebhookURL() string {
	return c.PublicURL + WebhookPath
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

// getList splits a comma separated value, dropping blanks.
func getList(lookup envLookup, key string, def []string) []string {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
