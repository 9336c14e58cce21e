package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the scanner
// ⭐ SSOT: all environment variables are read here only
type Config struct {
	// Server (api command)
	Port string
	Env  string // development, staging, production

	// Database (optional, watchlist table)
	Database DatabaseConfig

	// Redis (optional, upstream cache + shared rate limit)
	Redis RedisConfig

	// External APIs
	GoAPI       GoAPIConfig
	TradingView TradingViewConfig
	Telegram    TelegramConfig

	// Scan engine
	Scan ScanConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// GoAPIConfig holds the broker summary / price history API configuration
type GoAPIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// TradingViewConfig holds the market screener configuration
type TradingViewConfig struct {
	BaseURL string
	Market  string // indonesia
}

// TelegramConfig holds the notification bot configuration
type TelegramConfig struct {
	BotToken string
	ChatID   string
	BaseURL  string
	MaxChunk int
}

// Enabled reports whether both token and chat id are configured
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// ScanConfig holds the scan engine configuration
type ScanConfig struct {
	UTCOffsetHours    int           // WIB = +7
	MorningCutoffHour int           // local hour separating Morning / Afternoon
	LookbackDays      int           // VWAP and momentum lookback window
	Throttle          time.Duration // minimum delay between upstream calls
	Workers           int           // 1 = strictly sequential
	MomentumLookback  bool          // fetch lookback broker flow for rank bonus
	StrategyPath      string        // YAML strategy file, empty = built-in default
	WatchlistPath     string        // plain-text watchlist, empty = none
	MorningCron       string        // cron expression with seconds, market time zone
	AfternoonCron     string
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External APIs
		GoAPI: GoAPIConfig{
			APIKey:  getEnv("GOAPI_KEY", ""),
			BaseURL: getEnv("GOAPI_BASE_URL", "https://api.goapi.io"),
			Timeout: getEnvAsDuration("GOAPI_TIMEOUT", "10s"),
		},

		TradingView: TradingViewConfig{
			BaseURL: getEnv("TRADINGVIEW_BASE_URL", "https://scanner.tradingview.com"),
			Market:  getEnv("TRADINGVIEW_MARKET", "indonesia"),
		},

		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
			BaseURL:  getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),
			MaxChunk: getEnvAsInt("TELEGRAM_MAX_CHUNK", 4000),
		},

		Scan: ScanConfig{
			UTCOffsetHours:    getEnvAsInt("SCAN_UTC_OFFSET_HOURS", 7),
			MorningCutoffHour: getEnvAsInt("SCAN_MORNING_CUTOFF_HOUR", 12),
			LookbackDays:      getEnvAsInt("SCAN_LOOKBACK_DAYS", 90),
			Throttle:          getEnvAsDuration("SCAN_THROTTLE", "300ms"),
			Workers:           getEnvAsInt("SCAN_WORKERS", 1),
			MomentumLookback:  getEnvAsBool("SCAN_MOMENTUM_LOOKBACK", true),
			StrategyPath:      getEnv("SCAN_STRATEGY_PATH", ""),
			WatchlistPath:     getEnv("SCAN_WATCHLIST_PATH", ""),
			MorningCron:       getEnv("SCAN_MORNING_CRON", "0 30 8 * * 1-5"),
			AfternoonCron:     getEnv("SCAN_AFTERNOON_CRON", "0 30 16 * * 1-5"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scan.UTCOffsetHours < -12 || c.Scan.UTCOffsetHours > 14 {
		return fmt.Errorf("SCAN_UTC_OFFSET_HOURS must be within [-12, 14]")
	}

	if c.Scan.MorningCutoffHour < 0 || c.Scan.MorningCutoffHour > 23 {
		return fmt.Errorf("SCAN_MORNING_CUTOFF_HOUR must be within [0, 23]")
	}

	if c.Scan.LookbackDays <= 0 {
		return fmt.Errorf("SCAN_LOOKBACK_DAYS must be > 0")
	}

	if c.Scan.Throttle < 0 {
		return fmt.Errorf("SCAN_THROTTLE must not be negative")
	}

	if c.Scan.Workers < 1 {
		return fmt.Errorf("SCAN_WORKERS must be >= 1")
	}

	// per-call timeout bounds worst-case run length
	if c.GoAPI.Timeout <= 0 {
		return fmt.Errorf("GOAPI_TIMEOUT must be > 0")
	}

	if c.Telegram.MaxChunk <= 0 {
		return fmt.Errorf("TELEGRAM_MAX_CHUNK must be > 0")
	}

	return nil
}

// RequireGoAPIKey returns an error when the broker summary API key is missing
func (c *Config) RequireGoAPIKey() error {
	if c.GoAPI.APIKey == "" {
		return fmt.Errorf("GOAPI_KEY is required")
	}
	return nil
}

// Location returns the fixed-offset market time zone
func (c *Config) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.Scan.UTCOffsetHours), c.Scan.UTCOffsetHours*3600)
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
