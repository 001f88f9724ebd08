package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Env      string
	HTTPAddr string

	LogLevel  string
	LogFormat string

	StorageDSN           string
	SheetName            string
	SheetLayout          string
	RestrictionsOverride string

	CORSOrigins []string
	BodyLimit   string

	Redis     RedisConfig
	RateLimit RateLimitConfig

	AMQPURL   string
	AMQPQueue string

	WhatsAppEnabled     bool
	WhatsAppDataDir     string
	WhatsAppCountryCode string
	ConsoleEnabled      bool

	Wedding WeddingConfig
}

// WeddingConfig is the content of invitation and greeting messages
type WeddingConfig struct {
	FormURL   string
	Date      string
	Location  string
	BrideName string
	GroomName string
}

// RedisConfig points at the Redis server backing the rate limiter.
// An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig describes the token bucket applied to the RSVP endpoints
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// LoadConfig loads configuration from environment variables or defaults.
// Variables from a .env file in the working directory are loaded first and
// never override the real environment.
func LoadConfig() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only
func FromEnv() *Config {
	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		StorageDSN:           getEnv("STORAGE_DSN", "sqlite://data/rsvp.db"),
		SheetName:            getEnv("SHEET_NAME", "Sheet1"),
		SheetLayout:          getEnv("SHEET_LAYOUT", "checkbox"),
		RestrictionsOverride: os.Getenv("RESTRICTIONS_OVERRIDE"),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		BodyLimit:   getEnv("BODY_LIMIT", "64K"),

		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:        envBool("RATE_LIMIT_ENABLED", true),
			Capacity:       envInt("RATE_LIMIT_CAPACITY", 20),
			RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 3*time.Second),
			TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
			Prefix:         getEnv("RATE_LIMIT_PREFIX", "rl"),
		},

		AMQPURL:   os.Getenv("AMQP_URL"),
		AMQPQueue: getEnv("AMQP_QUEUE", "rsvp.submitted"),

		WhatsAppEnabled:     envBool("WHATSAPP_ENABLED", false),
		WhatsAppDataDir:     getEnv("WHATSAPP_DATA_DIR", "data"),
		WhatsAppCountryCode: getEnv("WHATSAPP_COUNTRY_CODE", "33"),
		ConsoleEnabled:      envBool("CONSOLE_ENABLED", false),

		Wedding: WeddingConfig{
			FormURL:   getEnv("RSVP_FORM_URL", "http://localhost:8080/"),
			Date:      getEnv("WEDDING_DATE", "Saturday, January 1, 2025"),
			Location:  getEnv("WEDDING_LOCATION", "Venue TBD"),
			BrideName: getEnv("BRIDE_NAME", "Bride"),
			GroomName: getEnv("GROOM_NAME", "Groom"),
		},
	}

	if cfg.RateLimit.Capacity < 1 {
		cfg.RateLimit.Capacity = 1
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RateLimit.RefillInterval; cfg.RateLimit.TTL < minTTL {
		cfg.RateLimit.TTL = minTTL
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return n
	}
	return defaultValue
}

func envDur(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil {
		return d
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
