package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string
	AppURL   string

	FixturesPath string
	Sources      []string

	MongoURI        string
	MongoDB         string
	MongoCollection string

	RapidAPIKey     string
	RapidAPIHost    string
	RapidAPIBaseURL string

	RedisURL          string
	CacheTTL          time.Duration
	PropertyCacheSize int

	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string
	RankingTimeout    time.Duration

	MaxConcurrency   int
	CallTimeout      time.Duration
	MaxRetries       int
	RetryBase        time.Duration
	RetryCap         time.Duration
	FailureThreshold int
	RecoveryTimeout  time.Duration
	HealthSchedule   string

	KafkaBrokers     []string
	KafkaTopicPrefix string
	RabbitMQURL      string
	RabbitExchange   string
	EventsInterval   time.Duration
	RetryBackoff     []time.Duration

	FluentEnabled bool
	FluentHost    string
	FluentPort    int
}

// Load reads an optional .env file, then parses configuration from the environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Env:               getEnv("APP_ENV", "dev"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		AppURL:            getEnv("APP_URL", "http://localhost:3000"),
		FixturesPath:      os.Getenv("LISTING_FIXTURES_PATH"),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           getEnv("MONGO_DB", "staysearch"),
		MongoCollection:   getEnv("MONGO_COLLECTION", "listings"),
		RapidAPIKey:       os.Getenv("RAPIDAPI_KEY"),
		RapidAPIHost:      getEnv("RAPIDAPI_HOST", "airbnb13.p.rapidapi.com"),
		RapidAPIBaseURL:   getEnv("RAPIDAPI_BASE_URL", "https://airbnb13.p.rapidapi.com"),
		RedisURL:          os.Getenv("REDIS_URL"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", "anthropic/claude-3-haiku"),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		HealthSchedule:    getEnv("HEALTH_SCHEDULE", "@every 30s"),
		KafkaTopicPrefix:  getEnv("KAFKA_TOPIC_PREFIX", "staysearch"),
		RabbitMQURL:       os.Getenv("RABBITMQ_URL"),
		RabbitExchange:    getEnv("RABBITMQ_EXCHANGE", "staysearch.events"),
		FluentHost:        getEnv("FLUENT_HOST", "127.0.0.1"),
	}
	cfg.Sources = splitList(getEnv("SOURCES", "fixtures,mongo,rapidapi"))
	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))

	var err error
	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"CACHE_TTL", 10 * time.Minute, &cfg.CacheTTL},
		{"RANKING_TIMEOUT", 8 * time.Second, &cfg.RankingTimeout},
		{"UPSTREAM_CALL_TIMEOUT", 12 * time.Second, &cfg.CallTimeout},
		{"RETRY_BASE", time.Second, &cfg.RetryBase},
		{"RETRY_CAP", 60 * time.Second, &cfg.RetryCap},
		{"CIRCUIT_RECOVERY_TIMEOUT", 60 * time.Second, &cfg.RecoveryTimeout},
		{"EVENTS_POLL_INTERVAL", 500 * time.Millisecond, &cfg.EventsInterval},
	}
	for _, d := range durations {
		if *d.dst, err = parseDurationEnv(d.key, d.def); err != nil {
			return Config{}, err
		}
	}

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"MAX_CONCURRENCY", 5, &cfg.MaxConcurrency},
		{"MAX_RETRIES", 2, &cfg.MaxRetries},
		{"CIRCUIT_FAILURE_THRESHOLD", 5, &cfg.FailureThreshold},
		{"FLUENT_PORT", 24224, &cfg.FluentPort},
		{"PROPERTY_CACHE_SIZE", 1000, &cfg.PropertyCacheSize},
	}
	for _, n := range ints {
		if *n.dst, err = parseIntEnv(n.key, n.def); err != nil {
			return Config{}, err
		}
	}

	if cfg.FluentEnabled, err = parseBoolEnv("FLUENT_ENABLED", false); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("EVENTS_RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid EVENTS_RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if cfg.MaxConcurrency < 1 {
		return Config{}, fmt.Errorf("MAX_CONCURRENCY must be at least 1, got %d", cfg.MaxConcurrency)
	}
	if cfg.MaxRetries < 0 {
		return Config{}, fmt.Errorf("MAX_RETRIES must not be negative, got %d", cfg.MaxRetries)
	}
	if cfg.FailureThreshold < 1 {
		return Config{}, fmt.Errorf("CIRCUIT_FAILURE_THRESHOLD must be at least 1, got %d", cfg.FailureThreshold)
	}
	return cfg, nil
}

// Default returns the configuration used when the environment cannot be parsed.
func Default() Config {
	return Config{
		Env:               "dev",
		LogLevel:          "info",
		HTTPAddr:          ":8080",
		AppURL:            "http://localhost:3000",
		Sources:           []string{"fixtures"},
		MongoDB:           "staysearch",
		MongoCollection:   "listings",
		RapidAPIHost:      "airbnb13.p.rapidapi.com",
		RapidAPIBaseURL:   "https://airbnb13.p.rapidapi.com",
		CacheTTL:          10 * time.Minute,
		PropertyCacheSize: 1000,
		OpenRouterModel:   "anthropic/claude-3-haiku",
		OpenRouterBaseURL: "https://openrouter.ai/api/v1",
		RankingTimeout:    8 * time.Second,
		MaxConcurrency:    5,
		CallTimeout:       12 * time.Second,
		MaxRetries:        2,
		RetryBase:         time.Second,
		RetryCap:          60 * time.Second,
		FailureThreshold:  5,
		RecoveryTimeout:   60 * time.Second,
		HealthSchedule:    "@every 30s",
		KafkaTopicPrefix:  "staysearch",
		RabbitExchange:    "staysearch.events",
		EventsInterval:    500 * time.Millisecond,
		RetryBackoff:      []time.Duration{time.Second, 5 * time.Second, 30 * time.Second},
		FluentHost:        "127.0.0.1",
		FluentPort:        24224,
	}
}

// SourceEnabled reports whether name is listed in SOURCES.
func (c Config) SourceEnabled(name string) bool {
	for _, s := range c.Sources {
		if s == name {
			return true
		}
	}
	return false
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, strings.ToLower(v))
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s duration: must be positive", key)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
