package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default deny-list for the website classifier. A link whose host contains
// any of these is not counted as the business's own website. Extend the list
// via DENIED_DOMAINS, never the matching algorithm.
const defaultDeniedDomains = "yandex,ya.ru,vk.com,t.me,instagram,wa.me,facebook"

// Config represents the application configuration
type Config struct {
	// Telegram front-end
	BotToken  string
	AdminID   int64
	ChannelID string

	// Map provider
	MapsBaseURL string
	Headless    bool
	UserAgent   string

	// Crawl timing. The provider renders results client-side with no
	// "loaded" signal, so both waits are fixed settle intervals.
	FeedWaitTimeout time.Duration
	ScrollSettle    time.Duration
	DetailSettle    time.Duration
	DetailTimeout   time.Duration
	DetailRetries   uint64
	DetailFetch     string // "browser" or "http"

	// Website classifier deny-list
	DeniedDomains []string

	// Result count clamp per search
	MinResults int
	MaxResults int

	// Storage
	DBPath string

	// Redis mirror of accepted leads
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache-backed search rate limiting
	MemcacheAddr    string
	SearchBlockTime time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAXLEN", "500"))
	adminID, _ := strconv.ParseInt(getEnv("ADMIN_ID", "0"), 10, 64)
	detailRetries, _ := strconv.ParseUint(getEnv("DETAIL_RETRIES", "2"), 10, 64)
	searchBlock, _ := strconv.Atoi(getEnv("SEARCH_BLOCK_SECONDS", "60"))

	return &Config{
		BotToken:  getEnv("TG_TOKEN", ""),
		AdminID:   adminID,
		ChannelID: getEnv("CHANNEL_ID", ""),

		MapsBaseURL: getEnv("MAPS_BASE_URL", "https://yandex.ru"),
		Headless:    getEnvBool("HEADLESS", true),
		UserAgent: getEnv("USER_AGENT",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),

		FeedWaitTimeout: getEnvDuration("FEED_WAIT_TIMEOUT_MS", 10000),
		ScrollSettle:    getEnvDuration("SCROLL_SETTLE_MS", 1500),
		DetailSettle:    getEnvDuration("DETAIL_SETTLE_MS", 2000),
		DetailTimeout:   getEnvDuration("DETAIL_TIMEOUT_MS", 35000),
		DetailRetries:   detailRetries,
		DetailFetch:     getEnv("DETAIL_FETCH", "browser"),

		DeniedDomains: splitCSV(getEnv("DENIED_DOMAINS", defaultDeniedDomains)),

		MinResults: 1,
		MaxResults: 50,

		DBPath: getEnv("DB_PATH", "database.db"),

		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "leads"),
		RedisStreamMaxLength: streamMaxLen,

		MemcacheAddr:    getEnv("MEMCACHE_ADDR", "localhost:11211"),
		SearchBlockTime: time.Duration(searchBlock) * time.Second,

		Environment: getEnv("LEADWORKER_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("TG_TOKEN is required")
	}
	if _, err := url.Parse(c.MapsBaseURL); err != nil {
		return fmt.Errorf("invalid MAPS_BASE_URL %q: %w", c.MapsBaseURL, err)
	}
	if c.MinResults < 1 || c.MaxResults < c.MinResults {
		return fmt.Errorf("invalid result clamp [%d,%d]", c.MinResults, c.MaxResults)
	}
	if c.DetailFetch != "browser" && c.DetailFetch != "http" {
		return fmt.Errorf("DETAIL_FETCH must be \"browser\" or \"http\", got %q", c.DetailFetch)
	}
	if len(c.DeniedDomains) == 0 {
		return fmt.Errorf("DENIED_DOMAINS must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	return nil
}

// ClampLimit clamps a requested result count into the configured range.
func (c *Config) ClampLimit(n int) int {
	if n < c.MinResults {
		return c.MinResults
	}
	if n > c.MaxResults {
		return c.MaxResults
	}
	return n
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvDuration reads a millisecond count from the environment.
func getEnvDuration(key string, fallbackMs int) time.Duration {
	ms, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallbackMs)))
	if err != nil {
		ms = fallbackMs
	}
	return time.Duration(ms) * time.Millisecond
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
