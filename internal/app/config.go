package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr        string
	RequestTimeout  time.Duration
	CatalogTimeout  time.Duration
	LogLevel        string
	LogFormat       string
	UserAgent       string
	APIEndpoint     string
	StoreEndpoint   string
	MirrorEndpoints []string
	TertiaryMirror  string
	BackupPath      string
	CatalogTTL      time.Duration
	BackupMaxAge    time.Duration

	BreakerThreshold int
	BreakerCooldown  time.Duration

	EnrichBatchSize  int
	EnrichBatchDelay time.Duration

	RedisURL      string
	CacheTTL      time.Duration
	CacheDisabled bool
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		RequestTimeout:  time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		CatalogTimeout:  time.Duration(getEnvInt("CATALOG_TIMEOUT_SECONDS", 30)) * time.Second,
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
		UserAgent:       getEnv("SEARCH_USER_AGENT", "gamehub-search/1.0"),
		APIEndpoint:     getEnv("STORE_API_ENDPOINT", "https://api.steampowered.com"),
		StoreEndpoint:   getEnv("STOREFRONT_ENDPOINT", "https://store.steampowered.com/api"),
		MirrorEndpoints: splitCSV(getEnv("CATALOG_MIRROR_ENDPOINTS", "")),
		TertiaryMirror:  getEnv("CATALOG_TERTIARY_MIRROR", ""),
		BackupPath:      getEnv("CATALOG_BACKUP_PATH", "data/catalog-backup.json"),
		CatalogTTL:      time.Duration(getEnvInt("CATALOG_TTL_HOURS", 24)) * time.Hour,
		BackupMaxAge:    time.Duration(getEnvInt("CATALOG_BACKUP_MAX_AGE_DAYS", 7)) * 24 * time.Hour,

		BreakerThreshold: getEnvInt("BREAKER_FAILURE_THRESHOLD", 5),
		BreakerCooldown:  time.Duration(getEnvInt("BREAKER_COOLDOWN_MINUTES", 5)) * time.Minute,

		EnrichBatchSize:  getEnvInt("ENRICH_BATCH_SIZE", 5),
		EnrichBatchDelay: time.Duration(getEnvInt("ENRICH_BATCH_DELAY_MS", 200)) * time.Millisecond,

		RedisURL:      getEnv("REDIS_URL", ""),
		CacheTTL:      time.Duration(getEnvInt("SEARCH_CACHE_TTL_MINUTES", 10)) * time.Minute,
		CacheDisabled: getEnvBool("SEARCH_CACHE_DISABLED", false),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
