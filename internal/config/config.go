package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "BOOKMARKHUB_"

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline (chi Timeout middleware)

	LogLevel      string // "debug" | "info" | "warn" | "error"
	PrettyLog     bool   // true => zap dev (color), false => zap prod (JSON)
	LogFile       string // optional rotating log file
	LogMaxSizeMB  int
	LogMaxAgeDays int
	LogMaxBackups int

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Sessions
	SessionTTL        time.Duration
	SessionCookie     string
	SessionGCInterval time.Duration // interval to prune expired session ids

	AllowedHosts       []string // optional, restrict access to specific Host headers
	AllowedCIDRS       []string // optional, restrict ops endpoints to specific IPs/CIDRs
	TrustProxy         bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CORSOrigins        []string // optional, empty => CORS disabled
	SignInBurst        int      // sign-in/sign-up token bucket size per IP
	SignInRefillPerMin int      // tokens regained per minute per IP

	ImportMaxBytes int64 // upper bound for an uploaded bookmark file

	// Homepage sync (optional, empty file = disabled)
	HomepageBookmarkFile string
	HomepageSyncUser     string // email of the account receiving the imported bookmarks
	HomepageSyncInterval time.Duration
}

func Load() *Config {
	// A missing .env is fine, the environment wins anyway.
	_ = godotenv.Load()

	cfg := &Config{
		// Server settings
		ListenPort:      getenv(envPrefix+"LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration(envPrefix+"SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration(envPrefix+"REQUEST_TIMEOUT", 30*time.Second),

		// Logging
		LogLevel:      getenv(envPrefix+"LOG_LEVEL", "info"),
		PrettyLog:     mustBool(envPrefix+"PRETTY_LOG", true),
		LogFile:       getenv(envPrefix+"LOG_FILE", ""),
		LogMaxSizeMB:  getenvInt(envPrefix+"LOG_MAX_SIZE_MB", 50),
		LogMaxAgeDays: getenvInt(envPrefix+"LOG_MAX_AGE_DAYS", 14),
		LogMaxBackups: getenvInt(envPrefix+"LOG_MAX_BACKUPS", 5),

		// Redis settings
		RedisAddr:             requireEnv(envPrefix + "REDIS_ADDR"),
		RedisUser:             getenv(envPrefix+"REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool(envPrefix+"REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv(envPrefix+"REDIS_PASSWORD", ""),
		RedisDB:               getenvInt(envPrefix+"REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Sessions
		SessionTTL:        mustDuration(envPrefix+"SESSION_TTL", 30*24*time.Hour),
		SessionCookie:     getenv(envPrefix+"SESSION_COOKIE", "bookmarkhub_session"),
		SessionGCInterval: mustDuration(envPrefix+"SESSION_GC_INTERVAL", time.Hour),

		// Access restrictions
		AllowedHosts:       splitAndTrim(getenv(envPrefix+"ALLOWED_HOSTS", "")),
		AllowedCIDRS:       parseAllowedIPs(getenv(envPrefix+"ALLOWED_CIDRS", "")),
		TrustProxy:         mustBool(envPrefix+"TRUST_PROXY", true),
		CORSOrigins:        splitAndTrim(getenv(envPrefix+"CORS_ORIGINS", "")),
		SignInBurst:        getenvInt(envPrefix+"SIGNIN_BURST", 5),
		SignInRefillPerMin: getenvInt(envPrefix+"SIGNIN_REFILL_PER_MIN", 5),

		ImportMaxBytes: int64(getenvInt(envPrefix+"IMPORT_MAX_BYTES", 10<<20)),

		HomepageBookmarkFile: getenv(envPrefix+"HOMEPAGE_BOOKMARK_FILE", ""),
		HomepageSyncUser:     getenv(envPrefix+"HOMEPAGE_SYNC_USER", ""),
		HomepageSyncInterval: mustDuration(envPrefix+"HOMEPAGE_SYNC_INTERVAL", 24*time.Hour),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: " + envPrefix + "REDIS_PASSWORD is required when " + envPrefix + "REDIS_PASSWORD_REQUIRED=true")
	}
	if cfg.HomepageBookmarkFile != "" && cfg.HomepageSyncUser == "" {
		panic("❌ FATAL: " + envPrefix + "HOMEPAGE_SYNC_USER is required when " + envPrefix + "HOMEPAGE_BOOKMARK_FILE is set")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
