package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Postgres  PostgresConfig
	Auth      AuthConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	CSRF      CSRFConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	MetricsEnabled bool
}

type LogConfig struct {
	Format string
	Level  string
}

type PostgresConfig struct {
	DatabaseURL    string
	Host           string
	Port           string
	User           string
	Password       string
	Database       string
	SSLMode        string
	ConnectRetries int
}

type AuthConfig struct {
	JWTSecret      string
	SessionTTL     time.Duration
	AllowSignup    bool
	BcryptCost     int
	CookieSecure   bool
	CookieDomain   string
	CookiePath     string
	CookieSameSite string
}

type CacheConfig struct {
	UserCacheSize int
	UserCacheTTL  time.Duration
}

type RateLimitConfig struct {
	LoginAttempts   int
	LoginWindow     time.Duration
	LoginMaxClients int

	APIRequests   int
	APIWindow     time.Duration
	APIMaxClients int
}

type CSRFConfig struct {
	Enabled bool
	Secret  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads the configuration from the environment. A .env.local or .env
// file in the working directory (or its parent) is loaded first when present.
func Load() (*Config, error) {
	loadEnvFile()

	jwtSecret := os.Getenv("JWT_SECRET")
	env := &envReader{}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			GinMode:        getEnv("GIN_MODE", "debug"),
			MetricsEnabled: env.getBool("METRICS_ENABLED", true),
		},
		Log: LogConfig{
			Format: getEnv("LOG_FORMAT", "json"),
			Level:  getEnv("LOG_LEVEL", "info"),
		},
		Postgres: PostgresConfig{
			DatabaseURL:    os.Getenv("DATABASE_URL"),
			Host:           getEnv("PGHOST", "localhost"),
			Port:           getEnv("PGPORT", "5432"),
			User:           os.Getenv("PGUSER"),
			Password:       os.Getenv("PGPASSWORD"),
			Database:       os.Getenv("PGDATABASE"),
			SSLMode:        getEnv("PGSSLMODE", "disable"),
			ConnectRetries: env.getInt("DB_CONNECT_RETRIES", 5),
		},
		Auth: AuthConfig{
			JWTSecret:      jwtSecret,
			SessionTTL:     env.getDuration("SESSION_TTL", 30*24*time.Hour),
			AllowSignup:    env.getBool("ALLOW_SIGNUP", true),
			BcryptCost:     env.getInt("BCRYPT_COST", 10),
			CookieSecure:   env.getBool("AUTH_COOKIE_SECURE", true),
			CookieDomain:   os.Getenv("AUTH_COOKIE_DOMAIN"),
			CookiePath:     getEnv("AUTH_COOKIE_PATH", "/"),
			CookieSameSite: getEnv("AUTH_COOKIE_SAMESITE", "lax"),
		},
		Cache: CacheConfig{
			UserCacheSize: env.getInt("USER_CACHE_SIZE", 100),
			UserCacheTTL:  env.getDuration("USER_CACHE_TTL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			LoginAttempts:   env.getInt("LOGIN_RATE_LIMIT_ATTEMPTS", 5),
			LoginWindow:     env.getDuration("LOGIN_RATE_LIMIT_WINDOW", time.Minute),
			LoginMaxClients: env.getInt("LOGIN_RATE_LIMIT_MAX_CLIENTS", 500),
			APIRequests:     env.getInt("API_RATE_LIMIT_REQUESTS", 10),
			APIWindow:       env.getDuration("API_RATE_LIMIT_WINDOW", time.Minute),
			APIMaxClients:   env.getInt("API_RATE_LIMIT_MAX_CLIENTS", 500),
		},
		CSRF: CSRFConfig{
			Enabled: env.getBool("CSRF_ENABLED", true),
			Secret:  getEnv("CSRF_SECRET", jwtSecret),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that the auth core cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Cache.UserCacheSize <= 0 {
		return fmt.Errorf("USER_CACHE_SIZE must be positive")
	}
	if c.Cache.UserCacheTTL <= 0 {
		return fmt.Errorf("USER_CACHE_TTL must be positive")
	}
	if c.RateLimit.LoginAttempts <= 0 || c.RateLimit.LoginWindow <= 0 || c.RateLimit.LoginMaxClients <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT_* values must be positive")
	}
	if c.RateLimit.APIRequests <= 0 || c.RateLimit.APIWindow <= 0 || c.RateLimit.APIMaxClients <= 0 {
		return fmt.Errorf("API_RATE_LIMIT_* values must be positive")
	}
	if c.CSRF.Enabled && strings.TrimSpace(c.CSRF.Secret) == "" {
		return fmt.Errorf("CSRF_SECRET is required when CSRF_ENABLED is true")
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS must list at least one origin")
	}
	for _, origin := range c.CORS.AllowedOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("invalid CORS origin: %q", origin)
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.Auth.CookieSameSite)) {
	case "", "lax", "strict":
	case "none":
		if !c.Auth.CookieSecure {
			return fmt.Errorf("AUTH_COOKIE_SAMESITE=none requires AUTH_COOKIE_SECURE=true")
		}
	default:
		return fmt.Errorf("invalid AUTH_COOKIE_SAMESITE: %q", c.Auth.CookieSameSite)
	}
	return nil
}

func loadEnvFile() {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err == nil {
			return
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}
	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// envReader records values that are set but do not parse, so Load can
// report all of them instead of running on a default.
type envReader struct {
	errs []error
}

func (r *envReader) lookup(key string) (string, bool) {
	val := strings.TrimSpace(os.Getenv(key))
	return val, val != ""
}

func (r *envReader) fail(key, val string, err error) {
	r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, val, err))
}

func (r *envReader) getInt(key string, fallback int) int {
	val, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		r.fail(key, val, err)
		return fallback
	}
	return parsed
}

func (r *envReader) getBool(key string, fallback bool) bool {
	val, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		r.fail(key, val, err)
		return fallback
	}
	return parsed
}

func (r *envReader) getDuration(key string, fallback time.Duration) time.Duration {
	val, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		r.fail(key, val, err)
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
