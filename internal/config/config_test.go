package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 100, cfg.Cache.UserCacheSize)
	assert.Equal(t, 5*time.Minute, cfg.Cache.UserCacheTTL)
	assert.Equal(t, 5, cfg.RateLimit.LoginAttempts)
	assert.Equal(t, time.Minute, cfg.RateLimit.LoginWindow)
	assert.Equal(t, 500, cfg.RateLimit.LoginMaxClients)
	assert.Equal(t, 10, cfg.RateLimit.APIRequests)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Auth.AllowSignup)
	assert.Equal(t, "secret", cfg.CSRF.Secret, "CSRF secret falls back to JWT secret")
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("USER_CACHE_SIZE", "7")
	t.Setenv("USER_CACHE_TTL", "90s")
	t.Setenv("LOGIN_RATE_LIMIT_ATTEMPTS", "3")
	t.Setenv("LOGIN_RATE_LIMIT_WINDOW", "2m")
	t.Setenv("ALLOW_SIGNUP", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Cache.UserCacheSize)
	assert.Equal(t, 90*time.Second, cfg.Cache.UserCacheTTL)
	assert.Equal(t, 3, cfg.RateLimit.LoginAttempts)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.LoginWindow)
	assert.False(t, cfg.Auth.AllowSignup)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_RejectsUnparsableValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LOGIN_RATE_LIMIT_ATTEMPTS", "five")
	t.Setenv("USER_CACHE_TTL", "soon")
	t.Setenv("ALLOW_SIGNUP", "maybe")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), `LOGIN_RATE_LIMIT_ATTEMPTS "five"`)
	assert.Contains(t, err.Error(), `USER_CACHE_TTL "soon"`)
	assert.Contains(t, err.Error(), `ALLOW_SIGNUP "maybe"`)
}

func TestLoad_BlankValuesUseDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("USER_CACHE_SIZE", "  ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Cache.UserCacheSize)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Auth: AuthConfig{
				JWTSecret:      "secret",
				SessionTTL:     time.Hour,
				CookieSecure:   true,
				CookieSameSite: "lax",
			},
			Cache:     CacheConfig{UserCacheSize: 100, UserCacheTTL: time.Minute},
			RateLimit: RateLimitConfig{LoginAttempts: 5, LoginWindow: time.Minute, LoginMaxClients: 10, APIRequests: 10, APIWindow: time.Minute, APIMaxClients: 10},
			CSRF:      CSRFConfig{Enabled: true, Secret: "secret"},
			CORS:      CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.Auth.JWTSecret = " " }, wantErr: "JWT_SECRET"},
		{name: "zero cache size", mutate: func(c *Config) { c.Cache.UserCacheSize = 0 }, wantErr: "USER_CACHE_SIZE"},
		{name: "negative window", mutate: func(c *Config) { c.RateLimit.LoginWindow = -time.Second }, wantErr: "LOGIN_RATE_LIMIT"},
		{name: "zero api requests", mutate: func(c *Config) { c.RateLimit.APIRequests = 0 }, wantErr: "API_RATE_LIMIT"},
		{name: "csrf without secret", mutate: func(c *Config) { c.CSRF.Secret = "" }, wantErr: "CSRF_SECRET"},
		{name: "samesite none insecure", mutate: func(c *Config) {
			c.Auth.CookieSameSite = "none"
			c.Auth.CookieSecure = false
		}, wantErr: "requires AUTH_COOKIE_SECURE"},
		{name: "no cors origins", mutate: func(c *Config) { c.CORS.AllowedOrigins = nil }, wantErr: "CORS_ALLOWED_ORIGINS"},
		{name: "bare cors origin", mutate: func(c *Config) { c.CORS.AllowedOrigins = []string{"example.com"} }, wantErr: "CORS origin"},
		{name: "unknown samesite", mutate: func(c *Config) { c.Auth.CookieSameSite = "sideways" }, wantErr: "AUTH_COOKIE_SAMESITE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
