package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/partyplanner/backend/internal/metrics"
	"github.com/partyplanner/backend/internal/model"
	"github.com/partyplanner/backend/internal/ratelimit"
	"github.com/partyplanner/backend/internal/service"
)

const (
	authUserKey     = "auth_user"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"

	msgTooManyRequests = "Too many requests, please try again later."
)

// AuthMiddleware requires a valid session token, read from the Authorization
// bearer header or, failing that, the session cookie.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token := sessionToken(c, authService.CookieConfig().Name)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{Error: msgUnauthorized})
			return
		}

		claim, err := authService.ParseAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{Error: msgUnauthorized})
			return
		}

		c.Set(authUserKey, claim)
		c.Next()
	}
}

func GetAuthUser(c *gin.Context) *model.SessionClaim {
	if value, ok := c.Get(authUserKey); ok {
		if claim, ok := value.(*model.SessionClaim); ok {
			return claim
		}
	}
	return nil
}

func sessionToken(c *gin.Context, cookieName string) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			return token
		}
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// ClientID identifies the caller for rate limiting: the first hop of
// X-Forwarded-For, or "anonymous" when the header is absent.
func ClientID(c *gin.Context) string {
	forwarded := c.GetHeader("X-Forwarded-For")
	if forwarded == "" {
		return service.AnonymousClient
	}
	first, _, _ := strings.Cut(forwarded, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return service.AnonymousClient
}

// RateLimit rejects callers that exceed their request budget with 429.
func RateLimit(limiter *ratelimit.RequestLimiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter.Allow(ClientID(c)) {
			c.Next()
			return
		}
		m.RecordThrottled("api")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{Error: msgTooManyRequests})
	}
}

// RequestLogger assigns a request id and logs one line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		logger.Log(c.Request.Context(), level, "http request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_id", ClientID(c),
		)
	}
}
