package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/partyplanner/backend/internal/model"
)

const (
	CSRFSessionName = "partyplanner_csrf"
	csrfSessionKey  = "csrf_token"
	csrfHeader      = "X-CSRF-Token"
)

// CSRFToken godoc
// @Summary Get a CSRF token
// @Description The token is bound to a signed cookie session and must be echoed in X-CSRF-Token on state-changing auth requests.
// @Tags auth
// @Produce json
// @Success 200 {object} model.CSRFResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/auth/csrf [get]
func CSRFToken(c *gin.Context) {
	session := sessions.Default(c)
	token, ok := session.Get(csrfSessionKey).(string)
	if !ok || token == "" {
		var err error
		token, err = generateCSRFToken()
		if err != nil {
			c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: msgServerError})
			return
		}
		session.Set(csrfSessionKey, token)
		if err := session.Save(); err != nil {
			c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: msgServerError})
			return
		}
	}

	c.Header(csrfHeader, token)
	c.JSON(http.StatusOK, model.CSRFResponse{CSRFToken: token})
}

// VerifyCSRF checks X-CSRF-Token against the session token on unsafe methods.
func VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		session := sessions.Default(c)
		expected, ok := session.Get(csrfSessionKey).(string)
		if !ok || expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, model.ErrorResponse{Error: "CSRF token missing"})
			return
		}

		received := c.GetHeader(csrfHeader)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, model.ErrorResponse{Error: "CSRF token invalid"})
			return
		}

		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func generateCSRFToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
