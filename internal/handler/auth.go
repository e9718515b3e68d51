package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/partyplanner/backend/internal/logging"
	"github.com/partyplanner/backend/internal/model"
	"github.com/partyplanner/backend/internal/service"
)

const (
	msgMissingCredentials = "Email and password are required"
	msgRateLimited        = "Too many login attempts. Please try again later."
	msgInvalidCredentials = "Invalid email or password."
	msgUnavailable        = "Service temporarily unavailable. Please try again later."
	msgUnauthorized       = "Unauthorized"
	msgEmailExists        = "Email already exists!"
	msgSignupDisabled     = "Signup is disabled."
	msgServerError        = "An error occurred. Please try again."
	msgInvalidRequest     = "invalid request"
)

type AuthHandler struct {
	svc         *service.AuthService
	csrfEnabled bool
	logger      *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, csrfEnabled bool, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{svc: svc, csrfEnabled: csrfEnabled, logger: logger}
}

// Login godoc
// @Summary Login with email and password
// @Description Sets the session cookie and returns a bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.AuthRequest true "Email and password"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 429 {object} model.ErrorResponse
// @Failure 503 {object} model.ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: msgInvalidRequest})
		return
	}

	token, expiresIn, identity, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, ClientID(c))
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, model.AuthResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		User:        *identity,
	})
}

// Register godoc
// @Summary Register a new user
// @Description Available when ALLOW_SIGNUP is true. Does not log the user in.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Name, email and password"
// @Success 201 {object} model.RegisterResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 503 {object} model.ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: msgInvalidRequest})
		return
	}

	identity, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.RegisterResponse{Success: true, User: *identity})
}

// Logout godoc
// @Summary Logout
// @Description Clears the session cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} model.AuthLogoutResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, model.AuthLogoutResponse{Status: "logged_out"})
}

// Config godoc
// @Summary Get auth config
// @Tags auth
// @Produce json
// @Success 200 {object} model.AuthConfigResponse
// @Router /api/v1/auth/config [get]
func (h *AuthHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, model.AuthConfigResponse{
		AllowSignup: h.svc.AllowSignup(),
		CSRF:        h.csrfEnabled,
	})
}

// Session godoc
// @Summary Get the current session
// @Description Returns an empty object when there is no valid session.
// @Tags auth
// @Produce json
// @Success 200 {object} model.SessionResponse
// @Router /api/v1/auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	token := sessionToken(c, h.svc.CookieConfig().Name)
	claim, err := h.svc.ParseAccessToken(token)
	if err != nil {
		c.JSON(http.StatusOK, model.SessionResponse{})
		return
	}

	identity := identityFromClaim(claim)
	c.JSON(http.StatusOK, model.SessionResponse{
		User:    &identity,
		Expires: claim.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Me godoc
// @Summary Get current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Description Reads the account from the store, so renames and deletions apply before the token expires.
// @Success 200 {object} model.Identity
// @Failure 401 {object} model.ErrorResponse
// @Failure 503 {object} model.ErrorResponse
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claim := GetAuthUser(c)
	if claim == nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: msgUnauthorized})
		return
	}

	identity, err := h.svc.CurrentUser(c.Request.Context(), claim.SubjectID)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, identity)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.Name, token, cfg.MaxAge, cfg.Path, cfg.Domain, cfg.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.Name, "", -1, cfg.Path, cfg.Domain, cfg.Secure, true)
}

// writeAuthError maps service errors to fixed client messages. Nothing from
// the underlying error reaches the response except validation details.
func (h *AuthHandler) writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: msgMissingCredentials})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, model.ErrorResponse{Error: msgRateLimited})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: msgInvalidCredentials})
	case errors.Is(err, service.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: msgUnavailable})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, model.ErrorResponse{Error: msgSignupDisabled})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, model.ErrorResponse{Error: msgEmailExists})
	case errors.Is(err, service.ErrInvalidSession):
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: msgUnauthorized})
	default:
		logging.LogError(c.Request.Context(), h.logger, "auth request failed", err,
			"path", c.FullPath())
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: msgServerError})
	}
}

func identityFromClaim(claim *model.SessionClaim) model.Identity {
	return model.Identity{
		ID:    claim.SubjectID,
		Email: claim.Email,
		Name:  claim.Name,
		Image: claim.Image,
	}
}
