package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/partyplanner/backend/internal/cache"
	"github.com/partyplanner/backend/internal/config"
	"github.com/partyplanner/backend/internal/db"
	"github.com/partyplanner/backend/internal/logging"
	"github.com/partyplanner/backend/internal/metrics"
	"github.com/partyplanner/backend/internal/model"
	"github.com/partyplanner/backend/internal/ratelimit"
)

const (
	sessionCookieName = "partyplanner_session"
	// AnonymousClient is the limiter key for requests without a forwarded client address.
	AnonymousClient   = "anonymous"
	minPasswordLength = 8
	maxPasswordLength = 72
	maxNameLength     = 100
	maxEmailLength    = 254
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrRateLimited        = errors.New("too many login attempts")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnavailable        = errors.New("credential store unavailable")
	ErrInvalidSession     = errors.New("invalid session")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("email already exists")
	ErrMisconfigured      = errors.New("auth config invalid")
)

// CredentialStore is the persistence the authenticator reads from.
// Implementations return db.ErrNotFound when no record matches and
// db.ErrDuplicateEmail on a conflicting insert.
type CredentialStore interface {
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
}

type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   int
}

// AuthService runs the login state machine: rate limit check, cache lookup,
// store fallback, password verification, token issue. One instance is shared
// by all handlers; it owns its cache and limiter.
type AuthService struct {
	store     CredentialStore
	users     *cache.UserCache
	limiter   *ratelimit.LoginLimiter
	passwords *BcryptHasher
	tokens    *TokenIssuer
	metrics   *metrics.Metrics
	logger    *slog.Logger

	allowSignup bool
	cookieCfg   CookieConfig

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(store CredentialStore, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*AuthService, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: credential store is required", ErrMisconfigured)
	}
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		return nil, err
	}

	sameSite, err := parseSameSite(cfg.Auth.CookieSameSite)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SAMESITE", ErrMisconfigured)
	}
	if sameSite == http.SameSiteNoneMode && !cfg.Auth.CookieSecure {
		return nil, fmt.Errorf("%w: SameSite=None requires Secure cookie", ErrMisconfigured)
	}

	cookiePath := cfg.Auth.CookiePath
	if strings.TrimSpace(cookiePath) == "" {
		cookiePath = "/"
	}

	return &AuthService{
		store:     store,
		users:     cache.NewUserCache(cfg.Cache.UserCacheSize, cfg.Cache.UserCacheTTL),
		limiter:   ratelimit.NewLoginLimiter(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow, cfg.RateLimit.LoginMaxClients),
		passwords: NewBcryptHasher(cfg.Auth.BcryptCost),
		tokens:    tokens,
		metrics:   m,
		logger:    logger.With("component", "auth"),

		allowSignup: cfg.Auth.AllowSignup,
		cookieCfg: CookieConfig{
			Name:     sessionCookieName,
			Path:     cookiePath,
			Domain:   cfg.Auth.CookieDomain,
			Secure:   cfg.Auth.CookieSecure,
			SameSite: sameSite,
			MaxAge:   int(tokens.TTL().Seconds()),
		},
	}, nil
}

func (s *AuthService) AllowSignup() bool {
	return s.allowSignup
}

func (s *AuthService) CookieConfig() CookieConfig {
	return s.cookieCfg
}

// Authenticate checks email and password on behalf of clientID and returns
// the public identity of the matching user.
//
// Every attempt that passes input validation is counted by the limiter,
// whatever its outcome. Unknown email and wrong password produce the same
// error so callers cannot probe for accounts. The email is trimmed the same
// way CreateAccount trims it; the password is taken as given.
func (s *AuthService) Authenticate(ctx context.Context, email, password, clientID string) (*model.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.metrics.RecordLogin(metrics.OutcomeValidation)
		return nil, ErrMissingCredentials
	}
	if clientID == "" {
		clientID = AnonymousClient
	}

	if decision := s.limiter.Admit(clientID); decision == ratelimit.Denied {
		s.metrics.RecordLogin(metrics.OutcomeThrottled)
		s.metrics.RecordThrottled("login")
		s.logger.WarnContext(ctx, "login throttled",
			"client_id", clientID,
			"decision", decision.String(),
			"tracked_clients", s.limiter.Tracked())
		return nil, ErrRateLimited
	}

	user, err := s.lookupUser(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.equalizeTiming(password)
			s.reject(ctx, clientID, "unknown email")
			return nil, ErrInvalidCredentials
		}
		upstream := oops.Code("AUTH_STORE_UNAVAILABLE").
			With("operation", "find user by email").
			With("client_id", clientID).
			Wrap(fmt.Errorf("%w: %w", ErrUnavailable, err))
		s.metrics.RecordLogin(metrics.OutcomeUnavailable)
		logging.LogError(ctx, s.logger, "credential store lookup failed", upstream)
		return nil, upstream
	}

	ok, err := s.passwords.Compare(user.PasswordHash, password)
	if err != nil {
		logging.LogError(ctx, s.logger, "stored password hash unusable",
			oops.With("user_id", user.ID).Wrap(err))
		s.reject(ctx, clientID, "unusable hash")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		s.reject(ctx, clientID, "password mismatch")
		return nil, ErrInvalidCredentials
	}

	identity := identityOf(user)
	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	s.logger.InfoContext(ctx, "login succeeded", "client_id", clientID, "user_id", user.ID)
	return &identity, nil
}

// Login authenticates and issues a session token for the resulting identity.
func (s *AuthService) Login(ctx context.Context, email, password, clientID string) (string, int64, *model.Identity, error) {
	identity, err := s.Authenticate(ctx, email, password, clientID)
	if err != nil {
		return "", 0, nil, err
	}

	token, expiresIn, err := s.tokens.Issue(*identity)
	if err != nil {
		return "", 0, nil, oops.With("operation", "issue session token").With("user_id", identity.ID).Wrap(err)
	}
	return token, expiresIn, identity, nil
}

// Register creates a new account when self signup is enabled. It does not
// log the user in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.Identity, error) {
	if !s.allowSignup {
		return nil, ErrForbidden
	}
	return s.CreateAccount(ctx, req)
}

// CreateAccount creates a user regardless of the signup switch. It backs the
// create-user command.
func (s *AuthService) CreateAccount(ctx context.Context, req model.RegisterRequest) (*model.Identity, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if err := validateRegistration(name, email, req.Password); err != nil {
		s.metrics.RecordRegistration(metrics.OutcomeValidation)
		return nil, err
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, oops.With("operation", "hash password").Wrap(err)
	}

	created, err := s.store.CreateUser(ctx, &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	})
	if err != nil {
		if errors.Is(err, db.ErrDuplicateEmail) {
			s.metrics.RecordRegistration(metrics.OutcomeConflict)
			return nil, ErrConflict
		}
		upstream := oops.Code("AUTH_STORE_UNAVAILABLE").
			With("operation", "create user").
			Wrap(fmt.Errorf("%w: %w", ErrUnavailable, err))
		s.metrics.RecordRegistration(metrics.OutcomeUnavailable)
		logging.LogError(ctx, s.logger, "registration failed", upstream)
		return nil, upstream
	}

	s.metrics.RecordRegistration(metrics.OutcomeSuccess)
	s.logger.InfoContext(ctx, "user registered", "user_id", created.ID)
	identity := identityOf(created)
	return &identity, nil
}

// CurrentUser re-reads the account behind a session so that renames and
// deletions show up before the token expires.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.Identity, error) {
	if userID == "" {
		return nil, ErrInvalidSession
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.logger.WarnContext(ctx, "session user no longer exists", "user_id", userID)
			return nil, ErrInvalidSession
		}
		upstream := oops.Code("AUTH_STORE_UNAVAILABLE").
			With("operation", "find user by id").
			With("user_id", userID).
			Wrap(fmt.Errorf("%w: %w", ErrUnavailable, err))
		logging.LogError(ctx, s.logger, "session user lookup failed", upstream)
		return nil, upstream
	}

	identity := identityOf(user)
	return &identity, nil
}

// ParseAccessToken reads a session token issued by Login.
func (s *AuthService) ParseAccessToken(tokenStr string) (*model.SessionClaim, error) {
	return s.tokens.Read(tokenStr)
}

func (s *AuthService) lookupUser(ctx context.Context, email string) (*model.User, error) {
	if user, ok := s.users.Get(email); ok {
		s.metrics.RecordCacheLookup(true)
		return user, nil
	}
	s.metrics.RecordCacheLookup(false)
	s.logger.DebugContext(ctx, "user cache miss", "cached_users", s.users.Len())

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	s.users.Put(email, user)
	return user, nil
}

func (s *AuthService) reject(ctx context.Context, clientID, reason string) {
	s.metrics.RecordLogin(metrics.OutcomeInvalid)
	s.logger.WarnContext(ctx, "login rejected", "client_id", clientID, "reason", reason)
}

// equalizeTiming burns one bcrypt comparison so an unknown email costs about
// as much as a wrong password.
func (s *AuthService) equalizeTiming(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.passwords.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = hash
		}
	})
	if s.dummyHash != "" {
		_, _ = s.passwords.Compare(s.dummyHash, password)
	}
}

func identityOf(user *model.User) model.Identity {
	image := model.PlaceholderAvatar
	if user.Image != nil && *user.Image != "" {
		image = *user.Image
	}
	return model.Identity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Image: image,
	}
}

func validateRegistration(name, email, password string) error {
	if name == "" || len(name) > maxNameLength {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(email) > maxEmailLength {
		return fmt.Errorf("%w: email is too long", ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be %d to %d characters", ErrInvalidInput, minPasswordLength, maxPasswordLength)
	}
	return nil
}

func parseSameSite(value string) (http.SameSite, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, ErrInvalidInput
	}
}
