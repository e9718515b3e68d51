package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/partyplanner/backend/internal/model"
)

const tokenIssuer = "partyplanner"

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and reads HS256 session tokens. It holds no state besides
// the secret, so any number of handlers may share one.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: SESSION_TTL must be positive", ErrMisconfigured)
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for identity and returns it with its lifetime in seconds.
func (t *TokenIssuer) Issue(identity model.Identity) (string, int64, error) {
	if identity.ID == "" {
		return "", 0, errors.New("identity without subject")
	}

	now := t.now()
	claims := sessionClaims{
		Email: identity.Email,
		Name:  identity.Name,
		Image: identity.Image,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(t.ttl.Seconds()), nil
}

// Read verifies tokenStr and returns the embedded claim. Malformed, wrongly
// signed and expired tokens all yield ErrInvalidSession.
func (t *TokenIssuer) Read(tokenStr string) (*model.SessionClaim, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, ErrInvalidSession
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}
	if claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	return &model.SessionClaim{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		Image:     claims.Image,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
