package model

import "time"

// PlaceholderAvatar is returned as the image of users that never set one.
const PlaceholderAvatar = "/placeholder.svg?height=32&width=32"

type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AccessToken string   `json:"accessToken"`
	ExpiresIn   int64    `json:"expiresIn"`
	User        Identity `json:"user"`
}

type AuthConfigResponse struct {
	AllowSignup bool `json:"allowSignup"`
	CSRF        bool `json:"csrf"`
}

type CSRFResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// User is the credential record owned by the persistence layer.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Image        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the payload handed to the token issuer after a successful login.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// SessionClaim is the identity recovered from a session token.
type SessionClaim struct {
	SubjectID string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	ExpiresAt time.Time `json:"expires"`
}
