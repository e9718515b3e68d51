package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/partyplanner/backend/internal/model"
	"github.com/samber/oops"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrMalformedRecord is returned when a stored row lacks a required field.
	ErrMalformedRecord = errors.New("malformed user record")
)

const userColumns = `id, email, password_hash, name, COALESCE(image, ''), created_at, updated_at`

func (db *Postgres) EnsureAuthSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			image TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return oops.With("operation", "ensure auth schema").Wrap(err)
		}
	}
	return nil
}

func (db *Postgres) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
		INSERT INTO users (id, email, password_hash, name, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + userColumns

	created, err := scanUser(db.Pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Image,
	))
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, oops.With("operation", "create user").Wrap(err)
	}
	return created, nil
}

// FindUserByEmail returns the credential record, password hash included.
// The email match is exact.
func (db *Postgres) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(db.Pool.QueryRow(ctx, query, email))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNotFound
		}
		if errors.Is(err, ErrMalformedRecord) {
			return nil, err
		}
		return nil, oops.With("operation", "find user by email").Wrap(err)
	}
	return user, nil
}

func (db *Postgres) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNotFound
		}
		if errors.Is(err, ErrMalformedRecord) {
			return nil, err
		}
		return nil, oops.With("operation", "find user by id").With("user_id", id).Wrap(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		user  model.User
		image string
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&image,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if image != "" {
		user.Image = &image
	}
	if err := validateUser(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func validateUser(user *model.User) error {
	switch {
	case strings.TrimSpace(user.ID) == "":
		return oops.With("field", "id").Wrap(ErrMalformedRecord)
	case strings.TrimSpace(user.Email) == "":
		return oops.With("field", "email").With("user_id", user.ID).Wrap(ErrMalformedRecord)
	case user.PasswordHash == "":
		return oops.With("field", "password_hash").With("user_id", user.ID).Wrap(ErrMalformedRecord)
	}
	return nil
}

func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}
