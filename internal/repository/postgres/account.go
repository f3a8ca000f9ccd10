package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dsmelov/clipshare/internal/apperrors"
	"github.com/dsmelov/clipshare/internal/models"
	"github.com/dsmelov/clipshare/internal/repository"
)

type AccountRepo struct {
	DB DBTX
}

const createAccount = `-- name: CreateAccount
INSERT INTO accounts (id, username, email, full_name, avatar_url, cover_url, password_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, username, email, full_name, avatar_url, cover_url, password_hash, refresh_token
`

func (r *AccountRepo) Create(ctx context.Context, arg repository.CreateAccountParams) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, createAccount,
		uuid.New(),
		strings.ToLower(arg.Username),
		strings.ToLower(arg.Email),
		arg.FullName,
		arg.AvatarURL,
		arg.CoverURL,
		arg.HashedPassword,
	)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return account, apperrors.ErrAccountExists
		}

		return account, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

const getAccountByID = `-- name: GetAccountByID
SELECT id, created_at, username, email, full_name, avatar_url, cover_url, password_hash, refresh_token
FROM accounts
WHERE id = $1
`

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByID, id)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const getPublicAccountByID = `-- name: GetPublicAccountByID
SELECT id, created_at, username, email, full_name, avatar_url, cover_url
FROM accounts
WHERE id = $1
`

// Credential hash and refresh token never leave the database on this path
func (r *AccountRepo) GetPublicByID(ctx context.Context, id uuid.UUID) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getPublicAccountByID, id)
	account, err := pgx.CollectOneRow(rows, rowToPublicAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const getAccountByLogin = `-- name: GetAccountByLogin
SELECT id, created_at, username, email, full_name, avatar_url, cover_url, password_hash, refresh_token
FROM accounts
WHERE username = $1 OR email = $1
`

func (r *AccountRepo) GetByLogin(ctx context.Context, login string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByLogin, strings.ToLower(login))
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const setRefreshToken = `-- name: SetRefreshToken
UPDATE accounts
SET refresh_token = $2
WHERE id = $1
`

func (r *AccountRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	tag, err := r.DB.Exec(ctx, setRefreshToken, id, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

const rotateRefreshToken = `-- name: RotateRefreshToken
UPDATE accounts
SET refresh_token = $3
WHERE id = $1 AND refresh_token = $2
`

// Compare-and-swap on the stored refresh token
// Two concurrent rotations with the same token: exactly one affects a row
func (r *AccountRepo) RotateRefreshToken(ctx context.Context, id uuid.UUID, current string, next string) error {
	tag, err := r.DB.Exec(ctx, rotateRefreshToken, id, current, next)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRefreshTokenStale
	}
	return nil
}

const updatePasswordHash = `-- name: UpdatePasswordHash
UPDATE accounts
SET password_hash = $2
WHERE id = $1
`

func (r *AccountRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.DB.Exec(ctx, updatePasswordHash, id, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.CreatedAt, &a.Username, &a.Email, &a.FullName, &a.AvatarURL, &a.CoverURL, &a.HashedPassword, &a.RefreshToken)
	return a, err
}

func rowToPublicAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.CreatedAt, &a.Username, &a.Email, &a.FullName, &a.AvatarURL, &a.CoverURL)
	return a, err
}
