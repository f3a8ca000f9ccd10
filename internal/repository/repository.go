package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/dsmelov/clipshare/internal/models"
)

type CreateAccountParams struct {
	Username       string
	Email          string
	FullName       string
	AvatarURL      string
	CoverURL       string
	HashedPassword string
}

// Account repository interface
type AccountRepo interface {
	// Create account
	// If username or email is taken already has to return apperrors.ErrAccountExists
	Create(ctx context.Context, arg CreateAccountParams) (models.Account, error)

	// Get account by id, full record including credential hash and refresh token
	// If account not found must return apperrors.ErrAccountNotFound
	GetByID(ctx context.Context, id uuid.UUID) (models.Account, error)

	// Get account by id with credential hash and refresh token excluded
	// from the selected columns. This is the only projection the
	// authentication gate is allowed to load
	GetPublicByID(ctx context.Context, id uuid.UUID) (models.Account, error)

	// Get account matching the login as username (case-insensitive) or email
	GetByLogin(ctx context.Context, login string) (models.Account, error)

	// Overwrite the stored refresh token, nil clears it
	// Narrow partial update: nothing but the session field is touched
	SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error

	// Compare-and-swap rotation: replace the stored refresh token with next
	// only if it still equals current. Has to return
	// apperrors.ErrRefreshTokenStale when the stored value moved on
	RotateRefreshToken(ctx context.Context, id uuid.UUID, current string, next string) error

	// Overwrite the credential hash, nothing else
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// Subscriber/channel edges of the social graph
type SubscriptionRepo interface {
	// Has to return apperrors.ErrSubscriptionExists on a duplicate edge
	// and apperrors.ErrSelfSubscription when both ids are equal
	Subscribe(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) error

	// Idempotent: removing a missing edge is not an error
	Unsubscribe(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) error

	IsSubscribed(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) (bool, error)
	CountSubscribers(ctx context.Context, channelID uuid.UUID) (int64, error)
	CountSubscribedTo(ctx context.Context, subscriberID uuid.UUID) (int64, error)
}

type HistoryRepo interface {
	Append(ctx context.Context, accountID uuid.UUID, videoRef string) error

	// Newest first
	List(ctx context.Context, accountID uuid.UUID, limit int) ([]models.HistoryEntry, error)
}

type Storage interface {
	Account() AccountRepo
	Subscription() SubscriptionRepo
	History() HistoryRepo

	// Run fn inside a single db transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
