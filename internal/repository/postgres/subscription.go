package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dsmelov/clipshare/internal/apperrors"
)

type SubscriptionRepo struct {
	DB DBTX
}

const subscribe = `-- name: Subscribe
INSERT INTO subscriptions (subscriber_id, channel_id)
VALUES ($1, $2)
`

func (r *SubscriptionRepo) Subscribe(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) error {
	if subscriberID == channelID {
		return apperrors.ErrSelfSubscription
	}

	_, err := r.DB.Exec(ctx, subscribe, subscriberID, channelID)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
			return apperrors.ErrSubscriptionExists
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
			return apperrors.ErrAccountNotFound
		default:
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}

const unsubscribe = `-- name: Unsubscribe
DELETE FROM subscriptions
WHERE subscriber_id = $1 AND channel_id = $2
`

func (r *SubscriptionRepo) Unsubscribe(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, unsubscribe, subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const isSubscribed = `-- name: IsSubscribed
SELECT EXISTS (
	SELECT 1 FROM subscriptions
	WHERE subscriber_id = $1 AND channel_id = $2
)
`

func (r *SubscriptionRepo) IsSubscribed(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) (bool, error) {
	rows, _ := r.DB.Query(ctx, isSubscribed, subscriberID, channelID)
	subscribed, err := pgx.CollectOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return subscribed, nil
}

const countSubscribers = `-- name: CountSubscribers
SELECT count(*) FROM subscriptions
WHERE channel_id = $1
`

func (r *SubscriptionRepo) CountSubscribers(ctx context.Context, channelID uuid.UUID) (int64, error) {
	rows, _ := r.DB.Query(ctx, countSubscribers, channelID)
	count, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

const countSubscribedTo = `-- name: CountSubscribedTo
SELECT count(*) FROM subscriptions
WHERE subscriber_id = $1
`

func (r *SubscriptionRepo) CountSubscribedTo(ctx context.Context, subscriberID uuid.UUID) (int64, error) {
	rows, _ := r.DB.Query(ctx, countSubscribedTo, subscriberID)
	count, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}
