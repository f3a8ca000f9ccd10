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
	"github.com/dsmelov/clipshare/internal/models"
)

type HistoryRepo struct {
	DB DBTX
}

const appendHistory = `-- name: AppendHistory
INSERT INTO watch_history (account_id, video_ref)
VALUES ($1, $2)
`

func (r *HistoryRepo) Append(ctx context.Context, accountID uuid.UUID, videoRef string) error {
	_, err := r.DB.Exec(ctx, appendHistory, accountID, videoRef)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return apperrors.ErrAccountNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const listHistory = `-- name: ListHistory
SELECT video_ref, watched_at
FROM watch_history
WHERE account_id = $1
ORDER BY watched_at DESC
LIMIT $2
`

func (r *HistoryRepo) List(ctx context.Context, accountID uuid.UUID, limit int) ([]models.HistoryEntry, error) {
	rows, _ := r.DB.Query(ctx, listHistory, accountID, limit)
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.HistoryEntry, error) {
		var e models.HistoryEntry
		err := row.Scan(&e.VideoRef, &e.WatchedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entries, nil
}
