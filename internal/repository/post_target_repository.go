package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
)

type PostTargetRepository interface {
	Create(ctx context.Context, tx *sql.Tx, target *models.PostTarget) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error)
	MarkPublished(ctx context.Context, id int64, platformPostID, platformURL string, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
}

type postTargetRepository struct {
	db *sql.DB
}

func NewPostTargetRepository(db *sql.DB) PostTargetRepository {
	return &postTargetRepository{db: db}
}

func (r *postTargetRepository) Create(ctx context.Context, tx *sql.Tx, target *models.PostTarget) (int64, error) {
	query := `
		INSERT INTO post_targets (post_id, account_id, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, target.PostID, target.AccountID, target.Status).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, target.PostID, target.AccountID, target.Status).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postTargetRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error) {
	query := `
		SELECT id, post_id, account_id, status, platform_post_id, platform_url,
			error_message, published_at, created_at, updated_at
		FROM post_targets
		WHERE post_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var targets []*models.PostTarget
	for rows.Next() {
		var t models.PostTarget
		err := rows.Scan(&t.ID, &t.PostID, &t.AccountID, &t.Status, &t.PlatformPostID,
			&t.PlatformURL, &t.ErrorMessage, &t.PublishedAt, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		targets = append(targets, &t)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return targets, nil
}

func (r *postTargetRepository) MarkPublished(ctx context.Context, id int64, platformPostID, platformURL string, publishedAt time.Time) error {
	query := `
		UPDATE post_targets
		SET status = $1,
			platform_post_id = $2,
			platform_url = $3,
			error_message = '',
			published_at = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, models.TargetStatusPublished, platformPostID, platformURL, publishedAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postTargetRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE post_targets
		SET status = $1,
			error_message = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.TargetStatusFailed, errorMessage, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
