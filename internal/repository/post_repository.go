package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/postpilothq/postpilot/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	ListByWorkspaceID(ctx context.Context, workspaceID int64) ([]*models.Post, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error)
	ClaimForPublishing(ctx context.Context, id int64) (bool, error)
	SetStatus(ctx context.Context, status string, id int64) error
	MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error
	UpdateContent(ctx context.Context, post *models.Post) error
	CheckByWorkspaceID(ctx context.Context, postID, workspaceID int64) (bool, error)
	CountByStatusSince(ctx context.Context, status string, since time.Time) (int64, error)
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, public_id, workspace_id, user_id, content, content_type, status,
	scheduled_at, published_at, approval_status, approved_by, rejection_reason,
	hashtags, link_url, created_at, updated_at`

func scanPost(row interface{ Scan(...interface{}) error }) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.PublicID, &post.WorkspaceID, &post.UserID,
		&post.Content, &post.ContentType, &post.Status, &post.ScheduledAt,
		&post.PublishedAt, &post.ApprovalStatus, &post.ApprovedBy,
		&post.RejectionReason, &post.Hashtags, &post.LinkURL,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (public_id, workspace_id, user_id, content, content_type, status,
			scheduled_at, approval_status, hashtags, link_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	var id int64
	var err error

	args := []interface{}{post.PublicID, post.WorkspaceID, post.UserID, post.Content,
		post.ContentType, post.Status, post.ScheduledAt, post.ApprovalStatus,
		pq.Array([]string(post.Hashtags)), post.LinkURL}

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) ListByWorkspaceID(ctx context.Context, workspaceID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE workspace_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

// ListDue returns scheduled posts whose scheduled time has passed, oldest
// first, capped at limit so one sweep cannot pick up unbounded work.
func (r *postRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status = $1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
		ORDER BY scheduled_at
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, now, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

// ClaimForPublishing flips the post into the publishing state, using the
// affected-row count as the claim: a post already being published by another
// run is not claimed again.
func (r *postRepository) ClaimForPublishing(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status <> $1 AND status <> $3
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, id, models.PostStatusPublished)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return affected == 1, nil
}

func (r *postRepository) SetStatus(ctx context.Context, status string, id int64) error {
	query := `
		UPDATE posts
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			published_at = COALESCE(published_at, $2),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, publishedAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) UpdateContent(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET content = $1,
			status = $2,
			scheduled_at = $3,
			hashtags = $4,
			link_url = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query, post.Content, post.Status, post.ScheduledAt,
		pq.Array([]string(post.Hashtags)), post.LinkURL, post.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) CheckByWorkspaceID(ctx context.Context, postID, workspaceID int64) (bool, error) {
	query := "SELECT 1 FROM posts WHERE id = $1 AND workspace_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, workspaceID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postRepository) CountByStatusSince(ctx context.Context, status string, since time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM posts WHERE status = $1 AND updated_at >= $2`

	var count int64
	err := r.db.QueryRowContext(ctx, query, status, since).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return count, nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
