package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/postpilothq/postpilot/internal/models"
)

type MediaAssetRepository interface {
	GetByID(ctx context.Context, id int64) (*models.MediaAsset, error)
	CheckByWorkspaceID(ctx context.Context, assetID, workspaceID int64) (bool, error)
}

type mediaAssetRepository struct {
	db *sql.DB
}

func NewMediaAssetRepository(db *sql.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

func (r *mediaAssetRepository) GetByID(ctx context.Context, id int64) (*models.MediaAsset, error) {
	query := `
		SELECT id, workspace_id, file_name, file_type, file_size, file_url, thumbnail_url, created_at
		FROM media_assets
		WHERE id = $1
	`

	var ma models.MediaAsset
	err := r.db.QueryRowContext(ctx, query, id).Scan(&ma.ID, &ma.WorkspaceID, &ma.FileName,
		&ma.FileType, &ma.FileSize, &ma.FileURL, &ma.ThumbnailURL, &ma.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &ma, nil
}

func (r *mediaAssetRepository) CheckByWorkspaceID(ctx context.Context, assetID, workspaceID int64) (bool, error) {
	query := "SELECT 1 FROM media_assets WHERE id = $1 AND workspace_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, assetID, workspaceID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}
