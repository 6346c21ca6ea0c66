package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/postpilothq/postpilot/internal/cache"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/transfer"
)

var allowedContentTypes = map[string]struct{}{
	models.ContentTypeText:     {},
	models.ContentTypeImage:    {},
	models.ContentTypeVideo:    {},
	models.ContentTypeCarousel: {},
	models.ContentTypeStory:    {},
	models.ContentTypeReel:     {},
}

type PostService interface {
	Create(ctx context.Context, workspaceID, userID int64, pc *transfer.PostCreation) (int64, error)
	Info(ctx context.Context, workspaceID, postID int64) (*models.Post, []*models.PostTarget, error)
	List(ctx context.Context, workspaceID int64) ([]*models.Post, error)
	Update(ctx context.Context, workspaceID, postID int64, pu *transfer.PostUpdate) error
	Remove(ctx context.Context, workspaceID, postID int64) error
}

type postService struct {
	db *sql.DB
	pr repository.PostRepository
	tr repository.PostTargetRepository
	ac repository.SocialAccountRepository
	ma repository.MediaAssetRepository
	pm repository.PostMediaRepository
	ch cache.Cache
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	tr repository.PostTargetRepository,
	ac repository.SocialAccountRepository,
	ma repository.MediaAssetRepository,
	pm repository.PostMediaRepository,
	ch cache.Cache) PostService {
	return &postService{
		db: db,
		pr: pr,
		tr: tr,
		ac: ac,
		ma: ma,
		pm: pm,
		ch: ch,
	}
}

func (s *postService) Create(ctx context.Context, workspaceID, userID int64, pc *transfer.PostCreation) (int64, error) {
	if pc == nil {
		return 0, NewValidationError("post creation data is nil")
	}
	if pc.Content == "" && len(pc.AssetIDs) == 0 {
		return 0, NewValidationError("post needs content or media")
	}

	contentType := pc.ContentType
	if contentType == "" {
		contentType = models.ContentTypeText
	}
	if _, ok := allowedContentTypes[contentType]; !ok {
		return 0, NewValidationError(fmt.Sprintf("content type %q is not supported", contentType))
	}

	status := models.PostStatusDraft
	var scheduledAt *time.Time
	if pc.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, pc.ScheduledAt)
		if err != nil {
			return 0, NewValidationError("invalid scheduled time format")
		}
		if !t.After(time.Now()) {
			return 0, NewValidationError("scheduled time must be in the future")
		}
		scheduledAt = &t
		status = models.PostStatusScheduled
	}

	publicID, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.Post{
		PublicID:       publicID,
		WorkspaceID:    workspaceID,
		UserID:         userID,
		Content:        pc.Content,
		ContentType:    contentType,
		Status:         status,
		ScheduledAt:    scheduledAt,
		ApprovalStatus: models.ApprovalNone,
		Hashtags:       pc.Hashtags,
		LinkURL:        pc.LinkURL,
	}

	postID, err := s.pr.Create(ctx, tx, &post)
	if err != nil {
		return 0, fmt.Errorf("error creating post: %w", err)
	}

	if err = s.createTargets(ctx, tx, workspaceID, postID, status, pc.AccountIDs); err != nil {
		return 0, err
	}

	if err = s.attachMedia(ctx, tx, workspaceID, postID, pc.AssetIDs); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidate(ctx, postID, workspaceID)
	return postID, nil
}

func (s *postService) createTargets(ctx context.Context, tx *sql.Tx, workspaceID, postID int64, status string, accountIDs []int64) error {
	targetStatus := models.TargetStatusDraft
	if status == models.PostStatusScheduled {
		targetStatus = models.TargetStatusScheduled
	}

	for _, accountID := range accountIDs {
		exists, err := s.ac.CheckByWorkspaceID(ctx, accountID, workspaceID)
		if err != nil {
			return fmt.Errorf("error checking social account %d: %w", accountID, err)
		}
		if !exists {
			return NewValidationError(fmt.Sprintf("social account %d does not exist", accountID))
		}

		target := models.PostTarget{
			PostID:    postID,
			AccountID: accountID,
			Status:    targetStatus,
		}
		if _, err := s.tr.Create(ctx, tx, &target); err != nil {
			return fmt.Errorf("error saving target for account %d: %w", accountID, err)
		}
	}
	return nil
}

func (s *postService) attachMedia(ctx context.Context, tx *sql.Tx, workspaceID, postID int64, assetIDs []int64) error {
	for i, assetID := range assetIDs {
		exists, err := s.ma.CheckByWorkspaceID(ctx, assetID, workspaceID)
		if err != nil {
			return fmt.Errorf("error checking media asset %d: %w", assetID, err)
		}
		if !exists {
			return NewValidationError(fmt.Sprintf("media asset %d does not exist", assetID))
		}

		postMedia := models.PostMedia{
			PostID:       postID,
			AssetID:      assetID,
			DisplayOrder: i,
		}
		if err := s.pm.Create(ctx, tx, &postMedia); err != nil {
			return fmt.Errorf("error attaching media asset %d: %w", assetID, err)
		}
	}
	return nil
}

func (s *postService) Info(ctx context.Context, workspaceID, postID int64) (*models.Post, []*models.PostTarget, error) {
	post, err := s.loadOwned(ctx, workspaceID, postID)
	if err != nil {
		return nil, nil, err
	}

	targets, err := s.tr.ListByPostID(ctx, postID)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting post targets: %w", err)
	}

	return post, targets, nil
}

func (s *postService) List(ctx context.Context, workspaceID int64) ([]*models.Post, error) {
	posts, err := s.pr.ListByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("error getting posts: %w", err)
	}
	return posts, nil
}

// Update applies content edits under the state-machine rules: a published
// post is immutable, and moving the schedule moves the status with it.
func (s *postService) Update(ctx context.Context, workspaceID, postID int64, pu *transfer.PostUpdate) error {
	post, err := s.loadOwned(ctx, workspaceID, postID)
	if err != nil {
		return err
	}

	if post.IsTerminal() {
		return NewValidationError("post is already published and can no longer be edited")
	}
	if post.Status == models.PostStatusPublishing {
		return NewValidationError("post is currently being published")
	}

	if pu.Content != nil {
		if *pu.Content == "" {
			return NewValidationError("content cannot be empty")
		}
		post.Content = *pu.Content
	}
	if pu.Hashtags != nil {
		post.Hashtags = *pu.Hashtags
	}
	if pu.LinkURL != nil {
		post.LinkURL = *pu.LinkURL
	}

	if pu.ScheduledAt != nil {
		if *pu.ScheduledAt == "" {
			// Clearing the schedule reverts the post to a draft.
			post.ScheduledAt = nil
			if post.Status == models.PostStatusScheduled {
				post.Status = models.PostStatusDraft
			}
		} else {
			t, err := time.Parse(time.RFC3339, *pu.ScheduledAt)
			if err != nil {
				return NewValidationError("invalid scheduled time format")
			}
			if !t.After(time.Now()) {
				return NewValidationError("scheduled time must be in the future")
			}
			post.ScheduledAt = &t
			post.Status = models.PostStatusScheduled
		}
	}

	if err := s.pr.UpdateContent(ctx, post); err != nil {
		return fmt.Errorf("error updating post: %w", err)
	}

	s.invalidate(ctx, postID, workspaceID)
	return nil
}

func (s *postService) Remove(ctx context.Context, workspaceID, postID int64) error {
	post, err := s.loadOwned(ctx, workspaceID, postID)
	if err != nil {
		return err
	}

	if post.IsTerminal() {
		return NewValidationError("post is already published and cannot be deleted")
	}

	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}

	s.invalidate(ctx, postID, workspaceID)
	return nil
}

func (s *postService) loadOwned(ctx context.Context, workspaceID, postID int64) (*models.Post, error) {
	if workspaceID == 0 || postID == 0 {
		return nil, NewValidationError("post id is not valid")
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post: %w", err)
	}
	if post == nil || post.WorkspaceID != workspaceID {
		return nil, ErrPostNotFound
	}

	return post, nil
}

func (s *postService) invalidate(ctx context.Context, postID, workspaceID int64) {
	if s.ch == nil {
		return
	}
	if err := s.ch.Del(ctx, cache.PostKeys(postID, workspaceID)...); err != nil {
		slog.Info("cache invalidation failed", "post_id", postID, "error", err)
	}
}
