package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/postpilothq/postpilot/internal/cache"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
)

// NotificationHook records a user-facing notification for every publish
// outcome, success or failure.
type NotificationHook struct {
	nr repository.NotificationRepository
}

func NewNotificationHook(nr repository.NotificationRepository) *NotificationHook {
	return &NotificationHook{nr: nr}
}

func (h *NotificationHook) AfterPublish(ctx context.Context, post *models.Post, result *PublishResult) error {
	notification := &models.Notification{
		UserID: post.UserID,
	}

	failed := result.FailedCount()

	if result.Status == models.PostStatusPublished {
		notification.Type = models.NotificationPostPublished
		notification.Title = "Post published"
		notification.Message = "Your post has been published."
		if failed > 0 {
			notification.Message = fmt.Sprintf("Your post has been published, but %d platform(s) failed.", failed)
		}
	} else {
		notification.Type = models.NotificationPostFailed
		notification.Title = "Post failed"
		notification.Message = "Your post could not be published."
		if len(result.Outcomes) == 0 {
			notification.Message = "Your post could not be published: post has no targets."
		}
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	notification.Data = string(data)

	_, err = h.nr.Create(ctx, notification)
	return err
}

// CacheInvalidationHook drops the read-cache entries for the post and its
// workspace after a publish run changes them.
type CacheInvalidationHook struct {
	ch cache.Cache
}

func NewCacheInvalidationHook(ch cache.Cache) *CacheInvalidationHook {
	return &CacheInvalidationHook{ch: ch}
}

func (h *CacheInvalidationHook) AfterPublish(ctx context.Context, post *models.Post, result *PublishResult) error {
	return h.ch.Del(ctx, cache.PostKeys(post.ID, post.WorkspaceID)...)
}
