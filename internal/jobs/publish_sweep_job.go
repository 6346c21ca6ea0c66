package job

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/service"
)

// PublishSweepJob finds due posts and hands each to the publish
// orchestrator. One failing post never aborts the rest of the batch.
type PublishSweepJob struct {
	pr        repository.PostRepository
	ps        service.PublishService
	nr        repository.NotificationRepository
	batchSize int
}

func NewPublishSweepJob(
	pr repository.PostRepository,
	ps service.PublishService,
	nr repository.NotificationRepository,
	batchSize int) *PublishSweepJob {
	return &PublishSweepJob{
		pr:        pr,
		ps:        ps,
		nr:        nr,
		batchSize: batchSize,
	}
}

func (j *PublishSweepJob) Run() {
	j.Sweep(context.Background())
}

func (j *PublishSweepJob) Sweep(ctx context.Context) {
	posts, err := j.pr.ListDue(ctx, time.Now(), j.batchSize)
	if err != nil {
		slog.Error("publish sweep: unable to list due posts", "error", err)
		return
	}

	for _, post := range posts {
		if _, err := j.ps.Publish(ctx, post.ID); err != nil {
			if errors.Is(err, service.ErrPublishInProgress) {
				continue
			}
			slog.Error("publish sweep: post failed", "post_id", post.ID, "error", err)
			j.notifyFailure(ctx, post, err)
		}
	}
}

// notifyFailure covers the path where the orchestrator errored out before it
// could run its own hooks.
func (j *PublishSweepJob) notifyFailure(ctx context.Context, post *models.Post, publishErr error) {
	notification := &models.Notification{
		UserID:  post.UserID,
		Type:    models.NotificationPostFailed,
		Title:   "Post failed",
		Message: "Your scheduled post could not be published: " + publishErr.Error(),
	}
	if _, err := j.nr.Create(ctx, notification); err != nil {
		slog.Info("unable to create failure notification", "post_id", post.ID, "error", err)
	}
}
