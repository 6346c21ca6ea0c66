package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	config "github.com/postpilothq/postpilot/configs"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/publisher"
	"github.com/postpilothq/postpilot/internal/repository"
)

// Cipher is the encryption collaborator for OAuth token fields.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// TargetOutcome is the per-platform result of one publish run.
type TargetOutcome struct {
	TargetID       int64  `json:"target_id"`
	AccountID      int64  `json:"account_id"`
	Platform       string `json:"platform"`
	Status         string `json:"status"`
	PlatformPostID string `json:"platform_post_id,omitempty"`
	PlatformURL    string `json:"platform_url,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
	Skipped        bool   `json:"skipped,omitempty"`
}

// PublishResult aggregates all target outcomes plus the post's final status.
type PublishResult struct {
	PostID   int64           `json:"post_id"`
	Status   string          `json:"status"`
	Outcomes []TargetOutcome `json:"outcomes"`
}

func (r *PublishResult) SucceededCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == models.TargetStatusPublished {
			n++
		}
	}
	return n
}

func (r *PublishResult) FailedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == models.TargetStatusFailed {
			n++
		}
	}
	return n
}

// PublishHook runs after a publish run completes. Hooks are side effects
// (notifications, cache invalidation); their failures are logged and never
// change the publish outcome.
type PublishHook interface {
	AfterPublish(ctx context.Context, post *models.Post, result *PublishResult) error
}

type PublishService interface {
	Publish(ctx context.Context, postID int64) (*PublishResult, error)
}

type publishService struct {
	pr     repository.PostRepository
	tr     repository.PostTargetRepository
	ac     repository.SocialAccountRepository
	pm     repository.PostMediaRepository
	ma     repository.MediaAssetRepository
	reg    *publisher.Registry
	cipher Cipher
	policy config.Publish
	hooks  []PublishHook
}

func NewPublishService(
	pr repository.PostRepository,
	tr repository.PostTargetRepository,
	ac repository.SocialAccountRepository,
	pm repository.PostMediaRepository,
	ma repository.MediaAssetRepository,
	reg *publisher.Registry,
	cipher Cipher,
	policy config.Publish,
	hooks ...PublishHook) PublishService {
	return &publishService{
		pr:     pr,
		tr:     tr,
		ac:     ac,
		pm:     pm,
		ma:     ma,
		reg:    reg,
		cipher: cipher,
		policy: policy,
		hooks:  hooks,
	}
}

// Publish drives one post through the publication state machine: claim it,
// attempt every target with failures isolated per target, then settle the
// aggregate status. Targets are attempted sequentially in insertion order so
// results are deterministic.
func (s *publishService) Publish(ctx context.Context, postID int64) (*PublishResult, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error loading post %d: %w", postID, err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	claimed, err := s.pr.ClaimForPublishing(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error claiming post %d: %w", postID, err)
	}
	if !claimed {
		// Either another run holds the claim or the post is already
		// published; both mean there is nothing for this run to do.
		if post.Status == models.PostStatusPublished {
			return &PublishResult{PostID: postID, Status: post.Status}, nil
		}
		return nil, ErrPublishInProgress
	}
	post.Status = models.PostStatusPublishing

	targets, err := s.tr.ListByPostID(ctx, postID)
	if err != nil {
		// The claim is already taken; fail the post rather than leaving it
		// stuck in publishing.
		s.settle(ctx, post, &PublishResult{PostID: postID})
		return nil, fmt.Errorf("error loading targets for post %d: %w", postID, err)
	}

	media, err := s.loadMedia(ctx, postID)
	if err != nil {
		s.settle(ctx, post, &PublishResult{PostID: postID})
		return nil, fmt.Errorf("error loading media for post %d: %w", postID, err)
	}

	result := &PublishResult{PostID: postID, Outcomes: make([]TargetOutcome, 0, len(targets))}
	for _, target := range targets {
		result.Outcomes = append(result.Outcomes, s.attemptTarget(ctx, post, target, media))
	}

	s.settle(ctx, post, result)

	for _, hook := range s.hooks {
		if err := hook.AfterPublish(ctx, post, result); err != nil {
			slog.Info("publish hook failed", "post_id", postID, "error", err)
		}
	}

	return result, nil
}

func (s *publishService) attemptTarget(ctx context.Context, post *models.Post, target *models.PostTarget, media []publisher.Media) TargetOutcome {
	outcome := TargetOutcome{TargetID: target.ID, AccountID: target.AccountID}

	if target.Status == models.TargetStatusPublished && !s.policy.RetryAll {
		// Already on the platform; re-attempting would duplicate the post.
		outcome.Status = models.TargetStatusPublished
		outcome.PlatformPostID = target.PlatformPostID
		outcome.PlatformURL = target.PlatformURL
		outcome.Skipped = true
		return outcome
	}

	fail := func(message string) TargetOutcome {
		outcome.Status = models.TargetStatusFailed
		outcome.ErrorMessage = message
		if err := s.tr.MarkFailed(ctx, target.ID, message); err != nil {
			slog.Info("failed to record target failure", "target_id", target.ID, "error", err)
		}
		return outcome
	}

	account, err := s.ac.GetByID(ctx, target.AccountID)
	if err != nil {
		return fail(fmt.Sprintf("error loading social account: %v", err))
	}
	if account == nil || !account.IsActive {
		return fail("social account is disconnected")
	}
	outcome.Platform = account.Platform

	pub, err := s.reg.Get(account.Platform)
	if err != nil {
		return fail(err.Error())
	}

	accessToken, err := s.cipher.Decrypt(account.AccessToken)
	if err != nil {
		return fail("unable to decrypt access token")
	}

	req := &publisher.Request{
		AccountID:   account.AccountID,
		Caption:     buildCaption(post),
		ContentType: post.ContentType,
		Media:       media,
		Credentials: publisher.Credentials{AccessToken: accessToken},
	}

	res, err := pub.Publish(ctx, req)
	if err != nil {
		return fail(err.Error())
	}

	publishedAt := time.Now()
	outcome.Status = models.TargetStatusPublished
	outcome.PlatformPostID = res.PlatformPostID
	outcome.PlatformURL = res.PlatformURL
	if err := s.tr.MarkPublished(ctx, target.ID, res.PlatformPostID, res.PlatformURL, publishedAt); err != nil {
		slog.Info("failed to record target success", "target_id", target.ID, "error", err)
	}

	return outcome
}

// settle computes the aggregate post status from the per-target outcomes and
// persists it. A post with no targets has nothing it could have published,
// so it settles as failed.
func (s *publishService) settle(ctx context.Context, post *models.Post, result *PublishResult) {
	succeeded := result.SucceededCount()
	failed := result.FailedCount()

	published := succeeded > 0
	if s.policy.PartialFails && failed > 0 {
		published = false
	}

	if published {
		now := time.Now()
		if err := s.pr.MarkPublished(ctx, post.ID, now); err != nil {
			slog.Info("failed to mark post published", "post_id", post.ID, "error", err)
		}
		post.Status = models.PostStatusPublished
		if post.PublishedAt == nil {
			post.PublishedAt = &now
		}
	} else {
		if err := s.pr.SetStatus(ctx, models.PostStatusFailed, post.ID); err != nil {
			slog.Info("failed to mark post failed", "post_id", post.ID, "error", err)
		}
		post.Status = models.PostStatusFailed
	}

	result.Status = post.Status
}

func (s *publishService) loadMedia(ctx context.Context, postID int64) ([]publisher.Media, error) {
	postMedias, err := s.pm.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	media := make([]publisher.Media, 0, len(postMedias))
	for _, pm := range postMedias {
		asset, err := s.ma.GetByID(ctx, pm.AssetID)
		if err != nil {
			return nil, err
		}
		if asset == nil || asset.FileURL == "" {
			return nil, fmt.Errorf("media asset %d is missing or incomplete", pm.AssetID)
		}
		media = append(media, publisher.Media{URL: asset.FileURL, MIMEType: asset.FileType})
	}

	return media, nil
}

func buildCaption(post *models.Post) string {
	parts := []string{post.Content}

	if len(post.Hashtags) > 0 {
		tags := make([]string, 0, len(post.Hashtags))
		for _, tag := range post.Hashtags {
			if !strings.HasPrefix(tag, "#") {
				tag = "#" + tag
			}
			tags = append(tags, tag)
		}
		parts = append(parts, strings.Join(tags, " "))
	}

	if post.LinkURL != "" {
		parts = append(parts, post.LinkURL)
	}

	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}
