package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/postpilothq/postpilot/configs"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/publisher"
)

type publishFixture struct {
	pr  *fakePostRepo
	tr  *fakeTargetRepo
	ac  *fakeAccountRepo
	pm  *fakePostMediaRepo
	ma  *fakeAssetRepo
	ig  *fakePublisher
	tt  *fakePublisher
	svc PublishService
}

func newPublishFixture(policy config.Publish, hooks ...PublishHook) *publishFixture {
	f := &publishFixture{
		pr: newFakePostRepo(),
		tr: newFakeTargetRepo(),
		ac: newFakeAccountRepo(),
		pm: &fakePostMediaRepo{},
		ma: newFakeAssetRepo(),
		ig: &fakePublisher{platform: models.PlatformInstagram, result: publisher.Result{PlatformPostID: "ig-1", PlatformURL: "https://instagram.com/p/ig-1"}},
		tt: &fakePublisher{platform: models.PlatformTiktok, result: publisher.Result{PlatformPostID: "tt-1"}},
	}

	registry := publisher.NewRegistry(f.ig, f.tt)
	f.svc = NewPublishService(f.pr, f.tr, f.ac, f.pm, f.ma, registry, fakeCipher{}, policy, hooks...)
	return f
}

func (f *publishFixture) scheduledPost() *models.Post {
	scheduledAt := time.Now().Add(-time.Minute)
	return f.pr.add(&models.Post{
		WorkspaceID: 1,
		UserID:      7,
		Content:     "hello world",
		ContentType: models.ContentTypeText,
		Status:      models.PostStatusScheduled,
		ScheduledAt: &scheduledAt,
	})
}

func (f *publishFixture) account(platform string) *models.SocialAccount {
	return f.ac.add(&models.SocialAccount{
		WorkspaceID: 1,
		Platform:    platform,
		AccountID:   "acc-" + platform,
		AccessToken: "enc:token-" + platform,
		IsActive:    true,
	})
}

func (f *publishFixture) target(postID, accountID int64) *models.PostTarget {
	return f.tr.add(&models.PostTarget{
		PostID:    postID,
		AccountID: accountID,
		Status:    models.TargetStatusScheduled,
	})
}

func TestPublishAllTargetsSucceed(t *testing.T) {
	f := newPublishFixture(config.Publish{})
	post := f.scheduledPost()
	igAccount := f.account(models.PlatformInstagram)
	ttAccount := f.account(models.PlatformTiktok)
	f.target(post.ID, igAccount.ID)
	f.target(post.ID, ttAccount.ID)

	result, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusPublished, result.Status)
	assert.Equal(t, 2, result.SucceededCount())
	assert.Equal(t, 0, result.FailedCount())

	stored, _ := f.pr.GetByID(context.Background(), post.ID)
	assert.Equal(t, models.PostStatusPublished, stored.Status)
	require.NotNil(t, stored.PublishedAt)

	targets, _ := f.tr.ListByPostID(context.Background(), post.ID)
	for _, target := range targets {
		assert.Equal(t, models.TargetStatusPublished, target.Status)
		assert.NotEmpty(t, target.PlatformPostID)
	}
}

func TestPublishDecryptsTokenForAdapter(t *testing.T) {
	f := newPublishFixture(config.Publish{})
	post := f.scheduledPost()
	igAccount := f.account(models.PlatformInstagram)
	f.target(post.ID, igAccount.ID)

	_, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)

	require.Len(t, f.ig.requests, 1)
	assert.Equal(t, "token-instagram", f.ig.requests[0].Credentials.AccessToken)
}

func TestPublishPartialSuccessStillPublishes(t *testing.T) {
	f := newPublishFixture(config.Publish{})
	f.tt.err = &publisher.UpstreamError{Platform: models.PlatformTiktok, StatusCode: 500, Message: "server error"}

	post := f.scheduledPost()
	igAccount := f.account(models.PlatformInstagram)
	ttAccount := f.account(models.PlatformTiktok)
	f.target(post.ID, igAccount.ID)
	ttTarget := f.target(post.ID, ttAccount.ID)

	result, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusPublished, result.Status)
	assert.Equal(t, 1, result.SucceededCount())
	assert.Equal(t, 1, result.FailedCount())

	assert.Equal(t, models.TargetStatusFailed, ttTarget.Status)
	assert.Contains(t, ttTarget.ErrorMessage, "server error")
}

func TestPublishPartialFailsPolicy(t *testing.T) {
	f := newPublishFixture(config.Publish{PartialFails: true})
	f.tt.err = &publisher.UpstreamError{Platform: models.PlatformTiktok, StatusCode: 500, Message: "server error"}

	post := f.scheduledPost()
	igAccount := f.account(models.PlatformInstagram)
	ttAccount := f.account(models.PlatformTiktok)
	f.target(post.ID, igAccount.ID)
	f.target(post.ID, ttAccount.ID)

	result, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusFailed, result.Status)

	stored, _ := f.pr.GetByID(context.Background(), post.ID)
	assert.Equal(t, models.PostStatusFailed, stored.Status)
}

func TestPublishNoTargetsFails(t *testing.T) {
	nr := &fakeNotificationRepo{}
	f := newPublishFixture(config.Publish{}, NewNotificationHook(nr))
	post := f.scheduledPost()

	result, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusFailed, result.Status)
	assert.Empty(t, result.Outcomes)

	require.Len(t, nr.created, 1)
	assert.Contains(t, nr.created[0].Message, "no targets")
}

func TestPublishAlreadyPublishedIsNoOp(t *testing.T) {
	f := newPublishFixture(config.Publish{})
	post := f.scheduledPost()
	post.Status = models.PostStatusPublished

	result, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusPublished, result.Status)
	assert.Empty(t, f.ig.requests)
	assert.Empty(t, f.tt.requests)
}

func TestPublishConcurrentClaimRejected(t *testing.T) {
	f := newPublishFixture(config.Publish{})
	post := f.scheduledPost()
	post.Status = models.PostStatusPublishing

	_, err := f.svc.Publish(context.Background(), post.ID)
	assert.ErrorIs(t, err, ErrPublishInProgress)
}

func TestPublishUnknownPostNotFound(t *testing.T) {
	f := newPublishFixture(config.Publish{})

	_, err := f.svc.Publish(context.Background(), 999)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPublishRetrySkipsPublishedTargets(t *testing.T) {
	f := newPublishFixture(config.Publish{})
	f.tt.err = &publisher.UpstreamError{Platform: models.PlatformTiktok, StatusCode: 500, Message: "server error"}

	post := f.scheduledPost()
	igAccount := f.account(models.PlatformInstagram)
	ttAccount := f.account(models.PlatformTiktok)
	igTarget := f.target(post.ID, igAccount.ID)
	f.target(post.ID, ttAccount.ID)

	igTarget.Status = models.TargetStatusPublished
	igTarget.PlatformPostID = "ig-already"
	post.Status = models.PostStatusFailed

	result, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)

	// The published target is not re-attempted so no duplicate is created.
	assert.Empty(t, f.ig.requests)
	require.Len(t, result.Outcomes, 2)
	assert.True(t, result.Outcomes[0].Skipped)
	assert.Equal(t, "ig-already", result.Outcomes[0].PlatformPostID)

	// One target still counts as published, so the retry settles published.
	assert.Equal(t, models.PostStatusPublished, result.Status)
}

func TestPublishRetryAllReattemptsPublishedTargets(t *testing.T) {
	f := newPublishFixture(config.Publish{RetryAll: true})
	post := f.scheduledPost()
	igAccount := f.account(models.PlatformInstagram)
	igTarget := f.target(post.ID, igAccount.ID)

	igTarget.Status = models.TargetStatusPublished
	igTarget.PlatformPostID = "ig-already"
	post.Status = models.PostStatusFailed

	_, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)

	assert.Len(t, f.ig.requests, 1)
}

func TestPublishDisconnectedAccountFailsTarget(t *testing.T) {
	f := newPublishFixture(config.Publish{})
	post := f.scheduledPost()
	igAccount := f.account(models.PlatformInstagram)
	igAccount.IsActive = false
	target := f.target(post.ID, igAccount.ID)

	result, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusFailed, result.Status)
	assert.Equal(t, models.TargetStatusFailed, target.Status)
	assert.Contains(t, target.ErrorMessage, "disconnected")
	assert.Empty(t, f.ig.requests)
}

func TestPublishUnsupportedPlatformFailsTarget(t *testing.T) {
	f := newPublishFixture(config.Publish{})
	post := f.scheduledPost()
	account := f.account("myspace")
	target := f.target(post.ID, account.ID)

	result, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusFailed, result.Status)
	assert.Equal(t, models.TargetStatusFailed, target.Status)
}

func TestPublishBadCiphertextFailsTarget(t *testing.T) {
	f := newPublishFixture(config.Publish{})
	post := f.scheduledPost()
	account := f.account(models.PlatformInstagram)
	account.AccessToken = "garbage"
	target := f.target(post.ID, account.ID)

	result, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PostStatusFailed, result.Status)
	assert.Equal(t, models.TargetStatusFailed, target.Status)
	// The raw token value must never leak into the recorded error.
	assert.NotContains(t, target.ErrorMessage, "garbage")
}

func TestPublishAttachesMedia(t *testing.T) {
	f := newPublishFixture(config.Publish{})
	post := f.scheduledPost()
	post.ContentType = models.ContentTypeImage
	igAccount := f.account(models.PlatformInstagram)
	f.target(post.ID, igAccount.ID)

	f.ma.assets[1] = &models.MediaAsset{ID: 1, WorkspaceID: 1, FileURL: "https://cdn.example.com/a.jpg", FileType: "image/jpeg"}
	f.pm.media = append(f.pm.media, &models.PostMedia{PostID: post.ID, AssetID: 1, DisplayOrder: 0})

	_, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)

	require.Len(t, f.ig.requests, 1)
	require.Len(t, f.ig.requests[0].Media, 1)
	assert.Equal(t, "https://cdn.example.com/a.jpg", f.ig.requests[0].Media[0].URL)
}

func TestPublishCaptionIncludesHashtagsAndLink(t *testing.T) {
	f := newPublishFixture(config.Publish{})
	post := f.scheduledPost()
	post.Hashtags = []string{"golang", "#release"}
	post.LinkURL = "https://example.com"
	igAccount := f.account(models.PlatformInstagram)
	f.target(post.ID, igAccount.ID)

	_, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)

	require.Len(t, f.ig.requests, 1)
	caption := f.ig.requests[0].Caption
	assert.Contains(t, caption, "hello world")
	assert.Contains(t, caption, "#golang")
	assert.Contains(t, caption, "#release")
	assert.NotContains(t, caption, "##release")
	assert.Contains(t, caption, "https://example.com")
}

type recordingHook struct {
	posts   []*models.Post
	results []*PublishResult
	err     error
}

func (h *recordingHook) AfterPublish(ctx context.Context, post *models.Post, result *PublishResult) error {
	h.posts = append(h.posts, post)
	h.results = append(h.results, result)
	return h.err
}

func TestPublishRunsHooks(t *testing.T) {
	hook := &recordingHook{}
	f := newPublishFixture(config.Publish{}, hook)
	post := f.scheduledPost()
	igAccount := f.account(models.PlatformInstagram)
	f.target(post.ID, igAccount.ID)

	result, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)

	require.Len(t, hook.results, 1)
	assert.Equal(t, result, hook.results[0])
	assert.Equal(t, models.PostStatusPublished, hook.posts[0].Status)
}

func TestPublishHookFailureDoesNotChangeOutcome(t *testing.T) {
	hook := &recordingHook{err: errors.New("hook broke")}
	f := newPublishFixture(config.Publish{}, hook)
	post := f.scheduledPost()
	igAccount := f.account(models.PlatformInstagram)
	f.target(post.ID, igAccount.ID)

	result, err := f.svc.Publish(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, result.Status)
}

func TestNotificationHookRecordsOutcome(t *testing.T) {
	nr := &fakeNotificationRepo{}
	hook := NewNotificationHook(nr)

	post := &models.Post{ID: 3, UserID: 7}
	result := &PublishResult{
		PostID: 3,
		Status: models.PostStatusPublished,
		Outcomes: []TargetOutcome{
			{TargetID: 1, Status: models.TargetStatusPublished},
			{TargetID: 2, Status: models.TargetStatusFailed, ErrorMessage: "boom"},
		},
	}

	require.NoError(t, hook.AfterPublish(context.Background(), post, result))
	require.Len(t, nr.created, 1)
	assert.Equal(t, models.NotificationPostPublished, nr.created[0].Type)
	assert.Contains(t, nr.created[0].Message, "1 platform(s) failed")
	assert.Contains(t, nr.created[0].Data, "boom")
}
