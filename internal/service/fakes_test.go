package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/publisher"
)

type fakePostRepo struct {
	posts  map[int64]*models.Post
	nextID int64
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[int64]*models.Post), nextID: 1}
}

func (r *fakePostRepo) add(post *models.Post) *models.Post {
	if post.ID == 0 {
		post.ID = r.nextID
		r.nextID++
	}
	r.posts[post.ID] = post
	return post
}

func (r *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	r.add(post)
	return post.ID, nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *post
	return &copied, nil
}

func (r *fakePostRepo) ListByWorkspaceID(ctx context.Context, workspaceID int64) ([]*models.Post, error) {
	var posts []*models.Post
	for _, post := range r.posts {
		if post.WorkspaceID == workspaceID {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (r *fakePostRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error) {
	var due []*models.Post
	for _, post := range r.posts {
		if post.Status == models.PostStatusScheduled && post.ScheduledAt != nil && !post.ScheduledAt.After(now) {
			due = append(due, post)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(*due[j].ScheduledAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *fakePostRepo) ClaimForPublishing(ctx context.Context, id int64) (bool, error) {
	post, ok := r.posts[id]
	if !ok {
		return false, nil
	}
	if post.Status == models.PostStatusPublishing || post.Status == models.PostStatusPublished {
		return false, nil
	}
	post.Status = models.PostStatusPublishing
	return true, nil
}

func (r *fakePostRepo) SetStatus(ctx context.Context, status string, id int64) error {
	if post, ok := r.posts[id]; ok {
		post.Status = status
	}
	return nil
}

func (r *fakePostRepo) MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error {
	if post, ok := r.posts[id]; ok {
		post.Status = models.PostStatusPublished
		if post.PublishedAt == nil {
			post.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (r *fakePostRepo) UpdateContent(ctx context.Context, post *models.Post) error {
	stored, ok := r.posts[post.ID]
	if !ok {
		return errors.New("post not found")
	}
	*stored = *post
	return nil
}

func (r *fakePostRepo) CheckByWorkspaceID(ctx context.Context, postID, workspaceID int64) (bool, error) {
	post, ok := r.posts[postID]
	return ok && post.WorkspaceID == workspaceID, nil
}

func (r *fakePostRepo) CountByStatusSince(ctx context.Context, status string, since time.Time) (int64, error) {
	var count int64
	for _, post := range r.posts {
		if post.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakePostRepo) Remove(ctx context.Context, id int64) error {
	delete(r.posts, id)
	return nil
}

type fakeTargetRepo struct {
	targets map[int64]*models.PostTarget
	nextID  int64
}

func newFakeTargetRepo() *fakeTargetRepo {
	return &fakeTargetRepo{targets: make(map[int64]*models.PostTarget), nextID: 1}
}

func (r *fakeTargetRepo) add(target *models.PostTarget) *models.PostTarget {
	if target.ID == 0 {
		target.ID = r.nextID
		r.nextID++
	}
	r.targets[target.ID] = target
	return target
}

func (r *fakeTargetRepo) Create(ctx context.Context, tx *sql.Tx, target *models.PostTarget) (int64, error) {
	r.add(target)
	return target.ID, nil
}

func (r *fakeTargetRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error) {
	var targets []*models.PostTarget
	for _, target := range r.targets {
		if target.PostID == postID {
			targets = append(targets, target)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].ID < targets[j].ID })
	return targets, nil
}

func (r *fakeTargetRepo) MarkPublished(ctx context.Context, id int64, platformPostID, platformURL string, publishedAt time.Time) error {
	target, ok := r.targets[id]
	if !ok {
		return errors.New("target not found")
	}
	target.Status = models.TargetStatusPublished
	target.PlatformPostID = platformPostID
	target.PlatformURL = platformURL
	target.PublishedAt = &publishedAt
	return nil
}

func (r *fakeTargetRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	target, ok := r.targets[id]
	if !ok {
		return errors.New("target not found")
	}
	target.Status = models.TargetStatusFailed
	target.ErrorMessage = errorMessage
	return nil
}

type fakeAccountRepo struct {
	accounts map[int64]*models.SocialAccount
	nextID   int64
	updated  map[int64]*models.SocialAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts: make(map[int64]*models.SocialAccount),
		updated:  make(map[int64]*models.SocialAccount),
		nextID:   1,
	}
}

func (r *fakeAccountRepo) add(account *models.SocialAccount) *models.SocialAccount {
	if account.ID == 0 {
		account.ID = r.nextID
		r.nextID++
	}
	r.accounts[account.ID] = account
	return account
}

func (r *fakeAccountRepo) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	r.add(sa)
	return sa.ID, nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	account, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return account, nil
}

func (r *fakeAccountRepo) ListByWorkspaceID(ctx context.Context, workspaceID int64) ([]*models.SocialAccount, error) {
	var accounts []*models.SocialAccount
	for _, account := range r.accounts {
		if account.WorkspaceID == workspaceID && account.IsActive {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

func (r *fakeAccountRepo) ListExpiring(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialAccount, error) {
	var accounts []*models.SocialAccount
	for _, account := range r.accounts {
		if !account.IsActive || account.RefreshToken == "" || account.TokenExpiresAt == nil {
			continue
		}
		if account.TokenExpiresAt.After(initialTime) && account.TokenExpiresAt.Before(finalTime) {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *fakeAccountRepo) CheckByWorkspaceID(ctx context.Context, accountID, workspaceID int64) (bool, error) {
	account, ok := r.accounts[accountID]
	return ok && account.WorkspaceID == workspaceID, nil
}

func (r *fakeAccountRepo) UpdateTokens(ctx context.Context, accountID int64, sa *models.SocialAccount) error {
	account, ok := r.accounts[accountID]
	if !ok {
		return errors.New("account not found")
	}
	if sa.AccessToken != "" {
		account.AccessToken = sa.AccessToken
	}
	if sa.RefreshToken != "" {
		account.RefreshToken = sa.RefreshToken
	}
	if sa.TokenExpiresAt != nil {
		account.TokenExpiresAt = sa.TokenExpiresAt
	}
	r.updated[accountID] = sa
	return nil
}

func (r *fakeAccountRepo) Deactivate(ctx context.Context, id int64) error {
	account, ok := r.accounts[id]
	if !ok {
		return errors.New("account not found")
	}
	account.IsActive = false
	return nil
}

type fakePostMediaRepo struct {
	media []*models.PostMedia
}

func (r *fakePostMediaRepo) Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) error {
	r.media = append(r.media, pm)
	return nil
}

func (r *fakePostMediaRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostMedia, error) {
	var media []*models.PostMedia
	for _, pm := range r.media {
		if pm.PostID == postID {
			media = append(media, pm)
		}
	}
	sort.Slice(media, func(i, j int) bool { return media[i].DisplayOrder < media[j].DisplayOrder })
	return media, nil
}

type fakeAssetRepo struct {
	assets map[int64]*models.MediaAsset
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{assets: make(map[int64]*models.MediaAsset)}
}

func (r *fakeAssetRepo) GetByID(ctx context.Context, id int64) (*models.MediaAsset, error) {
	asset, ok := r.assets[id]
	if !ok {
		return nil, nil
	}
	return asset, nil
}

func (r *fakeAssetRepo) CheckByWorkspaceID(ctx context.Context, assetID, workspaceID int64) (bool, error) {
	asset, ok := r.assets[assetID]
	return ok && asset.WorkspaceID == workspaceID, nil
}

type fakeNotificationRepo struct {
	created []*models.Notification
	nextID  int64
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) (int64, error) {
	r.nextID++
	n.ID = r.nextID
	r.created = append(r.created, n)
	return n.ID, nil
}

func (r *fakeNotificationRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Notification, error) {
	var notifications []*models.Notification
	for _, n := range r.created {
		if n.UserID == userID {
			notifications = append(notifications, n)
		}
	}
	return notifications, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID int64) error {
	for _, n := range r.created {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Remove(ctx context.Context, id, userID int64) error {
	for i, n := range r.created {
		if n.ID == id && n.UserID == userID {
			r.created = append(r.created[:i], r.created[i+1:]...)
			return nil
		}
	}
	return nil
}

// fakeCipher prefixes instead of encrypting so tests can assert on values.
type fakeCipher struct{}

func (fakeCipher) Encrypt(plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (fakeCipher) Decrypt(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, "enc:") {
		return "", errors.New("invalid ciphertext")
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

type fakePublisher struct {
	platform string
	err      error
	result   publisher.Result
	requests []*publisher.Request
}

func (p *fakePublisher) Platform() string { return p.platform }

func (p *fakePublisher) Publish(ctx context.Context, req *publisher.Request) (*publisher.Result, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	result := p.result
	return &result, nil
}

func (p *fakePublisher) RefreshToken(ctx context.Context, creds publisher.Credentials) (*publisher.RefreshedToken, error) {
	return nil, publisher.ErrRefreshNotSupported
}
