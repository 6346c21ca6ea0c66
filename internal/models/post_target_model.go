package models

import "time"

// PostTarget is one (post, social account) publication attempt. Rows are
// created together with the parent post and are only mutated by the publish
// orchestrator.
type PostTarget struct {
	ID             int64      `db:"id" json:"id"`
	PostID         int64      `db:"post_id" json:"post_id"`
	AccountID      int64      `db:"account_id" json:"account_id"`
	Status         string     `db:"status" json:"status"`
	PlatformPostID string     `db:"platform_post_id" json:"platform_post_id"`
	PlatformURL    string     `db:"platform_url" json:"platform_url"`
	ErrorMessage   string     `db:"error_message" json:"error_message"`
	PublishedAt    *time.Time `db:"published_at" json:"published_at"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	TargetStatusDraft     = "draft"
	TargetStatusScheduled = "scheduled"
	TargetStatusPublished = "published"
	TargetStatusFailed    = "failed"
)
