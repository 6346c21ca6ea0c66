package models

import (
	"time"

	"github.com/lib/pq"
)

type Post struct {
	ID              int64          `db:"id" json:"id"`
	PublicID        string         `db:"public_id" json:"public_id"`
	WorkspaceID     int64          `db:"workspace_id" json:"workspace_id"`
	UserID          int64          `db:"user_id" json:"user_id"`
	Content         string         `db:"content" json:"content"`
	ContentType     string         `db:"content_type" json:"content_type"`
	Status          string         `db:"status" json:"status"`
	ScheduledAt     *time.Time     `db:"scheduled_at" json:"scheduled_at"`
	PublishedAt     *time.Time     `db:"published_at" json:"published_at"`
	ApprovalStatus  string         `db:"approval_status" json:"approval_status"`
	ApprovedBy      *int64         `db:"approved_by" json:"approved_by"`
	RejectionReason string         `db:"rejection_reason" json:"rejection_reason"`
	Hashtags        pq.StringArray `db:"hashtags" json:"hashtags"`
	LinkURL         string         `db:"link_url" json:"link_url"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

type MediaAsset struct {
	ID           int64     `db:"id" json:"id"`
	WorkspaceID  int64     `db:"workspace_id" json:"workspace_id"`
	FileName     string    `db:"file_name" json:"file_name"`
	FileType     string    `db:"file_type" json:"file_type"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	FileURL      string    `db:"file_url" json:"file_url"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnail_url"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type PostMedia struct {
	PostID       int64     `db:"post_id" json:"post_id"`
	AssetID      int64     `db:"asset_id" json:"asset_id"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	PostStatusDraft      = "draft"
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

const (
	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeVideo    = "video"
	ContentTypeCarousel = "carousel"
	ContentTypeStory    = "story"
	ContentTypeReel     = "reel"
)

const (
	ApprovalNone     = "none"
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// IsTerminal reports whether the post has reached a state that blocks
// content edits and deletes.
func (p *Post) IsTerminal() bool {
	return p.Status == PostStatusPublished
}
