package models

import (
	"time"
)

// SocialAccount is a workspace's connection to one platform identity.
// AccessToken and RefreshToken are stored AES-GCM encrypted; they are
// decrypted only for the duration of a publish or refresh call.
type SocialAccount struct {
	ID              int64      `db:"id" json:"id"`
	WorkspaceID     int64      `db:"workspace_id" json:"workspace_id"`
	Platform        string     `db:"platform" json:"platform"`
	AccountID       string     `db:"account_id" json:"account_id"`
	AccountName     string     `db:"account_name" json:"account_name"`
	AccountUsername string     `db:"account_username" json:"account_username"`
	ProfilePicture  string     `db:"profile_picture_url" json:"profile_picture"`
	AccessToken     string     `db:"access_token" json:"-"`
	RefreshToken    string     `db:"refresh_token" json:"-"`
	TokenExpiresAt  *time.Time `db:"token_expires_at" json:"token_expires_at"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	LastSyncedAt    *time.Time `db:"last_synced_at" json:"last_synced_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	PlatformInstagram = "instagram"
	PlatformTiktok    = "tiktok"
	PlatformYoutube   = "youtube"
)
