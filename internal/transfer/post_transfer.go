package transfer

// PostCreation is the request body for creating a post. ScheduledAt is
// RFC3339; leaving it empty creates a draft.
type PostCreation struct {
	Content     string   `json:"content"`
	ContentType string   `json:"content_type"`
	ScheduledAt string   `json:"scheduled_at"`
	AccountIDs  []int64  `json:"account_ids"`
	AssetIDs    []int64  `json:"asset_ids"`
	Hashtags    []string `json:"hashtags"`
	LinkURL     string   `json:"link_url"`
}

// PostUpdate carries partial edits. Nil fields are left untouched;
// ScheduledAt set to the empty string clears the schedule.
type PostUpdate struct {
	Content     *string   `json:"content"`
	ScheduledAt *string   `json:"scheduled_at"`
	Hashtags    *[]string `json:"hashtags"`
	LinkURL     *string   `json:"link_url"`
}
