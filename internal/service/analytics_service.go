package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
)

// AnalyticsClient forwards periodic publishing counters to the external
// analytics service. It satisfies the snapshot collaborator used by the
// background scheduler.
type AnalyticsClient struct {
	baseURL  string
	interval time.Duration
	pr       repository.PostRepository
	client   *http.Client
}

func NewAnalyticsClient(baseURL string, interval time.Duration, pr repository.PostRepository) *AnalyticsClient {
	return &AnalyticsClient{
		baseURL:  baseURL,
		interval: interval,
		pr:       pr,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type analyticsSnapshot struct {
	TakenAt        time.Time `json:"taken_at"`
	WindowStart    time.Time `json:"window_start"`
	PostsPublished int64     `json:"posts_published"`
	PostsFailed    int64     `json:"posts_failed"`
}

func (c *AnalyticsClient) Snapshot(ctx context.Context) error {
	now := time.Now()
	since := now.Add(-c.interval)

	published, err := c.pr.CountByStatusSince(ctx, models.PostStatusPublished, since)
	if err != nil {
		return fmt.Errorf("error counting published posts: %w", err)
	}

	failed, err := c.pr.CountByStatusSince(ctx, models.PostStatusFailed, since)
	if err != nil {
		return fmt.Errorf("error counting failed posts: %w", err)
	}

	snapshot := analyticsSnapshot{
		TakenAt:        now,
		WindowStart:    since,
		PostsPublished: published,
		PostsFailed:    failed,
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/snapshots", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending analytics snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("analytics service returned status %d", resp.StatusCode)
	}

	return nil
}
