package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/transfer"
)

const (
	instagramGraphURL = "https://graph.instagram.com/v21.0"
	instagramBaseURL  = "https://graph.instagram.com"
)

// InstagramPublisher publishes image and carousel posts through the
// Instagram Graph API: one media container per image, then media_publish.
type InstagramPublisher struct {
	graphURL string
	baseURL  string
	client   *http.Client
}

func NewInstagramPublisher(timeout time.Duration) *InstagramPublisher {
	return &InstagramPublisher{
		graphURL: instagramGraphURL,
		baseURL:  instagramBaseURL,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *InstagramPublisher) Platform() string { return models.PlatformInstagram }

func (p *InstagramPublisher) Publish(ctx context.Context, req *Request) (*Result, error) {
	images := req.Images()
	if len(images) == 0 {
		return nil, &PreconditionError{Reason: "instagram requires at least one image"}
	}

	var containerID string
	var err error

	if len(images) == 1 {
		containerID, err = p.createContainer(ctx, req.AccountID, map[string]interface{}{
			"image_url":    images[0].URL,
			"caption":      req.Caption,
			"access_token": req.Credentials.AccessToken,
		})
	} else {
		containerID, err = p.createCarousel(ctx, req, images)
	}
	if err != nil {
		return nil, err
	}

	mediaID, err := p.publishContainer(ctx, req.AccountID, containerID, req.Credentials.AccessToken)
	if err != nil {
		return nil, err
	}

	result := &Result{PlatformPostID: mediaID}

	// Permalink lookup is best effort; a publish without a URL is still a
	// publish.
	permalink, err := p.fetchPermalink(ctx, mediaID, req.Credentials.AccessToken)
	if err != nil {
		slog.Info("instagram permalink lookup failed", "media_id", mediaID, "error", err)
	} else {
		result.PlatformURL = permalink
	}

	return result, nil
}

func (p *InstagramPublisher) createCarousel(ctx context.Context, req *Request, images []Media) (string, error) {
	childIDs := make([]string, 0, len(images))
	for _, image := range images {
		childID, err := p.createContainer(ctx, req.AccountID, map[string]interface{}{
			"image_url":        image.URL,
			"is_carousel_item": true,
			"access_token":     req.Credentials.AccessToken,
		})
		if err != nil {
			return "", err
		}
		childIDs = append(childIDs, childID)
	}

	return p.createContainer(ctx, req.AccountID, map[string]interface{}{
		"media_type":   "CAROUSEL",
		"caption":      req.Caption,
		"children":     childIDs,
		"access_token": req.Credentials.AccessToken,
	})
}

func (p *InstagramPublisher) createContainer(ctx context.Context, accountID string, payload map[string]interface{}) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/media", p.graphURL, accountID)
	return p.postForID(ctx, endpoint, payload)
}

func (p *InstagramPublisher) publishContainer(ctx context.Context, accountID, containerID, accessToken string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/media_publish", p.graphURL, accountID)
	return p.postForID(ctx, endpoint, map[string]interface{}{
		"creation_id":  containerID,
		"access_token": accessToken,
	})
}

func (p *InstagramPublisher) postForID(ctx context.Context, endpoint string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", &NetworkError{Platform: models.PlatformInstagram, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Platform: models.PlatformInstagram, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var igErr transfer.InstagramErrorResponse
		_ = json.Unmarshal(respBody, &igErr)
		return "", &UpstreamError{
			Platform:   models.PlatformInstagram,
			StatusCode: resp.StatusCode,
			Message:    igErr.Error.Message,
		}
	}

	var result transfer.InstagramMediaResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.ID == "" {
		return "", &UpstreamError{
			Platform:   models.PlatformInstagram,
			StatusCode: resp.StatusCode,
			Message:    "no media ID returned",
		}
	}

	return result.ID, nil
}

func (p *InstagramPublisher) fetchPermalink(ctx context.Context, mediaID, accessToken string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=permalink&access_token=%s", p.graphURL, mediaID, url.QueryEscape(accessToken))

	httpReq, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code from Instagram: %d", resp.StatusCode)
	}

	var result transfer.InstagramPermalinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Permalink, nil
}

// RefreshToken extends an Instagram long-lived token. Instagram has no
// separate refresh token; the stored refresh token is the long-lived access
// token itself.
func (p *InstagramPublisher) RefreshToken(ctx context.Context, creds Credentials) (*RefreshedToken, error) {
	endpoint := fmt.Sprintf(
		"%s/refresh_access_token?grant_type=ig_refresh_token&access_token=%s",
		p.baseURL,
		url.QueryEscape(creds.RefreshToken),
	)

	httpReq, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Platform: models.PlatformInstagram, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Platform: models.PlatformInstagram, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var igErr transfer.InstagramErrorResponse
		_ = json.Unmarshal(respBody, &igErr)
		return nil, &UpstreamError{
			Platform:   models.PlatformInstagram,
			StatusCode: resp.StatusCode,
			Message:    igErr.Error.Message,
		}
	}

	var result transfer.InstagramRefreshResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	return &RefreshedToken{
		AccessToken:  result.AccessToken,
		RefreshToken: result.AccessToken,
		ExpiresAt:    time.Now().Add(time.Second * time.Duration(result.ExpiresIn)),
	}, nil
}
