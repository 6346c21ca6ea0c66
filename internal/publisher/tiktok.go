package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/transfer"
)

const tiktokAPIURL = "https://open.tiktokapis.com/v2"

// TiktokPublisher posts videos and photo carousels through the TikTok
// content-posting API with PULL_FROM_URL sourcing, so media never moves
// through this process.
type TiktokPublisher struct {
	clientKey    string
	clientSecret string
	apiURL       string
	client       *http.Client
}

func NewTiktokPublisher(clientKey, clientSecret string, timeout time.Duration) *TiktokPublisher {
	return &TiktokPublisher{
		clientKey:    clientKey,
		clientSecret: clientSecret,
		apiURL:       tiktokAPIURL,
		client:       &http.Client{Timeout: timeout},
	}
}

func (p *TiktokPublisher) Platform() string { return models.PlatformTiktok }

func (p *TiktokPublisher) Publish(ctx context.Context, req *Request) (*Result, error) {
	if len(req.Media) == 0 {
		return nil, &PreconditionError{Reason: "tiktok requires video or photo media"}
	}

	switch req.ContentType {
	case models.ContentTypeImage, models.ContentTypeCarousel:
		return p.publishPhotos(ctx, req)
	default:
		return p.publishVideo(ctx, req)
	}
}

func (p *TiktokPublisher) publishVideo(ctx context.Context, req *Request) (*Result, error) {
	video, ok := req.FirstVideo()
	if !ok {
		return nil, &PreconditionError{Reason: "tiktok video post requires a video asset"}
	}

	uploadRequest := transfer.VideoUploadRequest{
		PostInfo: transfer.VideoPostInfo{
			Title:                 req.Caption,
			PrivacyLevel:          "PUBLIC_TO_EVERYONE",
			VideoCoverTimestampMs: 1000,
		},
		SourceInfo: transfer.VideoSourceInfo{
			Source:   "PULL_FROM_URL",
			VideoURL: video.URL,
		},
	}

	return p.initPublish(ctx, "/post/publish/video/init/", uploadRequest, req.Credentials.AccessToken)
}

func (p *TiktokPublisher) publishPhotos(ctx context.Context, req *Request) (*Result, error) {
	images := req.Images()
	if len(images) == 0 {
		return nil, &PreconditionError{Reason: "tiktok photo post requires at least one image"}
	}

	photos := make([]string, 0, len(images))
	for _, image := range images {
		photos = append(photos, image.URL)
	}

	uploadRequest := transfer.PhotoUploadRequest{
		PostInfo: transfer.PhotoPostInfo{
			Title:        req.Caption,
			PrivacyLevel: "PUBLIC_TO_EVERYONE",
			AutoAddMusic: true,
		},
		SourceInfo: transfer.PhotoSourceInfo{
			Source:      "PULL_FROM_URL",
			PhotoImages: photos,
		},
		PostMode:  "DIRECT_POST",
		MediaType: "PHOTO",
	}

	return p.initPublish(ctx, "/post/publish/content/init/", uploadRequest, req.Credentials.AccessToken)
}

func (p *TiktokPublisher) initPublish(ctx context.Context, path string, payload interface{}, accessToken string) (*Result, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.apiURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Platform: models.PlatformTiktok, Err: err}
	}
	defer resp.Body.Close()

	var result transfer.TiktokUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &NetworkError{Platform: models.PlatformTiktok, Err: err}
	}

	if resp.StatusCode != http.StatusOK || result.Data.PublishID == "" {
		return nil, &UpstreamError{
			Platform:   models.PlatformTiktok,
			StatusCode: resp.StatusCode,
			Message:    result.Error.Message,
		}
	}

	return &Result{PlatformPostID: result.Data.PublishID}, nil
}

func (p *TiktokPublisher) RefreshToken(ctx context.Context, creds Credentials) (*RefreshedToken, error) {
	data := url.Values{}
	data.Set("client_key", p.clientKey)
	data.Set("client_secret", p.clientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", creds.RefreshToken)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.apiURL+"/oauth/token/", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Platform: models.PlatformTiktok, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Platform: models.PlatformTiktok, Err: err}
	}

	var tokenResponse transfer.TiktokTokenResponse
	if err := json.Unmarshal(bodyBytes, &tokenResponse); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || tokenResponse.Error != "" {
		return nil, &UpstreamError{
			Platform:   models.PlatformTiktok,
			StatusCode: resp.StatusCode,
			Message:    tokenResponse.ErrorDescription,
		}
	}

	return &RefreshedToken{
		AccessToken:  tokenResponse.AccessToken,
		RefreshToken: tokenResponse.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Second * time.Duration(tokenResponse.ExpiresIn)),
	}, nil
}
