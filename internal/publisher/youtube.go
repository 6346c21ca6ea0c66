package publisher

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/h2non/filetype"
	"github.com/postpilothq/postpilot/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YoutubePublisher uploads videos through the YouTube Data API. Unlike the
// PULL_FROM_URL platforms it has to move the bytes itself, so it pulls the
// asset through a MediaFetcher first.
type YoutubePublisher struct {
	clientID     string
	clientSecret string
	fetcher      MediaFetcher
}

func NewYoutubePublisher(clientID, clientSecret string, fetcher MediaFetcher) *YoutubePublisher {
	return &YoutubePublisher{
		clientID:     clientID,
		clientSecret: clientSecret,
		fetcher:      fetcher,
	}
}

func (p *YoutubePublisher) Platform() string { return models.PlatformYoutube }

func (p *YoutubePublisher) Publish(ctx context.Context, req *Request) (*Result, error) {
	video, ok := req.FirstVideo()
	if !ok {
		return nil, &PreconditionError{Reason: "youtube requires a video asset"}
	}

	videoBytes, err := p.fetcher.Fetch(ctx, video.URL)
	if err != nil {
		return nil, &NetworkError{Platform: models.PlatformYoutube, Err: err}
	}

	// The stored MIME type comes from upload time; sniff the actual bytes so
	// a mislabeled asset fails here instead of mid-upload.
	if !filetype.IsVideo(videoBytes) {
		return nil, &PreconditionError{Reason: "media asset is not a playable video"}
	}

	token := &oauth2.Token{AccessToken: req.Credentials.AccessToken}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	service, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("error creating YouTube service: %w", err)
	}

	upload := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       p.videoTitle(req),
			Description: req.Caption,
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, upload)
	response, err := call.Media(bytes.NewReader(videoBytes)).Context(ctx).Do()
	if err != nil {
		return nil, &UpstreamError{Platform: models.PlatformYoutube, Message: err.Error()}
	}

	return &Result{
		PlatformPostID: response.Id,
		PlatformURL:    fmt.Sprintf("https://youtu.be/%s", response.Id),
	}, nil
}

func (p *YoutubePublisher) videoTitle(req *Request) string {
	if req.Title != "" {
		return req.Title
	}
	// YouTube caps titles at 100 characters.
	title := req.Caption
	if len(title) > 100 {
		title = title[:97] + "..."
	}
	if title == "" {
		title = "Untitled"
	}
	return title
}

func (p *YoutubePublisher) RefreshToken(ctx context.Context, creds Credentials) (*RefreshedToken, error) {
	conf := &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/youtube.upload"},
		Endpoint:     google.Endpoint,
	}

	tokenSource := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})

	token, err := tokenSource.Token()
	if err != nil {
		return nil, &UpstreamError{Platform: models.PlatformYoutube, Message: err.Error()}
	}

	refreshed := &RefreshedToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	if refreshed.ExpiresAt.IsZero() {
		refreshed.ExpiresAt = time.Now().Add(time.Hour)
	}

	return refreshed, nil
}
