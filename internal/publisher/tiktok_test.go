package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpilothq/postpilot/internal/models"
)

func newTestTiktokPublisher(server *httptest.Server) *TiktokPublisher {
	p := NewTiktokPublisher("client-key", "client-secret", 5*time.Second)
	p.apiURL = server.URL
	p.client = server.Client()
	return p
}

func TestTiktokPublishVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/post/publish/video/init/", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		sourceInfo := payload["source_info"].(map[string]interface{})
		assert.Equal(t, "PULL_FROM_URL", sourceInfo["source"])
		assert.Equal(t, "https://cdn.example.com/v.mp4", sourceInfo["video_url"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"publish_id": "v-pub-1"},
		})
	}))
	defer server.Close()

	p := newTestTiktokPublisher(server)
	result, err := p.Publish(context.Background(), &Request{
		AccountID:   "acc",
		Caption:     "watch this",
		ContentType: models.ContentTypeVideo,
		Media:       []Media{{URL: "https://cdn.example.com/v.mp4", MIMEType: "video/mp4"}},
		Credentials: Credentials{AccessToken: "token"},
	})
	require.NoError(t, err)
	assert.Equal(t, "v-pub-1", result.PlatformPostID)
}

func TestTiktokPublishPhotos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/post/publish/content/init/", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "PHOTO", payload["media_type"])
		sourceInfo := payload["source_info"].(map[string]interface{})
		assert.Len(t, sourceInfo["photo_images"], 2)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"publish_id": "p-pub-1"},
		})
	}))
	defer server.Close()

	p := newTestTiktokPublisher(server)
	result, err := p.Publish(context.Background(), &Request{
		AccountID:   "acc",
		Caption:     "photos",
		ContentType: models.ContentTypeCarousel,
		Media: []Media{
			{URL: "https://cdn.example.com/a.jpg", MIMEType: "image/jpeg"},
			{URL: "https://cdn.example.com/b.jpg", MIMEType: "image/jpeg"},
		},
		Credentials: Credentials{AccessToken: "token"},
	})
	require.NoError(t, err)
	assert.Equal(t, "p-pub-1", result.PlatformPostID)
}

func TestTiktokPublishRequiresMedia(t *testing.T) {
	p := NewTiktokPublisher("k", "s", 5*time.Second)

	_, err := p.Publish(context.Background(), &Request{
		ContentType: models.ContentTypeVideo,
		Credentials: Credentials{AccessToken: "token"},
	})

	var precondition *PreconditionError
	assert.ErrorAs(t, err, &precondition)
}

func TestTiktokPublishVideoRequiresVideoAsset(t *testing.T) {
	p := NewTiktokPublisher("k", "s", 5*time.Second)

	_, err := p.Publish(context.Background(), &Request{
		ContentType: models.ContentTypeVideo,
		Media:       []Media{{URL: "https://cdn.example.com/a.jpg", MIMEType: "image/jpeg"}},
		Credentials: Credentials{AccessToken: "token"},
	})

	var precondition *PreconditionError
	assert.ErrorAs(t, err, &precondition)
}

func TestTiktokPublishUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "access_token_invalid", "message": "The access token is invalid"},
		})
	}))
	defer server.Close()

	p := newTestTiktokPublisher(server)
	_, err := p.Publish(context.Background(), &Request{
		ContentType: models.ContentTypeVideo,
		Media:       []Media{{URL: "https://cdn.example.com/v.mp4", MIMEType: "video/mp4"}},
		Credentials: Credentials{AccessToken: "bad"},
	})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
}

func TestTiktokRefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/token/", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "client-key", r.PostForm.Get("client_key"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"expires_in":    86400,
		})
	}))
	defer server.Close()

	p := newTestTiktokPublisher(server)
	refreshed, err := p.RefreshToken(context.Background(), Credentials{RefreshToken: "old-refresh"})
	require.NoError(t, err)

	assert.Equal(t, "new-access", refreshed.AccessToken)
	assert.Equal(t, "new-refresh", refreshed.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(86400*time.Second), refreshed.ExpiresAt, time.Minute)
}

func TestTiktokRefreshTokenError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":             "invalid_grant",
			"error_description": "Refresh token is invalid or expired.",
		})
	}))
	defer server.Close()

	p := newTestTiktokPublisher(server)
	_, err := p.RefreshToken(context.Background(), Credentials{RefreshToken: "stale"})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Contains(t, upstream.Message, "invalid or expired")
}
