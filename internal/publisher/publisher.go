// Package publisher holds the per-platform publishing adapters. Each adapter
// performs exactly one outbound publish call per target and returns data for
// the orchestrator to persist; adapters never write local state and never
// retry.
package publisher

import (
	"context"
	"strings"
	"time"
)

// Credentials are decrypted OAuth tokens. They live only for the duration of
// a single publish or refresh call and must never be logged.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Media is one resolved attachment, in display order.
type Media struct {
	URL      string
	MIMEType string
}

func (m Media) IsImage() bool { return strings.HasPrefix(m.MIMEType, "image/") }
func (m Media) IsVideo() bool { return strings.HasPrefix(m.MIMEType, "video/") }

type Request struct {
	AccountID   string
	Caption     string
	Title       string
	ContentType string
	Media       []Media
	Credentials Credentials
}

func (r *Request) Images() []Media {
	var images []Media
	for _, m := range r.Media {
		if m.IsImage() {
			images = append(images, m)
		}
	}
	return images
}

func (r *Request) FirstVideo() (Media, bool) {
	for _, m := range r.Media {
		if m.IsVideo() {
			return m, true
		}
	}
	return Media{}, false
}

type Result struct {
	PlatformPostID string
	PlatformURL    string
}

type RefreshedToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type Publisher interface {
	Platform() string
	Publish(ctx context.Context, req *Request) (*Result, error)
	RefreshToken(ctx context.Context, creds Credentials) (*RefreshedToken, error)
}

// MediaFetcher pulls media bytes for adapters that upload content directly
// instead of handing the platform a URL.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Registry maps platform identifiers to their adapters, so adding a platform
// means registering one more Publisher rather than growing a switch.
type Registry struct {
	publishers map[string]Publisher
}

func NewRegistry(publishers ...Publisher) *Registry {
	r := &Registry{publishers: make(map[string]Publisher, len(publishers))}
	for _, p := range publishers {
		r.publishers[p.Platform()] = p
	}
	return r
}

func (r *Registry) Register(p Publisher) {
	r.publishers[p.Platform()] = p
}

func (r *Registry) Get(platform string) (Publisher, error) {
	p, ok := r.publishers[platform]
	if !ok {
		return nil, ErrUnsupportedPlatform
	}
	return p, nil
}
