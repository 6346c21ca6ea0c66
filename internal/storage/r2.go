package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/postpilothq/postpilot/configs"
)

// R2Storage reads media assets for publish attempts. Assets uploaded by the
// media pipeline live in an R2 bucket behind a public base URL; anything
// under that base is fetched straight from the bucket, everything else over
// plain HTTP.
type R2Storage struct {
	config     cfg.Config
	httpClient *http.Client
}

func NewR2Storage(c cfg.Config) *R2Storage {
	return &R2Storage{
		config:     c,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (r *R2Storage) client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r.config.R2.AccessKey, r.config.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.config.R2.AccountID))
	}), nil
}

func (r *R2Storage) Fetch(ctx context.Context, fileURL string) ([]byte, error) {
	if key, ok := r.bucketKey(fileURL); ok {
		return r.fetchObject(ctx, key)
	}
	return r.fetchHTTP(ctx, fileURL)
}

func (r *R2Storage) bucketKey(fileURL string) (string, bool) {
	base := r.config.R2.PublicBaseURL
	if base == "" || !strings.HasPrefix(fileURL, base) {
		return "", false
	}
	key := strings.TrimPrefix(strings.TrimPrefix(fileURL, base), "/")
	return key, key != ""
}

func (r *R2Storage) fetchObject(ctx context.Context, key string) ([]byte, error) {
	r2Client, err := r.client(ctx)
	if err != nil {
		return nil, err
	}

	output, err := r2Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.config.R2.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer output.Body.Close()

	return io.ReadAll(output.Body)
}

func (r *R2Storage) fetchHTTP(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fileURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
