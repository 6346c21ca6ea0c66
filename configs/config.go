package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID     string
	AccessKey     string
	SecretKey     string
	BucketName    string
	PublicBaseURL string
}

type Scheduler struct {
	SweepInterval     time.Duration
	SweepBatchSize    int
	RefreshInterval   time.Duration
	RefreshHorizon    time.Duration
	AnalyticsInterval time.Duration
}

type Publish struct {
	// PartialFails makes any failed target fail the whole post. The default
	// keeps partial success counting as published, with failures visible
	// per target.
	PartialFails bool
	// RetryAll makes a re-publish re-attempt targets that already
	// succeeded. The default skips them so retries cannot duplicate
	// platform posts.
	RetryAll    bool
	HTTPTimeout time.Duration
}

type Config struct {
	InstagramClientID     string
	InstagramClientSecret string
	TiktokClientKey       string
	TiktokClientSecret    string
	GoogleClientID        string
	GoogleClientSecret    string
	PostgresURI           string
	RedisURI              string
	AnalyticsURL          string
	FrontendURL           string
	R2                    R2
	SecretKey             string
	CookieName            string
	Scheduler             Scheduler
	Publish               Publish
}

func LoadConfig() *Config {
	return &Config{
		InstagramClientID:     getEnv("INSTAGRAM_CLIENT_ID", ""),
		InstagramClientSecret: getEnv("INSTAGRAM_CLIENT_SECRET", ""),
		TiktokClientKey:       getEnv("TIKTOK_CLIENT_KEY", ""),
		TiktokClientSecret:    getEnv("TIKTOK_CLIENT_SECRET", ""),
		GoogleClientID:        getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:    getEnv("GOOGLE_CLIENT_SECRET", ""),
		PostgresURI:           getEnv("POSTGRES_URI", ""),
		RedisURI:              getEnv("REDIS_URI", ""),
		AnalyticsURL:          getEnv("ANALYTICS_URL", ""),
		FrontendURL:           getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:     getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:     getEnv("R2_ACCESS_KEY", ""),
			SecretKey:     getEnv("R2_SECRET_KEY", ""),
			BucketName:    getEnv("R2_BUCKET_NAME", ""),
			PublicBaseURL: getEnv("R2_PUBLIC_BASE_URL", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", ""),
		Scheduler: Scheduler{
			SweepInterval:     getEnvDuration("SWEEP_INTERVAL", time.Minute),
			SweepBatchSize:    getEnvInt("SWEEP_BATCH_SIZE", 20),
			RefreshInterval:   getEnvDuration("TOKEN_REFRESH_INTERVAL", time.Hour),
			RefreshHorizon:    getEnvDuration("TOKEN_REFRESH_HORIZON", 2*time.Hour),
			AnalyticsInterval: getEnvDuration("ANALYTICS_INTERVAL", 6*time.Hour),
		},
		Publish: Publish{
			PartialFails: getEnvBool("PUBLISH_PARTIAL_FAILS", false),
			RetryAll:     getEnvBool("PUBLISH_RETRY_ALL", false),
			HTTPTimeout:  getEnvDuration("PUBLISH_HTTP_TIMEOUT", 20*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
