package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/publisher"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/service"
)

// TokenRefreshJob keeps OAuth credentials alive: every run it scans active
// accounts whose tokens expire within the horizon and refreshes each one
// independently, so a dead account never blocks the others.
type TokenRefreshJob struct {
	sr      repository.SocialAccountRepository
	reg     *publisher.Registry
	cipher  service.Cipher
	horizon time.Duration
}

func NewTokenRefreshJob(
	sr repository.SocialAccountRepository,
	reg *publisher.Registry,
	cipher service.Cipher,
	horizon time.Duration) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr:      sr,
		reg:     reg,
		cipher:  cipher,
		horizon: horizon,
	}
}

func (j *TokenRefreshJob) Run() {
	j.RefreshTokens(context.Background())
}

func (j *TokenRefreshJob) RefreshTokens(ctx context.Context) {
	currentTime := time.Now()

	accounts, err := j.sr.ListExpiring(ctx, currentTime, currentTime.Add(j.horizon))
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {
		if acc.RefreshToken == "" {
			// Nothing to refresh with; not an error.
			continue
		}

		pub, err := j.reg.Get(acc.Platform)
		if err != nil {
			// No adapter for the platform means no refresh capability.
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount, pub publisher.Publisher) {
			defer wg.Done()
			defer func() { <-semaphore }()

			j.refreshAccount(ctx, acc, pub)
		}(acc, pub)
	}

	wg.Wait()
}

func (j *TokenRefreshJob) refreshAccount(ctx context.Context, acc *models.SocialAccount, pub publisher.Publisher) {
	refreshToken, err := j.cipher.Decrypt(acc.RefreshToken)
	if err != nil {
		slog.Info("unable to decrypt refresh token", "platform", acc.Platform, "account_id", acc.ID)
		return
	}

	accessToken, err := j.cipher.Decrypt(acc.AccessToken)
	if err != nil {
		slog.Info("unable to decrypt access token", "platform", acc.Platform, "account_id", acc.ID)
		return
	}

	refreshed, err := pub.RefreshToken(ctx, publisher.Credentials{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
	if err != nil {
		if errors.Is(err, publisher.ErrRefreshNotSupported) {
			return
		}
		slog.Info("unable to refresh tokens", "platform", acc.Platform, "account_id", acc.ID, "error", err)
		return
	}

	encryptedAccessToken, err := j.cipher.Encrypt(refreshed.AccessToken)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var encryptedRefreshToken string
	if refreshed.RefreshToken != "" {
		encryptedRefreshToken, err = j.cipher.Encrypt(refreshed.RefreshToken)
		if err != nil {
			slog.Info(err.Error())
			return
		}
	}

	update := &models.SocialAccount{
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: &refreshed.ExpiresAt,
	}

	if err := j.sr.UpdateTokens(ctx, acc.ID, update); err != nil {
		slog.Info("unable to store refreshed tokens", "platform", acc.Platform, "account_id", acc.ID, "error", err)
	}
}
