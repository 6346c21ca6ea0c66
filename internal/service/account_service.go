package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/postpilothq/postpilot/internal/cache"
	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
)

type AccountService interface {
	List(ctx context.Context, workspaceID int64) ([]*models.SocialAccount, error)
	Disconnect(ctx context.Context, workspaceID, accountID int64) error
}

type accountService struct {
	ac repository.SocialAccountRepository
	ch cache.Cache
}

func NewAccountService(ac repository.SocialAccountRepository, ch cache.Cache) AccountService {
	return &accountService{ac: ac, ch: ch}
}

func (s *accountService) List(ctx context.Context, workspaceID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.ac.ListByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("error getting social accounts: %w", err)
	}
	return accounts, nil
}

// Disconnect deactivates the account rather than deleting it, so published
// targets keep their account reference.
func (s *accountService) Disconnect(ctx context.Context, workspaceID, accountID int64) error {
	exists, err := s.ac.CheckByWorkspaceID(ctx, accountID, workspaceID)
	if err != nil {
		return fmt.Errorf("error checking social account: %w", err)
	}
	if !exists {
		return NewValidationError("social account does not exist")
	}

	if err := s.ac.Deactivate(ctx, accountID); err != nil {
		return fmt.Errorf("error disconnecting social account: %w", err)
	}

	if s.ch != nil {
		if err := s.ch.Del(ctx, cache.WorkspaceAccountsKey(workspaceID)); err != nil {
			slog.Info("cache invalidation failed", "workspace_id", workspaceID, "error", err)
		}
	}

	return nil
}
