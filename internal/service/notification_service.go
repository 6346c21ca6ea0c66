package service

import (
	"context"
	"fmt"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/repository"
)

type NotificationService interface {
	List(ctx context.Context, userID int64) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	Remove(ctx context.Context, userID, notificationID int64) error
}

type notificationService struct {
	nr repository.NotificationRepository
}

func NewNotificationService(nr repository.NotificationRepository) NotificationService {
	return &notificationService{nr: nr}
}

func (s *notificationService) List(ctx context.Context, userID int64) ([]*models.Notification, error) {
	notifications, err := s.nr.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting notifications: %w", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID int64) error {
	if err := s.nr.MarkRead(ctx, notificationID, userID); err != nil {
		return fmt.Errorf("error marking notification read: %w", err)
	}
	return nil
}

func (s *notificationService) Remove(ctx context.Context, userID, notificationID int64) error {
	if err := s.nr.Remove(ctx, notificationID, userID); err != nil {
		return fmt.Errorf("error removing notification: %w", err)
	}
	return nil
}
