package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/postpilothq/postpilot/internal/service"
)

type NotificationHandler struct {
	s service.NotificationService
}

func NewNotificationHandler(service service.NotificationService) *NotificationHandler {
	return &NotificationHandler{s: service}
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	userID := GetUserID(c)

	notifications, err := h.s.List(c.Context(), userID)
	if err != nil {
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch notifications",
		})
	}

	return c.Status(fiber.StatusOK).JSON(notifications)
}

func (h *NotificationHandler) MarkNotificationRead(c *fiber.Ctx) error {
	userID := GetUserID(c)
	notificationID := c.QueryInt("id", 0)

	if err := h.s.MarkRead(c.Context(), userID, int64(notificationID)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to update notification",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *NotificationHandler) RemoveNotification(c *fiber.Ctx) error {
	userID := GetUserID(c)
	notificationID := c.QueryInt("id", 0)

	if err := h.s.Remove(c.Context(), userID, int64(notificationID)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove notification",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
