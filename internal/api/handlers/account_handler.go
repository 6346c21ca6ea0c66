package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/postpilothq/postpilot/internal/service"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(service service.AccountService) *AccountHandler {
	return &AccountHandler{s: service}
}

func (h *AccountHandler) ListSocialAccounts(c *fiber.Ctx) error {
	workspaceID := GetWorkspaceID(c)

	accountList, err := h.s.List(c.Context(), workspaceID)
	if err != nil {
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch social accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accountList)
}

func (h *AccountHandler) DisconnectSocialAccount(c *fiber.Ctx) error {
	workspaceID := GetWorkspaceID(c)
	accountID := c.QueryInt("id", 0)

	err := h.s.Disconnect(c.Context(), workspaceID, int64(accountID))
	if err != nil {
		if service.IsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to disconnect social account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
