package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

func GetWorkspaceID(c *fiber.Ctx) int64 {
	workspaceID, _ := strconv.Atoi(c.Locals("workspace_id").(string))
	return int64(workspaceID)
}
