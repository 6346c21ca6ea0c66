package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/postpilothq/postpilot/internal/queue"
	"github.com/postpilothq/postpilot/internal/service"
	"github.com/postpilothq/postpilot/internal/transfer"
)

type PostHandler struct {
	s           service.PostService
	AsynqClient *asynq.Client
}

func NewPostHandler(service service.PostService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: service, AsynqClient: asynqClient}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	workspaceID := GetWorkspaceID(c)

	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	postID, err := h.s.Create(c.Context(), workspaceID, userID, &pc)
	if err != nil {
		return postError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post created successfully",
		"id":      postID,
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	workspaceID := GetWorkspaceID(c)
	postID := c.QueryInt("id", 0)

	if postID != 0 {
		post, targets, err := h.s.Info(c.Context(), workspaceID, int64(postID))
		if err != nil {
			return postError(c, err)
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"post":    post,
			"targets": targets,
		})
	}

	posts, err := h.s.List(c.Context(), workspaceID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	workspaceID := GetWorkspaceID(c)
	postID := c.QueryInt("id", 0)

	var pu transfer.PostUpdate
	if err := c.BodyParser(&pu); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.Update(c.Context(), workspaceID, int64(postID), &pu); err != nil {
		return postError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	workspaceID := GetWorkspaceID(c)
	postID := c.QueryInt("id", 0)

	if err := h.s.Remove(c.Context(), workspaceID, int64(postID)); err != nil {
		return postError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// PublishNow queues the post for immediate publication instead of waiting for
// its scheduled time.
func (h *PostHandler) PublishNow(c *fiber.Ctx) error {
	workspaceID := GetWorkspaceID(c)
	postID := c.QueryInt("id", 0)

	// Ownership check before touching the queue.
	if _, _, err := h.s.Info(c.Context(), workspaceID, int64(postID)); err != nil {
		return postError(c, err)
	}

	err := queue.EnqueuePost(h.AsynqClient, queue.PublishPostPayload{PostID: int64(postID)}, 0)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error scheduling post",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post queued for publishing",
	})
}

func postError(c *fiber.Ctx, err error) error {
	if service.IsValidation(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if errors.Is(err, service.ErrPostNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Something went wrong",
	})
}
