package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/hibiken/asynq"
	"github.com/postpilothq/postpilot/internal/service"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	result, err := q.ps.Publish(ctx, payload.PostID)
	if err != nil {
		if errors.Is(err, service.ErrPublishInProgress) {
			// Another run holds the claim; retrying would just collide again.
			log.Printf("Post %d is already being published, dropping task", payload.PostID)
			return nil
		}
		log.Printf("Error publishing PostID %d: %v", payload.PostID, err)
		return err
	}

	log.Printf("Published PostID %d with status %s", payload.PostID, result.Status)
	return nil
}
