package mq

import (
	"context"
	"time"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
)

// Publisher enqueues prepared work for the consumer processes. All messages
// are persistent; delayed prompts go through a TTL queue that dead-letters
// back into the main routing.
type Publisher interface {
	PublishPush(ctx context.Context, p model.PushPayload) error
	PublishPrompt(ctx context.Context, p model.PromptPayload) error
	PublishPromptDelayed(ctx context.Context, p model.PromptPayload, delay time.Duration) error
}
