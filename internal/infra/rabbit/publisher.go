package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/mq"
)

var _ mq.Publisher = (*Publisher)(nil)

// Publisher publishes persistent JSON messages into the direct exchange.
type Publisher struct {
	r *Rabbit
}

func NewPublisher(r *Rabbit) *Publisher {
	return &Publisher{r: r}
}

func (p *Publisher) PublishPush(ctx context.Context, payload model.PushPayload) error {
	return p.publish(ctx, Exchange, RoutingKeyPushes, payload, 0)
}

func (p *Publisher) PublishPrompt(ctx context.Context, payload model.PromptPayload) error {
	return p.publish(ctx, Exchange, RoutingKeyPrompt, payload, 0)
}

// PublishPromptDelayed parks the prompt in the TTL queue; expiry dead-letters
// it into the prompt queue. Published to the default exchange because the
// delay queue is deliberately unbound.
func (p *Publisher) PublishPromptDelayed(ctx context.Context, payload model.PromptPayload, delay time.Duration) error {
	return p.publish(ctx, "", QueuePromptDelay, payload, delay)
}

func (p *Publisher) publish(ctx context.Context, exchange, key string, payload interface{}, expiration time.Duration) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	ch, err := p.r.channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}
	if expiration > 0 {
		msg.Expiration = strconv.FormatInt(expiration.Milliseconds(), 10)
	}
	if err := ch.PublishWithContext(ctx, exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish to %s/%s: %w", exchange, key, err)
	}
	return nil
}
