package rabbit

import (
	"context"
	"runtime"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/logging"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/metrics"
)

// Handler processes one message body. Any returned error drops the message
// (nack without requeue) so a poison payload cannot loop forever.
type Handler func(ctx context.Context, body []byte) error

// Limits bound a consumer's lifetime. The process is expected to be
// restarted by external supervision after a clean stop; this caps memory
// growth in long-running consumers rather than fixing it.
type Limits struct {
	Messages int // stop after this many processed messages (0 = unlimited)
	MemoryMB int // stop once heap usage reaches this many MB (0 = unlimited)
}

// Consumer pulls messages one at a time (prefetch 1) and acknowledges each
// synchronously before the broker hands over the next one.
type Consumer struct {
	r   *Rabbit
	log *zerolog.Logger
}

func NewConsumer(r *Rabbit, logger *zerolog.Logger) *Consumer {
	return &Consumer{r: r, log: logging.Component(logger, "Consumer")}
}

func (c *Consumer) Consume(ctx context.Context, queue string, handler Handler, limits Limits) error {
	ch, err := c.r.channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	log := c.log.With().Str("queue", queue).Logger()
	return consumeLoop(ctx, &log, queue, deliveries, handler, limits, heapUsageMB)
}

// consumeLoop is split from Consume so the ack/drop/limit behavior can be
// exercised without a live broker.
func consumeLoop(ctx context.Context, log *zerolog.Logger, queue string, deliveries <-chan amqp.Delivery, handler Handler, limits Limits, memUsageMB func() int) error {
	processed := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			if err := handler(ctx, d.Body); err != nil {
				log.Error().
					Err(err).
					Str("payload_preview", logging.Preview(d.Body, 500)).
					Msg("failed to handle message, dropping")
				metrics.IncConsumed(queue, "drop")
				_ = d.Nack(false, false)
			} else {
				metrics.IncConsumed(queue, "ack")
				_ = d.Ack(false)
			}
			processed++

			if limits.Messages > 0 && processed >= limits.Messages {
				log.Info().Int("processed", processed).Msg("message limit reached, stopping consumer")
				return nil
			}
			if limits.MemoryMB > 0 {
				if used := memUsageMB(); used >= limits.MemoryMB {
					log.Info().Int("used_mb", used).Int("limit_mb", limits.MemoryMB).Msg("memory limit reached, stopping consumer")
					return nil
				}
			}
		}
	}
}

func heapUsageMB() int {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int(m.HeapAlloc / (1024 * 1024))
}
