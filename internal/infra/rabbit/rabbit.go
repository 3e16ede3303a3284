package rabbit

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue topology. One durable direct exchange routes everything; the delay
// queue has no consumers and dead-letters expired messages back into the
// exchange under the prompt routing key.
const (
	Exchange = "tg.direct"

	QueueUpdates     = "tg_got_data"
	QueuePushes      = "tg.pushes"
	QueuePrompt      = "tg.profile_prompt"
	QueuePromptDelay = "tg.profile_prompt.delay"

	RoutingKeyPushes = "tg.pushes"
	RoutingKeyPrompt = "tg.profile_prompt"
)

// Rabbit wraps a single AMQP connection. Each operation opens a short-lived
// channel; channels are not safe for concurrent use.
type Rabbit struct {
	conn *amqp.Connection
}

func Dial(url string) (*Rabbit, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	return &Rabbit{conn: conn}, nil
}

func (r *Rabbit) Close() error { return r.conn.Close() }

func (r *Rabbit) channel() (*amqp.Channel, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, nil
}

// EnsureTopology declares the exchange, queues and bindings. Declarations
// are idempotent, so every process runs this at startup.
func (r *Rabbit) EnsureTopology() error {
	ch, err := r.channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueUpdates, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare updates queue: %w", err)
	}

	if _, err := ch.QueueDeclare(QueuePushes, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare pushes queue: %w", err)
	}
	if err := ch.QueueBind(QueuePushes, RoutingKeyPushes, Exchange, false, nil); err != nil {
		return fmt.Errorf("bind pushes queue: %w", err)
	}

	if _, err := ch.QueueDeclare(QueuePrompt, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare prompt queue: %w", err)
	}
	if err := ch.QueueBind(QueuePrompt, RoutingKeyPrompt, Exchange, false, nil); err != nil {
		return fmt.Errorf("bind prompt queue: %w", err)
	}

	delayArgs := amqp.Table{
		"x-dead-letter-exchange":    Exchange,
		"x-dead-letter-routing-key": RoutingKeyPrompt,
	}
	if _, err := ch.QueueDeclare(QueuePromptDelay, true, false, false, false, delayArgs); err != nil {
		return fmt.Errorf("declare prompt delay queue: %w", err)
	}
	return nil
}
