package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"messagely/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitNotifier публикует события сообщений в topic exchange,
// routing key user.<username адресата>
type RabbitNotifier struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewRabbitNotifier устанавливает соединение и объявляет exchange
func NewRabbitNotifier(conf config.RabbitMQConfig) (*RabbitNotifier, error) {
	conn, err := amqp.Dial(conf.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		conf.Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // args
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	log.Printf("RabbitMQ initialized, exchange %s", conf.Exchange)
	return &RabbitNotifier{conn: conn, channel: channel, exchange: conf.Exchange}, nil
}

func routingKey(event MessageEvent) string {
	return "user." + event.Recipient
}

type rabbitEnvelope struct {
	MessageEvent
	Recipient string `json:"recipient"`
}

func encodeEvent(event MessageEvent) ([]byte, error) {
	return json.Marshal(rabbitEnvelope{MessageEvent: event, Recipient: event.Recipient})
}

func decodeEvent(body []byte) (MessageEvent, error) {
	var envelope rabbitEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return MessageEvent{}, err
	}
	event := envelope.MessageEvent
	event.Recipient = envelope.Recipient
	return event, nil
}

func (n *RabbitNotifier) Notify(ctx context.Context, event MessageEvent) error {
	body, err := encodeEvent(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return n.channel.PublishWithContext(ctx,
		n.exchange,
		routingKey(event),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// StartConsumer слушает очередь, привязанную к user.*, и пересылает события в notifier (обычно WSNotifier)
func (n *RabbitNotifier) StartConsumer(ctx context.Context, queueName string, deliver Notifier) error {
	q, err := n.channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := n.channel.QueueBind(q.Name, "user.*", n.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	deliveries, err := n.channel.Consume(
		q.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					log.Println("RabbitMQ deliveries channel closed")
					return
				}
				event, err := decodeEvent(d.Body)
				if err != nil {
					log.Println("Failed to unmarshal message event:", err)
					continue
				}
				if err := deliver.Notify(ctx, event); err != nil {
					log.Printf("Failed to deliver %s for message %d: %v", event.Event, event.MessageID, err)
				}
			}
		}
	}()
	return nil
}

func (n *RabbitNotifier) Close() error {
	if err := n.channel.Close(); err != nil {
		log.Println("Failed to close RabbitMQ channel:", err)
	}
	return n.conn.Close()
}
