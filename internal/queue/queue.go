package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/papertext/backend/internal/util"
	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	IngestQueue   = "ingest_queue"
	EventExchange = "papertext_events"
)

// Publisher is the part of *amqp091.Channel used to publish.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

func Init() *amqp091.Connection {
	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	host := util.GetEnvString("RABBITMQ_HOST", "localhost")
	port := util.GetEnvString("RABBITMQ_PORT", "5672")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares the event exchange and, for every name, a durable
// queue plus its dead letter queue.
func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	err := ch.ExchangeDeclare(
		EventExchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", EventExchange, err)
	}

	for _, name := range queueNames {
		for _, q := range []string{name, DeadLetterQueue(name)} {
			_, err := ch.QueueDeclare(
				q,
				true,  // durable
				false, // autoDelete
				false, // exclusive
				false, // noWait
				nil,   // args
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q, err)
			}
		}
	}

	return nil
}

func DeadLetterQueue(queueName string) string {
	return queueName + "_dlq"
}

func PublishFIFO(ctx context.Context, pub Publisher, queueName string, data []byte) error {
	return pub.PublishWithContext(ctx, "", queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	})
}

func PublishTopic(ctx context.Context, pub Publisher, topic string, data []byte) error {
	return pub.PublishWithContext(ctx, EventExchange, topic, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	})
}
