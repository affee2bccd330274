package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/logger"
)

type EventType string

const (
	EventCVIngested        EventType = "cv.ingested"
	EventDuplicateDetected EventType = "cv.duplicate_detected"
	EventCVFailed          EventType = "cv.failed"
	EventDuplicateResolved EventType = "cv.duplicate_resolved"
)

const (
	defaultEventQueue = "cv_events"
	publishTimeout    = 5 * time.Second
)

type Event struct {
	Type        EventType  `json:"type"`
	CandidateID *uuid.UUID `json:"candidate_id,omitempty"`
	CVUploadID  *uuid.UUID `json:"cv_upload_id,omitempty"`
	JobID       *uuid.UUID `json:"job_id,omitempty"`
	FileName    string     `json:"file_name,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status,omitempty"`
	Message     string     `json:"message,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type rabbitPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	log     *zap.Logger
}

// NewRabbitPublisher connects to RabbitMQ and declares a durable queue for
// pipeline events.
func NewRabbitPublisher(url, queueName string, log *zap.Logger) (EventPublisher, error) {
	if queueName == "" {
		queueName = defaultEventQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName, // queue name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	log = logger.OrNop(log).Named("events")
	log.Info("connected to rabbitmq", zap.String("queue", q.Name))

	return &rabbitPublisher{conn: conn, channel: ch, queue: q, log: log}, nil
}

// Publish implements EventPublisher. Channels are not safe for concurrent
// publishing, so calls are serialized.
func (r *rabbitPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.channel.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         string(event.Type),
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

func (r *rabbitPublisher) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.channel.Close(); err != nil {
		r.log.Warn("failed to close channel", zap.Error(err))
	}
	if err := r.conn.Close(); err != nil {
		return fmt.Errorf("failed to close rabbitmq connection: %w", err)
	}
	return nil
}

type noopPublisher struct{}

// NewNoopPublisher is used when no broker is configured.
func NewNoopPublisher() EventPublisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) error { return nil }

func (noopPublisher) Close() error { return nil }

// publishBestEffort logs instead of returning publish failures.
func publishBestEffort(ctx context.Context, publisher EventPublisher, log *zap.Logger, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
