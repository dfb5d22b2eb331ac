package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/repository"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic = "transaction-events"
	batchSize    = 100
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller relays outbox events to Kafka. Delivery is at-least-once:
// an event is marked processed only after the broker accepts it.
type OutboxPoller struct {
	timeout   time.Duration
	eventTick time.Duration
	repo      repository.OutboxRepository
	writer    messageWriter
}

func NewOutboxPoller(repo repository.OutboxRepository, topic string, brokers ...string) *OutboxPoller {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{time.Second * 5, time.Second, repo, w}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	events, err := p.repo.GetUnprocessedEvents(ctx, batchSize)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch outbox events", "error", err)
		return
	}

	for _, event := range events {
		if err := p.publishToKafka(ctx, event); err != nil {
			slog.ErrorContext(ctx, "failed to publish outbox event", "event_id", event.ID, "event_type", event.EventType, "error", err)
			// keep per-aggregate ordering: later events wait for this one
			return
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			slog.ErrorContext(ctx, "failed to mark outbox event as processed", "event_id", event.ID, "error", err)
			continue
		}
		slog.DebugContext(ctx, "outbox event published", "event_id", event.ID, "txid", event.AggregateID, "event_type", event.EventType)
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // transaction id for ordering
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
