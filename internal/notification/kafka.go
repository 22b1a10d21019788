package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/gatherhub/venue-events-backend/internal/event"
)

// KafkaNotifier publishes event lifecycle changes onto a Kafka topic.
// It satisfies event.Notifier; publish failures are logged and swallowed.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

func (n *KafkaNotifier) EventChanged(ctx context.Context, action string, ev *event.Event, actorID string) {
	msg := eventMessage{
		Action:     action,
		EventID:    ev.ID,
		EventTitle: ev.Title,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Error("failed to marshal event message")
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := n.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(ev.ID),
		Value: payload,
	}); err != nil {
		log.WithError(err).WithField("event_id", ev.ID).Error("failed to publish event message")
	}
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// StartKafkaConsumer reads event messages and fans them out as in-app
// notifications. Runs until ctx is cancelled.
func StartKafkaConsumer(ctx context.Context, brokers []string, topic string, svc *Service) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "notification-service",
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	go func() {
		defer reader.Close()
		log.WithField("topic", topic).Info("kafka consumer started")

		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.WithError(err).Error("kafka read failed")
				time.Sleep(time.Second)
				continue
			}

			var msg eventMessage
			if err := json.Unmarshal(m.Value, &msg); err != nil {
				log.WithError(err).Warn("skipping malformed event message")
				continue
			}

			if err := svc.FanOut(ctx, &msg); err != nil {
				log.WithError(err).WithField("event_id", msg.EventID).Error("notification fan-out failed")
			}
		}
	}()
}
