package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
	"github.com/arklim/campus-records/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.RecordEventPublisher using Kafka. Every
// change goes to one topic; consumers filter on the event_type header.
type EventPublisher struct {
	producer *Producer
	topic    string
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher writing to topic.
func NewEventPublisher(producer *Producer, topic string, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, topic: topic, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	ActorID   string           `json:"actor_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

type recordChangedPayload struct {
	Kind          string   `json:"kind"`
	RecordID      string   `json:"record_id"`
	Change        string   `json:"change"`
	ActorRole     string   `json:"actor_role"`
	ChangedFields []string `json:"changed_fields,omitempty"`
	OwnerRemoved  bool     `json:"owner_removed,omitempty"`
}

// EventType names a record change, e.g. records.student.updated.
func EventType(event domain.RecordChangedEvent) string {
	return fmt.Sprintf("records.%s.%s", event.Kind, event.Change)
}

// RecordKey is the partition key of a record: its kind and id.
func RecordKey(kind domain.Kind, id string) string {
	return kind.String() + "/" + id
}

// PublishRecordChanged enqueues a record change keyed by kind and id so
// changes to one record stay ordered within a partition.
func (p *EventPublisher) PublishRecordChanged(ctx context.Context, event domain.RecordChangedEvent) error {
	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := event.EventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	fields := make([]string, 0, len(event.ChangedFields))
	for _, f := range event.ChangedFields {
		fields = append(fields, string(f))
	}

	eventType := EventType(event)
	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		ActorID:   event.ActorID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload: recordChangedPayload{
			Kind:          event.Kind.String(),
			RecordID:      event.RecordID,
			Change:        string(event.Change),
			ActorRole:     event.ActorRole.String(),
			ChangedFields: fields,
			OwnerRemoved:  event.OwnerRemoved,
		},
		Metadata: metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	return p.producer.Send(ctx, p.topic, RecordKey(event.Kind, event.RecordID), bytes,
		sarama.RecordHeader{Key: []byte("event_type"), Value: []byte(eventType)},
		sarama.RecordHeader{Key: []byte("schema_version"), Value: []byte(schemaVersion)},
	)
}

var _ port.RecordEventPublisher = (*EventPublisher)(nil)
