package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

// PublishRecordChanged logs records.<kind>.<change> events.
func (p *StubPublisher) PublishRecordChanged(_ context.Context, event domain.RecordChangedEvent) error {
	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", EventType(event)),
		zap.String("record_id", event.RecordID),
		zap.String("actor_id", event.ActorID),
		zap.Any("changed_fields", event.ChangedFields),
		zap.Bool("owner_removed", event.OwnerRemoved),
		zap.Time("timestamp", at.UTC()),
	)
	return nil
}

var _ port.RecordEventPublisher = (*StubPublisher)(nil)
