package port

import (
	"context"

	"github.com/arklim/campus-records/internal/core/domain"
)

// RecordEventPublisher notifies downstream consumers about record changes.
type RecordEventPublisher interface {
	PublishRecordChanged(ctx context.Context, event domain.RecordChangedEvent) error
}
