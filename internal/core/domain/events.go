package domain

import "time"

// RecordChangeType enumerates lifecycle transitions announced to downstream consumers.
type RecordChangeType string

const (
	RecordCreated RecordChangeType = "created"
	RecordUpdated RecordChangeType = "updated"
	RecordDeleted RecordChangeType = "deleted"
)

// RecordChangedEvent represents the payload for records.<kind>.<change> messages.
type RecordChangedEvent struct {
	EventID       string
	Kind          Kind
	RecordID      string
	Change        RecordChangeType
	ActorID       string
	ActorRole     Role
	ChangedFields []Field
	OwnerRemoved  bool
	OccurredAt    time.Time
}
