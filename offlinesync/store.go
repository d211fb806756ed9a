package offlinesync

import (
	"context"
	"time"
)

// QueueStore is the durable log of queued operations.
// Implementations wrap driver failures with ErrStorage.
type QueueStore interface {
	// Enqueue persists ops with status pending, assigning ID and CreatedAt in place.
	// A multi-op call is all-or-nothing.
	Enqueue(ctx context.Context, ops ...*Operation) error
	// ListPending returns pending operations for scope, oldest first.
	ListPending(ctx context.Context, scope Scope) ([]*Operation, error)
	ListByStatus(ctx context.Context, scope Scope, status Status) ([]*Operation, error)
	// Get returns ErrOperationNotFound when id does not exist.
	Get(ctx context.Context, id int) (*Operation, error)
	// UpdateStatus sets status and conflict data together. conflictData must be nil
	// for every status other than StatusConflict.
	UpdateStatus(ctx context.Context, id int, status Status, conflictData Record) error
	CountByStatus(ctx context.Context, scope Scope) (StatusCounts, error)
}

// EntityStore is the authoritative store for one entity type.
// Records are scoped by company; every record carries id and updated_at.
type EntityStore interface {
	// Get returns ErrRecordNotFound when the record is absent.
	Get(ctx context.Context, scope Scope, id string) (Record, error)
	// Insert returns ErrDuplicateRecord when id exists and never overwrites.
	Insert(ctx context.Context, scope Scope, id string, data Record) (Record, error)
	// Update overlays data on the stored record and stamps updated_at with server time.
	Update(ctx context.Context, scope Scope, id string, data Record) (Record, error)
	// Delete succeeds when the record is already absent.
	Delete(ctx context.Context, scope Scope, id string) error
}

// PassLocker serialises sync passes per scope.
// Obtain returns ErrSyncInProgress when another holder owns key.
type PassLocker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

const (
	EventPassCompleted    = "sync.pass_completed"
	EventConflictDetected = "sync.conflict_detected"
	EventConflictResolved = "sync.conflict_resolved"
)

type PassSummary struct {
	Total     int `json:"total"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Conflicts int `json:"conflicts"`
}

type Event struct {
	Type        string       `json:"type"`
	UserId      int          `json:"user_id"`
	CompanyId   string       `json:"company_id"`
	OperationId int          `json:"operation_id,omitempty"`
	TableName   string       `json:"table_name,omitempty"`
	RecordId    string       `json:"record_id,omitempty"`
	Resolution  Resolution   `json:"resolution,omitempty"`
	Summary     *PassSummary `json:"summary,omitempty"`
	OccurredAt  time.Time    `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}

type EventPublisherFunc func(ctx context.Context, evt Event) error

func (f EventPublisherFunc) Publish(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}
