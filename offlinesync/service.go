package offlinesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("offlinesync")

const (
	DefaultMaxBatch    = 500
	DefaultPassLockTTL = 60 * time.Second
)

// Service is the caller-facing entry point of the sync subsystem. It is safe to
// call from request handlers, jobs and tests alike.
type Service struct {
	queue    QueueStore
	executor *Executor
	logger   *logrus.Logger
	locker   PassLocker
	lockTTL  time.Duration
	events   EventPublisher
	maxBatch int
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(l *logrus.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPassLocker enables one sync pass at a time per scope.
func WithPassLocker(l PassLocker, ttl time.Duration) Option {
	return func(s *Service) {
		s.locker = l
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithMaxBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(queue QueueStore, executor *Executor, opts ...Option) *Service {
	s := &Service{
		queue:    queue,
		executor: executor,
		logger:   logrus.StandardLogger(),
		lockTTL:  DefaultPassLockTTL,
		maxBatch: DefaultMaxBatch,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newQueuedOperation(scope Scope, in NewOperation) *Operation {
	return &Operation{
		UserId:    scope.UserId,
		CompanyId: scope.CompanyId,
		TableName: in.TableName,
		RecordId:  in.RecordId,
		Operation: in.Operation,
		Data:      in.Data.Clone(),
		Status:    StatusPending,
		DeviceId:  in.DeviceId,
	}
}

// Enqueue appends one pending operation and returns its id.
// The payload is not checked here; unknown tables or operations fail at sync time.
func (s *Service) Enqueue(ctx context.Context, scope Scope, in NewOperation) (int, error) {
	op := newQueuedOperation(scope, in)
	if err := s.queue.Enqueue(ctx, op); err != nil {
		return 0, fmt.Errorf("enqueue: %w", err)
	}
	return op.ID, nil
}

// EnqueueBatch appends all operations atomically, preserving their order.
func (s *Service) EnqueueBatch(ctx context.Context, scope Scope, in []NewOperation) ([]int, error) {
	if len(in) == 0 {
		return []int{}, nil
	}
	if len(in) > s.maxBatch {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyOperations, len(in), s.maxBatch)
	}
	ops := make([]*Operation, 0, len(in))
	for _, item := range in {
		ops = append(ops, newQueuedOperation(scope, item))
	}
	if err := s.queue.Enqueue(ctx, ops...); err != nil {
		return nil, fmt.Errorf("enqueue batch: %w", err)
	}
	ids := make([]int, 0, len(ops))
	for _, op := range ops {
		ids = append(ids, op.ID)
	}
	return ids, nil
}

func (s *Service) ListPending(ctx context.Context, scope Scope) ([]*Operation, error) {
	return s.queue.ListPending(ctx, scope)
}

func (s *Service) ListConflicts(ctx context.Context, scope Scope) ([]*Operation, error) {
	return s.queue.ListByStatus(ctx, scope, StatusConflict)
}

// GetOperation loads one queued operation. Operations owned by another scope
// report ErrOperationNotFound.
func (s *Service) GetOperation(ctx context.Context, scope Scope, id int) (*Operation, error) {
	op, err := s.queue.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.owns(op) {
		return nil, ErrOperationNotFound
	}
	return op, nil
}

func (s *Service) Status(ctx context.Context, scope Scope) (StatusCounts, error) {
	return s.queue.CountByStatus(ctx, scope)
}

// RunSync drains the scope's pending operations in FIFO order. Operations run one
// at a time and each failure is isolated to its operation. The pass ignores
// cancellation of ctx once started. Only a failure to list pending operations
// (or a held pass lock) is returned as an error.
func (s *Service) RunSync(ctx context.Context, scope Scope) (*SyncResult, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "offlinesync.RunSync", trace.WithAttributes(
		attribute.Int("sync.user_id", scope.UserId),
		attribute.String("sync.company_id", scope.CompanyId),
	))
	defer span.End()

	release, err := s.obtainPassLock(ctx, scope)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer release()

	ops, err := s.queue.ListPending(ctx, scope)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list pending: %w", err)
	}

	result := &SyncResult{
		Total:           len(ops),
		Errors:          []OperationError{},
		ConflictDetails: []ConflictDetail{},
	}
	for _, op := range ops {
		res := s.executor.Execute(ctx, op)
		switch {
		case res.Conflict:
			result.Conflicts++
			result.ConflictDetails = append(result.ConflictDetails, ConflictDetail{
				OperationId:  op.ID,
				TableName:    op.TableName,
				RecordId:     op.RecordId,
				ConflictData: res.ConflictData,
			})
			s.setStatus(ctx, op, StatusConflict, res.ConflictData)
			s.publish(ctx, Event{
				Type:        EventConflictDetected,
				UserId:      op.UserId,
				CompanyId:   op.CompanyId,
				OperationId: op.ID,
				TableName:   op.TableName,
				RecordId:    op.RecordId,
			})
		case res.Success:
			result.Synced++
			s.setStatus(ctx, op, StatusSynced, nil)
		default:
			result.Failed++
			result.Errors = append(result.Errors, OperationError{
				OperationId: op.ID,
				TableName:   op.TableName,
				RecordId:    op.RecordId,
				Error:       errorText(res.Err),
			})
			s.logger.WithFields(logrus.Fields{
				"field":        "offlinesync",
				"operation_id": op.ID,
				"table_name":   op.TableName,
				"record_id":    op.RecordId,
				"user_id":      op.UserId,
				"company_id":   op.CompanyId,
			}).Warn("sync operation failed: " + errorText(res.Err))
			s.setStatus(ctx, op, StatusFailed, nil)
		}
	}
	result.Success = result.Failed == 0

	span.SetAttributes(
		attribute.Int("sync.total", result.Total),
		attribute.Int("sync.synced", result.Synced),
		attribute.Int("sync.failed", result.Failed),
		attribute.Int("sync.conflicts", result.Conflicts),
	)
	s.publish(ctx, Event{
		Type:      EventPassCompleted,
		UserId:    scope.UserId,
		CompanyId: scope.CompanyId,
		Summary: &PassSummary{
			Total:     result.Total,
			Synced:    result.Synced,
			Failed:    result.Failed,
			Conflicts: result.Conflicts,
		},
	})
	return result, nil
}

// setStatus writes the outcome back to the queue. Failures are logged and
// swallowed, so the returned SyncResult may disagree with persisted state.
func (s *Service) setStatus(ctx context.Context, op *Operation, status Status, conflictData Record) {
	if status != StatusConflict {
		conflictData = nil
	}
	op.Status = status
	op.ConflictData = conflictData
	if err := s.queue.UpdateStatus(ctx, op.ID, status, conflictData); err != nil {
		s.logger.WithFields(logrus.Fields{
			"field":        "offlinesync",
			"operation_id": op.ID,
			"status":       string(status),
		}).Error("failed to persist sync operation status: " + err.Error())
	}
}

func (s *Service) obtainPassLock(ctx context.Context, scope Scope) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}
	key := fmt.Sprintf("SyncPass:%d:%s", scope.UserId, scope.CompanyId)
	release, err := s.locker.Obtain(ctx, key, s.lockTTL)
	if err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			return nil, err
		}
		// Lock backend down: run unlocked rather than block syncing.
		s.logger.WithFields(logrus.Fields{
			"field": "offlinesync",
			"key":   key,
		}).Warn("sync pass lock unavailable, continuing without lock: " + err.Error())
		return noop, nil
	}
	if release == nil {
		return noop, nil
	}
	return release, nil
}

func (s *Service) publish(ctx context.Context, evt Event) {
	if s.events == nil {
		return
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = s.now().UTC()
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.WithFields(logrus.Fields{
			"field": "offlinesync",
			"event": evt.Type,
		}).Error("failed to publish sync event: " + err.Error())
	}
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
