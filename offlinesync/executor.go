package offlinesync

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// EntityStores holds one store per supported entity kind.
// A nil store makes its kind behave as unsupported.
type EntityStores struct {
	Bills     EntityStore
	Customers EntityStore
	Products  EntityStore
	Payments  EntityStore
}

// Executor applies single operations to the entity stores.
type Executor struct {
	stores    EntityStores
	detectors map[EntityKind]ConflictDetector
	fallback  ConflictDetector
}

// NewExecutor builds an executor using detector for every kind (TimestampDetector when nil).
func NewExecutor(stores EntityStores, detector ConflictDetector) *Executor {
	if detector == nil {
		detector = TimestampDetector{}
	}
	return &Executor{
		stores:    stores,
		detectors: map[EntityKind]ConflictDetector{},
		fallback:  detector,
	}
}

// WithDetector overrides the conflict detector for one entity kind.
func (e *Executor) WithDetector(kind EntityKind, d ConflictDetector) *Executor {
	if d != nil {
		e.detectors[kind] = d
	}
	return e
}

func (e *Executor) detectorFor(kind EntityKind) ConflictDetector {
	if d, ok := e.detectors[kind]; ok {
		return d
	}
	return e.fallback
}

func (e *Executor) storeFor(kind EntityKind) (EntityStore, error) {
	var store EntityStore
	switch kind {
	case EntityBill:
		store = e.stores.Bills
	case EntityCustomer:
		store = e.stores.Customers
	case EntityProduct:
		store = e.stores.Products
	case EntityPayment:
		store = e.stores.Payments
	case EntityUnsupported:
		return nil, ErrUnsupportedEntity
	}
	if store == nil {
		return nil, fmt.Errorf("%w: no store for %s", ErrUnsupportedEntity, kind)
	}
	return store, nil
}

// Execute applies op, running conflict detection for updates.
func (e *Executor) Execute(ctx context.Context, op *Operation) ExecResult {
	return e.apply(ctx, op, op.Operation, op.Data, true)
}

// ForceApply applies data as an opType operation on op's record without conflict detection.
func (e *Executor) ForceApply(ctx context.Context, op *Operation, opType OperationType, data Record) ExecResult {
	return e.apply(ctx, op, opType, data, false)
}

func (e *Executor) apply(ctx context.Context, op *Operation, opType OperationType, data Record, detect bool) ExecResult {
	ctx, span := tracer.Start(ctx, "offlinesync.Execute", trace.WithAttributes(
		attribute.Int("sync.operation_id", op.ID),
		attribute.String("sync.table_name", op.TableName),
		attribute.String("sync.operation", string(opType)),
		attribute.Bool("sync.detect_conflicts", detect),
	))
	defer span.End()

	res := e.dispatch(ctx, op, opType, data, detect)
	switch {
	case res.Err != nil:
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	case res.Conflict:
		span.SetAttributes(attribute.Bool("sync.conflict", true))
	}
	return res
}

func (e *Executor) dispatch(ctx context.Context, op *Operation, opType OperationType, data Record, detect bool) ExecResult {
	kind := ParseEntityKind(op.TableName)
	store, err := e.storeFor(kind)
	if err != nil {
		return ExecResult{Err: fmt.Errorf("%w (table %q)", err, op.TableName)}
	}
	scope := Scope{UserId: op.UserId, CompanyId: op.CompanyId}

	switch opType {
	case OperationCreate:
		if _, err := store.Insert(ctx, scope, op.RecordId, data); err != nil {
			return ExecResult{Err: err}
		}
	case OperationUpdate:
		if detect {
			current, err := store.Get(ctx, scope, op.RecordId)
			if err != nil {
				return ExecResult{Err: err}
			}
			if e.detectorFor(kind).IsStale(current, data) {
				return ExecResult{Conflict: true, ConflictData: current}
			}
		}
		if _, err := store.Update(ctx, scope, op.RecordId, data); err != nil {
			return ExecResult{Err: err}
		}
	case OperationDelete:
		if err := store.Delete(ctx, scope, op.RecordId); err != nil {
			return ExecResult{Err: err}
		}
	default:
		return ExecResult{Err: fmt.Errorf("%w: %q", ErrUnsupportedOperation, opType)}
	}
	return ExecResult{Success: true}
}
