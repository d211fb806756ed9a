package offlinesync

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Resolve settles an operation in conflict status.
//
// It returns false with a nil error when the operation does not exist, belongs to
// another scope, is not in conflict, or when merge is requested without mergedData.
// use_client and merge force-apply without re-checking for conflicts; if that apply
// fails the operation is marked failed and Resolve returns false with the cause.
func (s *Service) Resolve(ctx context.Context, scope Scope, id int, resolution Resolution, mergedData Record) (bool, error) {
	ctx, span := tracer.Start(ctx, "offlinesync.Resolve", trace.WithAttributes(
		attribute.Int("sync.operation_id", id),
		attribute.String("sync.resolution", string(resolution)),
	))
	defer span.End()

	op, err := s.queue.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOperationNotFound) {
			return false, nil
		}
		span.RecordError(err)
		return false, fmt.Errorf("load operation %d: %w", id, err)
	}
	if !scope.owns(op) || op.Status != StatusConflict {
		return false, nil
	}

	var res ExecResult
	switch resolution {
	case ResolutionUseServer:
		s.setStatus(ctx, op, StatusSynced, nil)
		s.publishResolved(ctx, op, resolution)
		return true, nil
	case ResolutionUseClient:
		res = s.executor.ForceApply(ctx, op, op.Operation, op.Data)
	case ResolutionMerge:
		if len(mergedData) == 0 {
			return false, nil
		}
		res = s.executor.ForceApply(ctx, op, OperationUpdate, mergedData)
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidResolution, resolution)
	}

	if !res.Success {
		span.RecordError(res.Err)
		s.setStatus(ctx, op, StatusFailed, nil)
		return false, res.Err
	}
	s.setStatus(ctx, op, StatusSynced, nil)
	s.publishResolved(ctx, op, resolution)
	return true, nil
}

func (s *Service) publishResolved(ctx context.Context, op *Operation, resolution Resolution) {
	s.publish(ctx, Event{
		Type:        EventConflictResolved,
		UserId:      op.UserId,
		CompanyId:   op.CompanyId,
		OperationId: op.ID,
		TableName:   op.TableName,
		RecordId:    op.RecordId,
		Resolution:  resolution,
	})
}
