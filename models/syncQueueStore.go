package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmdatafocus/bizbooks_backend/config"
	"github.com/mmdatafocus/bizbooks_backend/offlinesync"
	"gorm.io/gorm"
)

// GormQueueStore keeps the sync queue in the sync_operations table.
type GormQueueStore struct {
	db *gorm.DB
}

// NewGormQueueStore uses db, or the global connection when db is nil.
func NewGormQueueStore(db *gorm.DB) *GormQueueStore {
	return &GormQueueStore{db: db}
}

func (s *GormQueueStore) conn(ctx context.Context) *gorm.DB {
	db := s.db
	if db == nil {
		db = config.GetDB()
	}
	return db.WithContext(ctx)
}

func storageError(err error) error {
	return fmt.Errorf("%w: %v", offlinesync.ErrStorage, err)
}

func ownedBy(scope offlinesync.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", scope.UserId)
		if scope.CompanyId != "" {
			db = db.Where("company_id = ?", scope.CompanyId)
		}
		return db
	}
}

func (s *GormQueueStore) Enqueue(ctx context.Context, ops ...*offlinesync.Operation) error {
	if len(ops) == 0 {
		return nil
	}
	rows := make([]*SyncOperation, 0, len(ops))
	for _, op := range ops {
		row, err := newSyncOperationRow(op)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return storageError(err)
	}

	for i, row := range rows {
		ops[i].ID = row.ID
		ops[i].Status = row.Status
		ops[i].ConflictData = nil
		ops[i].CreatedAt = row.CreatedAt
		ops[i].UpdatedAt = row.UpdatedAt
	}
	return nil
}

func (s *GormQueueStore) ListPending(ctx context.Context, scope offlinesync.Scope) ([]*offlinesync.Operation, error) {
	return s.ListByStatus(ctx, scope, offlinesync.StatusPending)
}

func (s *GormQueueStore) ListByStatus(ctx context.Context, scope offlinesync.Scope, status offlinesync.Status) ([]*offlinesync.Operation, error) {
	var rows []*SyncOperation
	err := s.conn(ctx).
		Scopes(ownedBy(scope)).
		Where("status = ?", status).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storageError(err)
	}

	ops := make([]*offlinesync.Operation, 0, len(rows))
	for _, row := range rows {
		op, err := row.toOperation()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (s *GormQueueStore) Get(ctx context.Context, id int) (*offlinesync.Operation, error) {
	var row SyncOperation
	err := s.conn(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, offlinesync.ErrOperationNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}
	return row.toOperation()
}

func (s *GormQueueStore) UpdateStatus(ctx context.Context, id int, status offlinesync.Status, conflictData offlinesync.Record) error {
	var conflict interface{}
	if status == offlinesync.StatusConflict && conflictData != nil {
		encoded, err := encodeRecord(conflictData)
		if err != nil {
			return fmt.Errorf("encode conflict data: %w", err)
		}
		conflict = encoded
	}

	err := s.conn(ctx).Model(&SyncOperation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"conflict_data": conflict,
		}).Error
	if err != nil {
		return storageError(err)
	}
	return nil
}

func (s *GormQueueStore) CountByStatus(ctx context.Context, scope offlinesync.Scope) (offlinesync.StatusCounts, error) {
	var rows []struct {
		Status offlinesync.Status
		Total  int64
	}
	var counts offlinesync.StatusCounts
	err := s.conn(ctx).Model(&SyncOperation{}).
		Scopes(ownedBy(scope)).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return counts, storageError(err)
	}
	for _, r := range rows {
		switch r.Status {
		case offlinesync.StatusPending:
			counts.Pending = r.Total
		case offlinesync.StatusSynced:
			counts.Synced = r.Total
		case offlinesync.StatusFailed:
			counts.Failed = r.Total
		case offlinesync.StatusConflict:
			counts.Conflicts = r.Total
		}
	}
	return counts, nil
}
