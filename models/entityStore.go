package models

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/bizbooks_backend/config"
	"github.com/mmdatafocus/bizbooks_backend/offlinesync"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// syncEntity lists the rows that offline clients may mutate.
type syncEntity interface {
	Bill | Customer | Product | Payment
}

// GormEntityStore adapts one entity table to offlinesync.EntityStore.
// Records cross the boundary as JSON-shaped maps keyed by the rows' json tags.
type GormEntityStore[T syncEntity] struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormEntityStore[T syncEntity](db *gorm.DB) *GormEntityStore[T] {
	return &GormEntityStore[T]{db: db, now: time.Now}
}

// NewGormEntityStores wires every supported entity table.
func NewGormEntityStores(db *gorm.DB) offlinesync.EntityStores {
	return offlinesync.EntityStores{
		Bills:     NewGormEntityStore[Bill](db),
		Customers: NewGormEntityStore[Customer](db),
		Products:  NewGormEntityStore[Product](db),
		Payments:  NewGormEntityStore[Payment](db),
	}
}

func (s *GormEntityStore[T]) conn(ctx context.Context) *gorm.DB {
	db := s.db
	if db == nil {
		db = config.GetDB()
	}
	return db.WithContext(ctx)
}

func (s *GormEntityStore[T]) take(tx *gorm.DB, scope offlinesync.Scope, id string) (*T, error) {
	var row T
	err := tx.Where("id = ? AND company_id = ?", id, scope.CompanyId).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", offlinesync.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, storageError(err)
	}
	return &row, nil
}

func (s *GormEntityStore[T]) Get(ctx context.Context, scope offlinesync.Scope, id string) (offlinesync.Record, error) {
	row, err := s.take(s.conn(ctx), scope, id)
	if err != nil {
		return nil, err
	}
	return rowToRecord(row)
}

func (s *GormEntityStore[T]) Insert(ctx context.Context, scope offlinesync.Scope, id string, data offlinesync.Record) (offlinesync.Record, error) {
	fields := offlinesync.Record{}
	for k, v := range data {
		if !offlinesync.IsProtectedKey(k) {
			fields[k] = v
		}
	}
	now := s.now().UTC()
	fields["id"] = id
	fields["user_id"] = scope.UserId
	fields["company_id"] = scope.CompanyId
	fields["created_at"] = now
	fields["updated_at"] = now

	row, err := recordToRow[T](fields)
	if err != nil {
		return nil, err
	}
	if err := s.conn(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", offlinesync.ErrDuplicateRecord, id)
		}
		return nil, storageError(err)
	}
	return rowToRecord(row)
}

func (s *GormEntityStore[T]) Update(ctx context.Context, scope offlinesync.Scope, id string, data offlinesync.Record) (offlinesync.Record, error) {
	var updated *T
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.take(tx.Clauses(clause.Locking{Strength: "UPDATE"}), scope, id)
		if err != nil {
			return err
		}
		fields, err := rowToRecord(current)
		if err != nil {
			return err
		}
		for k, v := range data {
			if !offlinesync.IsProtectedKey(k) {
				fields[k] = v
			}
		}
		fields["updated_at"] = s.now().UTC()

		row, err := recordToRow[T](fields)
		if err != nil {
			return err
		}
		if err := tx.Save(row).Error; err != nil {
			return storageError(err)
		}
		updated = row
		return nil
	})
	if err != nil {
		if errors.Is(err, offlinesync.ErrRecordNotFound) || errors.Is(err, offlinesync.ErrStorage) || errors.Is(err, ErrInvalidPayload) {
			return nil, err
		}
		return nil, storageError(err)
	}
	return rowToRecord(updated)
}

func (s *GormEntityStore[T]) Delete(ctx context.Context, scope offlinesync.Scope, id string) error {
	err := s.conn(ctx).Where("id = ? AND company_id = ?", id, scope.CompanyId).Delete(new(T)).Error
	if err != nil {
		return storageError(err)
	}
	return nil
}

// ErrInvalidPayload marks a payload that cannot be decoded into the entity row.
var ErrInvalidPayload = errors.New("invalid payload")

func recordToRow[T syncEntity](fields offlinesync.Record) (*T, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	var row T
	if err := json.Unmarshal(b, &row); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &row, nil
}

func rowToRecord[T syncEntity](row *T) (offlinesync.Record, error) {
	b, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	rec := offlinesync.Record{}
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}
