package offlinesync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryQueueStore is a process-local QueueStore used by tests and the memory driver.
type MemoryQueueStore struct {
	mu     sync.Mutex
	ops    []*Operation
	nextID int
	now    func() time.Time
}

func NewMemoryQueueStore(now func() time.Time) *MemoryQueueStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryQueueStore{now: now}
}

func cloneOperation(op *Operation) *Operation {
	cp := *op
	cp.Data = op.Data.Clone()
	cp.ConflictData = op.ConflictData.Clone()
	return &cp
}

func (m *MemoryQueueStore) Enqueue(ctx context.Context, ops ...*Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		m.nextID++
		now := m.now().UTC()
		op.ID = m.nextID
		op.Status = StatusPending
		op.ConflictData = nil
		op.CreatedAt = now
		op.UpdatedAt = now
		m.ops = append(m.ops, cloneOperation(op))
	}
	return nil
}

func (m *MemoryQueueStore) ListPending(ctx context.Context, scope Scope) ([]*Operation, error) {
	return m.ListByStatus(ctx, scope, StatusPending)
}

func (m *MemoryQueueStore) ListByStatus(ctx context.Context, scope Scope, status Status) ([]*Operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Operation{}
	for _, op := range m.ops {
		if op.Status == status && scope.owns(op) {
			out = append(out, cloneOperation(op))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryQueueStore) Get(ctx context.Context, id int) (*Operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range m.ops {
		if op.ID == id {
			return cloneOperation(op), nil
		}
	}
	return nil, ErrOperationNotFound
}

func (m *MemoryQueueStore) UpdateStatus(ctx context.Context, id int, status Status, conflictData Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range m.ops {
		if op.ID == id {
			op.Status = status
			op.ConflictData = nil
			if status == StatusConflict {
				op.ConflictData = conflictData.Clone()
			}
			op.UpdatedAt = m.now().UTC()
			return nil
		}
	}
	return ErrOperationNotFound
}

func (m *MemoryQueueStore) CountByStatus(ctx context.Context, scope Scope) (StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var counts StatusCounts
	for _, op := range m.ops {
		if !scope.owns(op) {
			continue
		}
		switch op.Status {
		case StatusPending:
			counts.Pending++
		case StatusSynced:
			counts.Synced++
		case StatusFailed:
			counts.Failed++
		case StatusConflict:
			counts.Conflicts++
		}
	}
	return counts, nil
}

// Keys the entity stores own; payloads cannot set them.
var protectedRecordKeys = []string{"id", "user_id", "company_id", "created_at", "updated_at", "createdAt", "updatedAt"}

// IsProtectedKey reports whether k is a key only the store may set.
func IsProtectedKey(k string) bool {
	for _, p := range protectedRecordKeys {
		if k == p {
			return true
		}
	}
	return false
}

// MemoryEntityStore keeps records per company in memory.
type MemoryEntityStore struct {
	mu      sync.Mutex
	records map[string]map[string]Record
	now     func() time.Time
}

func NewMemoryEntityStore(now func() time.Time) *MemoryEntityStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryEntityStore{records: map[string]map[string]Record{}, now: now}
}

// Seed stores rec as-is, including its updated_at.
func (m *MemoryEntityStore) Seed(scope Scope, id string, rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := rec.Clone()
	if cp == nil {
		cp = Record{}
	}
	cp["id"] = id
	cp["company_id"] = scope.CompanyId
	if _, ok := cp["user_id"]; !ok {
		cp["user_id"] = scope.UserId
	}
	m.company(scope.CompanyId)[id] = cp
}

func (m *MemoryEntityStore) company(companyId string) map[string]Record {
	recs, ok := m.records[companyId]
	if !ok {
		recs = map[string]Record{}
		m.records[companyId] = recs
	}
	return recs
}

func (m *MemoryEntityStore) Get(ctx context.Context, scope Scope, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[scope.CompanyId][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return rec.Clone(), nil
}

func (m *MemoryEntityStore) Insert(ctx context.Context, scope Scope, id string, data Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.company(scope.CompanyId)
	if _, ok := recs[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRecord, id)
	}
	rec := data.Clone()
	if rec == nil {
		rec = Record{}
	}
	for _, k := range protectedRecordKeys {
		delete(rec, k)
	}
	now := m.now().UTC()
	rec["id"] = id
	rec["user_id"] = scope.UserId
	rec["company_id"] = scope.CompanyId
	rec["created_at"] = now
	rec["updated_at"] = now
	recs[id] = rec
	return rec.Clone(), nil
}

func (m *MemoryEntityStore) Update(ctx context.Context, scope Scope, id string, data Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[scope.CompanyId][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	for k, v := range data {
		if !IsProtectedKey(k) {
			rec[k] = v
		}
	}
	rec["updated_at"] = m.now().UTC()
	return rec.Clone(), nil
}

func (m *MemoryEntityStore) Delete(ctx context.Context, scope Scope, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records[scope.CompanyId], id)
	return nil
}
