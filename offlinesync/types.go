package offlinesync

import "time"

type OperationType string

const (
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
)

func (t OperationType) IsValid() bool {
	switch t {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// Status is the lifecycle state of a queued operation.
//
//	pending -> synced | failed | conflict
//	conflict -> synced | failed (through Resolve only)
type Status string

const (
	StatusPending  Status = "pending"
	StatusSynced   Status = "synced"
	StatusFailed   Status = "failed"
	StatusConflict Status = "conflict"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSynced, StatusFailed, StatusConflict:
		return true
	}
	return false
}

type Resolution string

const (
	ResolutionUseServer Resolution = "use_server"
	ResolutionUseClient Resolution = "use_client"
	ResolutionMerge     Resolution = "merge"
)

// Record is an entity payload or snapshot keyed by snake_case column names.
type Record map[string]any

// Clone returns a shallow copy; nil stays nil.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Scope identifies the owner of queued operations.
// An empty CompanyId on a read means "every company of this user".
type Scope struct {
	UserId    int    `json:"user_id"`
	CompanyId string `json:"company_id"`
}

func (s Scope) owns(op *Operation) bool {
	if op == nil || op.UserId != s.UserId {
		return false
	}
	return s.CompanyId == "" || s.CompanyId == op.CompanyId
}

type Operation struct {
	ID           int           `json:"id"`
	UserId       int           `json:"user_id"`
	CompanyId    string        `json:"company_id"`
	TableName    string        `json:"table_name"`
	RecordId     string        `json:"record_id"`
	Operation    OperationType `json:"operation"`
	Data         Record        `json:"data"`
	Status       Status        `json:"status"`
	DeviceId     string        `json:"device_id,omitempty"`
	ConflictData Record        `json:"conflict_data,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewOperation is the caller-supplied part of an operation to enqueue.
type NewOperation struct {
	TableName string
	RecordId  string
	Operation OperationType
	Data      Record
	DeviceId  string
}

// ExecResult classifies the outcome of applying one operation.
// Exactly one of Success, Conflict or Err is meaningful.
type ExecResult struct {
	Success      bool
	Conflict     bool
	ConflictData Record
	Err          error
}

type OperationError struct {
	OperationId int    `json:"operation_id"`
	TableName   string `json:"table_name"`
	RecordId    string `json:"record_id"`
	Error       string `json:"error"`
}

type ConflictDetail struct {
	OperationId  int    `json:"operation_id"`
	TableName    string `json:"table_name"`
	RecordId     string `json:"record_id"`
	ConflictData Record `json:"conflict_data"`
}

type SyncResult struct {
	Success         bool             `json:"success"`
	Total           int              `json:"total"`
	Synced          int              `json:"synced"`
	Failed          int              `json:"failed"`
	Conflicts       int              `json:"conflicts"`
	Errors          []OperationError `json:"errors"`
	ConflictDetails []ConflictDetail `json:"conflict_details"`
}

type StatusCounts struct {
	Pending   int64 `json:"pending"`
	Synced    int64 `json:"synced"`
	Failed    int64 `json:"failed"`
	Conflicts int64 `json:"conflicts"`
}
