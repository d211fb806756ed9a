package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmdatafocus/bizbooks_backend/offlinesync"
	"gorm.io/datatypes"
)

// SyncOperation is one queued offline mutation. Rows are never deleted by the sync flow.
type SyncOperation struct {
	ID           int                `gorm:"primary_key" json:"id"`
	UserId       int                `gorm:"not null;index:idx_sync_operations_owner,priority:1" json:"user_id"`
	CompanyId    string             `gorm:"size:64;not null;index:idx_sync_operations_owner,priority:2" json:"company_id"`
	Status       offlinesync.Status `gorm:"type:enum('pending','synced','failed','conflict');not null;default:'pending';index:idx_sync_operations_owner,priority:3" json:"status"`
	EntityTable  string             `gorm:"column:table_name;size:50;not null" json:"table_name"`
	RecordId     string             `gorm:"size:64;not null;index" json:"record_id"`
	Operation    string             `gorm:"size:20;not null" json:"operation"`
	Data         datatypes.JSON     `json:"data"`
	ConflictData datatypes.JSON     `json:"conflict_data"`
	DeviceId     string             `gorm:"size:100" json:"device_id"`
	CreatedAt    time.Time          `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func encodeRecord(r offlinesync.Record) (datatypes.JSON, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func decodeRecord(raw datatypes.JSON) (offlinesync.Record, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var r offlinesync.Record
	if err := dec.Decode(&r); err != nil {
		return nil, err
	}
	return r, nil
}

func newSyncOperationRow(op *offlinesync.Operation) (*SyncOperation, error) {
	data, err := encodeRecord(op.Data)
	if err != nil {
		return nil, fmt.Errorf("encode data: %w", err)
	}
	return &SyncOperation{
		UserId:      op.UserId,
		CompanyId:   op.CompanyId,
		Status:      offlinesync.StatusPending,
		EntityTable: op.TableName,
		RecordId:    op.RecordId,
		Operation:   string(op.Operation),
		Data:        data,
		DeviceId:    op.DeviceId,
	}, nil
}

func (row SyncOperation) toOperation() (*offlinesync.Operation, error) {
	data, err := decodeRecord(row.Data)
	if err != nil {
		return nil, fmt.Errorf("decode data of operation %d: %w", row.ID, err)
	}
	conflict, err := decodeRecord(row.ConflictData)
	if err != nil {
		return nil, fmt.Errorf("decode conflict data of operation %d: %w", row.ID, err)
	}
	return &offlinesync.Operation{
		ID:           row.ID,
		UserId:       row.UserId,
		CompanyId:    row.CompanyId,
		TableName:    row.EntityTable,
		RecordId:     row.RecordId,
		Operation:    offlinesync.OperationType(row.Operation),
		Data:         data,
		Status:       row.Status,
		DeviceId:     row.DeviceId,
		ConflictData: conflict,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}
