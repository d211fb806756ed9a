package syncapi

import "github.com/mmdatafocus/bizbooks_backend/offlinesync"

type OperationRequest struct {
	TableName string         `json:"table_name" binding:"required"`
	RecordId  string         `json:"record_id" binding:"required"`
	Operation string         `json:"operation" binding:"required,oneof=create update delete"`
	Data      map[string]any `json:"data"`
	DeviceId  string         `json:"device_id"`
}

type BatchRequest struct {
	Operations []OperationRequest `json:"operations" binding:"required,min=1,dive"`
}

type ResolveRequest struct {
	Resolution string         `json:"resolution" binding:"required,oneof=use_server use_client merge"`
	MergedData map[string]any `json:"merged_data"`
}

type EnqueueResponse struct {
	Id int `json:"id"`
}

type BatchResponse struct {
	Ids []int `json:"ids"`
}

type OperationsResponse struct {
	Operations []*offlinesync.Operation `json:"operations"`
}

type ResolveResponse struct {
	Resolved bool   `json:"resolved"`
	Error    string `json:"error,omitempty"`
}

func (r OperationRequest) toNewOperation(deviceId string) offlinesync.NewOperation {
	if r.DeviceId != "" {
		deviceId = r.DeviceId
	}
	return offlinesync.NewOperation{
		TableName: r.TableName,
		RecordId:  r.RecordId,
		Operation: offlinesync.OperationType(r.Operation),
		Data:      offlinesync.Record(r.Data),
		DeviceId:  deviceId,
	}
}
