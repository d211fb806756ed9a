package offlinesync

import "errors"

var (
	// ErrStorage marks a queue or entity store that could not be reached or written.
	ErrStorage = errors.New("sync storage unavailable")

	// ErrRecordNotFound is returned when an update targets a record the server does not have.
	ErrRecordNotFound = errors.New("record not found")

	ErrDuplicateRecord      = errors.New("record already exists")
	ErrUnsupportedEntity    = errors.New("unsupported entity")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrOperationNotFound    = errors.New("sync operation not found")
	ErrInvalidResolution    = errors.New("invalid resolution")

	// ErrSyncInProgress is returned when the optional pass lock is held by another pass.
	ErrSyncInProgress = errors.New("sync already in progress")

	ErrTooManyOperations = errors.New("too many operations in batch")
)
