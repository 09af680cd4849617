package models

import (
	"context"
	"time"

	"github.com/admiralorbiter/VMS-sub007/config"
	"gorm.io/gorm"
)

// Error codes persisted on ImportError rows.
const (
	ErrCodeMissingField        = "missing_field"
	ErrCodeInvalidPayload      = "invalid_payload"
	ErrCodeInvalidEnum         = "invalid_enum"
	ErrCodeConstraintViolation = "constraint_violation"
	ErrCodeTransport           = "transport"
	ErrCodeAuthentication      = "authentication"
	ErrCodeWriteFailed         = "write_failed"
)

// ImportError records one record-level failure within a run. Append-only;
// rows are never updated after insert.
type ImportError struct {
	ID               uint      `gorm:"primary_key" json:"id"`
	SyncRunId        uint      `gorm:"index;not null" json:"sync_run_id"`
	RecordExternalId string    `gorm:"size:128" json:"record_external_id"`
	Field            string    `gorm:"size:100" json:"field"`
	ErrorCode        string    `gorm:"size:64" json:"error_code"`
	Message          string    `gorm:"type:text" json:"message"`
	Severity         Severity  `gorm:"type:enum('info','warning','error','critical');default:'error';size:20" json:"severity"`
	IsRetryable      bool      `gorm:"default:false" json:"is_retryable"`
	PayloadJSON      []byte    `gorm:"type:json" json:"payload"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// CreateImportError writes through the caller's handle so error rows commit
// with their batch transaction.
func CreateImportError(ctx context.Context, db *gorm.DB, runId uint, externalId, field, code, message string, severity Severity, retryable bool, payload []byte) error {
	if db == nil {
		db = config.GetDB()
	}
	row := ImportError{
		SyncRunId:        runId,
		RecordExternalId: externalId,
		Field:            field,
		ErrorCode:        code,
		Message:          message,
		Severity:         severity,
		IsRetryable:      retryable,
		PayloadJSON:      payload,
	}
	return db.WithContext(ctx).Create(&row).Error
}

func ListImportErrors(ctx context.Context, runId uint) ([]*ImportError, error) {
	db := config.GetDB()
	var rows []*ImportError
	if err := db.WithContext(ctx).Where("sync_run_id = ?", runId).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
