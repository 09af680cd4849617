package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Teacher is a stage-2 entity: school staff who host sessions. Linked to
// its school by code like students are.
type Teacher struct {
	ID           int        `gorm:"primary_key" json:"id"`
	ExternalId   string     `gorm:"size:64;not null;uniqueIndex" json:"external_id"`
	FirstName    string     `gorm:"size:100;not null" json:"first_name"`
	LastName     string     `gorm:"size:100;not null" json:"last_name"`
	Email        string     `gorm:"size:255" json:"email"`
	Phone        string     `gorm:"size:20" json:"phone"`
	Department   string     `gorm:"size:127" json:"department"`
	SchoolId     *int       `gorm:"index" json:"school_id"`
	SchoolCode   string     `gorm:"size:32;index" json:"school_code"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t Teacher) GetExternalId() string {
	return t.ExternalId
}

func teacherImportValues(t *Teacher) map[string]interface{} {
	return map[string]interface{}{
		"first_name":  t.FirstName,
		"last_name":   t.LastName,
		"email":       t.Email,
		"phone":       t.Phone,
		"department":  t.Department,
		"school_code": t.SchoolCode,
	}
}

func (t *Teacher) UpsertFromImport(ctx context.Context, tx *gorm.DB, dryRun bool) (ImportAction, error) {
	now := time.Now().UTC()
	t.LastSyncedAt = &now
	return applyImport(ctx, tx, EntityTypeTeachers, t.ExternalId, t, teacherImportValues, dryRun)
}
