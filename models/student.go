package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Student is a stage-2 entity linked to its school by code.
type Student struct {
	ID           int        `gorm:"primary_key" json:"id"`
	ExternalId   string     `gorm:"size:64;not null;uniqueIndex" json:"external_id"`
	FirstName    string     `gorm:"size:100;not null" json:"first_name"`
	LastName     string     `gorm:"size:100;not null" json:"last_name"`
	Grade        string     `gorm:"size:16" json:"grade"`
	SchoolId     *int       `gorm:"index" json:"school_id"`
	SchoolCode   string     `gorm:"size:32;index" json:"school_code"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s Student) GetExternalId() string {
	return s.ExternalId
}

func studentImportValues(s *Student) map[string]interface{} {
	return map[string]interface{}{
		"first_name":  s.FirstName,
		"last_name":   s.LastName,
		"grade":       s.Grade,
		"school_code": s.SchoolCode,
	}
}

func (s *Student) UpsertFromImport(ctx context.Context, tx *gorm.DB, dryRun bool) (ImportAction, error) {
	now := time.Now().UTC()
	s.LastSyncedAt = &now
	return applyImport(ctx, tx, EntityTypeStudents, s.ExternalId, s, studentImportValues, dryRun)
}
