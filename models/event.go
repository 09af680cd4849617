package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Event is a stage-2 entity: a session volunteers deliver at a school.
// SchoolCode may be empty (virtual or district-wide events); when present
// the resolver fills SchoolId from it.
type Event struct {
	ID           int         `gorm:"primary_key" json:"id"`
	ExternalId   string      `gorm:"size:64;not null;uniqueIndex" json:"external_id"`
	Title        string      `gorm:"size:255;not null" json:"title"`
	Description  string      `gorm:"type:text" json:"description"`
	Status       EventStatus `gorm:"type:enum('Draft','Confirmed','Completed','Cancelled');default:'Draft'" json:"status"`
	Format       EventFormat `gorm:"type:enum('in_person','virtual');default:'in_person'" json:"format"`
	StartsAt     *time.Time  `json:"starts_at"`
	EndsAt       *time.Time  `json:"ends_at"`
	Location     string      `gorm:"size:255" json:"location"`
	Capacity     int         `gorm:"default:0" json:"capacity"`
	SchoolId     *int        `gorm:"index" json:"school_id"`
	SchoolCode   string      `gorm:"size:32;index" json:"school_code"`
	LastSyncedAt *time.Time  `json:"last_synced_at"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e Event) GetExternalId() string {
	return e.ExternalId
}

func eventImportValues(e *Event) map[string]interface{} {
	return map[string]interface{}{
		"title":       e.Title,
		"description": e.Description,
		"status":      e.Status,
		"format":      e.Format,
		"starts_at":   e.StartsAt,
		"ends_at":     e.EndsAt,
		"location":    e.Location,
		"capacity":    e.Capacity,
		"school_code": e.SchoolCode,
	}
}

func (e *Event) UpsertFromImport(ctx context.Context, tx *gorm.DB, dryRun bool) (ImportAction, error) {
	now := time.Now().UTC()
	e.LastSyncedAt = &now
	return applyImport(ctx, tx, EntityTypeEvents, e.ExternalId, e, eventImportValues, dryRun)
}
