package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Volunteer is a stage-1 entity. Email is normalized to lowercase and phone
// to E.164 before the row reaches this struct; both may be empty when the
// source record has none.
type Volunteer struct {
	ID             int             `gorm:"primary_key" json:"id"`
	ExternalId     string          `gorm:"size:64;not null;uniqueIndex" json:"external_id"`
	FirstName      string          `gorm:"size:100;not null" json:"first_name"`
	LastName       string          `gorm:"size:100;not null" json:"last_name"`
	Email          string          `gorm:"size:255;index" json:"email"`
	Phone          string          `gorm:"size:20" json:"phone"`
	Title          string          `gorm:"size:127" json:"title"`
	Status         VolunteerStatus `gorm:"type:enum('active','inactive','unknown');default:'unknown'" json:"status"`
	City           string          `gorm:"size:100" json:"city"`
	State          string          `gorm:"size:32" json:"state"`
	LastActivityAt *time.Time      `json:"last_activity_at"`
	LastSyncedAt   *time.Time      `json:"last_synced_at"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (v Volunteer) GetExternalId() string {
	return v.ExternalId
}

func volunteerImportValues(v *Volunteer) map[string]interface{} {
	return map[string]interface{}{
		"first_name":       v.FirstName,
		"last_name":        v.LastName,
		"email":            v.Email,
		"phone":            v.Phone,
		"title":            v.Title,
		"status":           v.Status,
		"city":             v.City,
		"state":            v.State,
		"last_activity_at": v.LastActivityAt,
	}
}

func (v *Volunteer) UpsertFromImport(ctx context.Context, tx *gorm.DB, dryRun bool) (ImportAction, error) {
	now := time.Now().UTC()
	v.LastSyncedAt = &now
	return applyImport(ctx, tx, EntityTypeVolunteers, v.ExternalId, v, volunteerImportValues, dryRun)
}
