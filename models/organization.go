package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Organization is a stage-1 entity: a company or community partner that
// volunteers affiliate with.
type Organization struct {
	ID           int        `gorm:"primary_key" json:"id"`
	ExternalId   string     `gorm:"size:64;not null;uniqueIndex" json:"external_id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Type         string     `gorm:"size:64" json:"type"`
	Website      string     `gorm:"size:255" json:"website"`
	City         string     `gorm:"size:100" json:"city"`
	State        string     `gorm:"size:32" json:"state"`
	IsActive     *bool      `gorm:"not null;default:true" json:"is_active"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o Organization) GetExternalId() string {
	return o.ExternalId
}

func organizationImportValues(o *Organization) map[string]interface{} {
	return map[string]interface{}{
		"name":      o.Name,
		"type":      o.Type,
		"website":   o.Website,
		"city":      o.City,
		"state":     o.State,
		"is_active": o.IsActive,
	}
}

func (o *Organization) UpsertFromImport(ctx context.Context, tx *gorm.DB, dryRun bool) (ImportAction, error) {
	now := time.Now().UTC()
	o.LastSyncedAt = &now
	return applyImport(ctx, tx, EntityTypeOrganizations, o.ExternalId, o, organizationImportValues, dryRun)
}
