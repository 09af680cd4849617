package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Affiliation ties a volunteer to an organization. Stage 2: both ends are
// referenced by external id and resolved after the stage-1 imports.
type Affiliation struct {
	ID                     int        `gorm:"primary_key" json:"id"`
	ExternalId             string     `gorm:"size:64;not null;uniqueIndex" json:"external_id"`
	VolunteerId            *int       `gorm:"index" json:"volunteer_id"`
	VolunteerExternalId    string     `gorm:"size:64;not null;index" json:"volunteer_external_id"`
	OrganizationId         *int       `gorm:"index" json:"organization_id"`
	OrganizationExternalId string     `gorm:"size:64;not null;index" json:"organization_external_id"`
	Role                   string     `gorm:"size:127" json:"role"`
	IsPrimary              *bool      `gorm:"not null;default:false" json:"is_primary"`
	StartDate              *time.Time `json:"start_date"`
	EndDate                *time.Time `json:"end_date"`
	LastSyncedAt           *time.Time `json:"last_synced_at"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a Affiliation) GetExternalId() string {
	return a.ExternalId
}

func affiliationImportValues(a *Affiliation) map[string]interface{} {
	return map[string]interface{}{
		"volunteer_external_id":    a.VolunteerExternalId,
		"organization_external_id": a.OrganizationExternalId,
		"role":                     a.Role,
		"is_primary":               a.IsPrimary,
		"start_date":               a.StartDate,
		"end_date":                 a.EndDate,
	}
}

func (a *Affiliation) UpsertFromImport(ctx context.Context, tx *gorm.DB, dryRun bool) (ImportAction, error) {
	now := time.Now().UTC()
	a.LastSyncedAt = &now
	return applyImport(ctx, tx, EntityTypeAffiliations, a.ExternalId, a, affiliationImportValues, dryRun)
}
