package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Participation records one volunteer's involvement in one event. Stage 3:
// both ends resolve by external id after the earlier stages.
type Participation struct {
	ID                  int                 `gorm:"primary_key" json:"id"`
	ExternalId          string              `gorm:"size:64;not null;uniqueIndex" json:"external_id"`
	VolunteerId         *int                `gorm:"index" json:"volunteer_id"`
	VolunteerExternalId string              `gorm:"size:64;not null;index" json:"volunteer_external_id"`
	EventId             *int                `gorm:"index" json:"event_id"`
	EventExternalId     string              `gorm:"size:64;not null;index" json:"event_external_id"`
	Status              ParticipationStatus `gorm:"type:enum('Registered','Confirmed','Attended','NoShow','Cancelled');not null" json:"status"`
	DeliveryHours       decimal.Decimal     `gorm:"type:decimal(5,2);default:0" json:"delivery_hours"`
	LastSyncedAt        *time.Time          `json:"last_synced_at"`
	CreatedAt           time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p Participation) GetExternalId() string {
	return p.ExternalId
}

func participationImportValues(p *Participation) map[string]interface{} {
	return map[string]interface{}{
		"volunteer_external_id": p.VolunteerExternalId,
		"event_external_id":     p.EventExternalId,
		"status":                p.Status,
		"delivery_hours":        p.DeliveryHours,
	}
}

func (p *Participation) UpsertFromImport(ctx context.Context, tx *gorm.DB, dryRun bool) (ImportAction, error) {
	now := time.Now().UTC()
	p.LastSyncedAt = &now
	return applyImport(ctx, tx, EntityTypeParticipations, p.ExternalId, p, participationImportValues, dryRun)
}
