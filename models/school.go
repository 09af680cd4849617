package models

import (
	"context"
	"time"

	"github.com/admiralorbiter/VMS-sub007/config"
	"gorm.io/gorm"
)

// School is a stage-1 entity; students, teachers and events resolve their
// school reference by Code.
type School struct {
	ID           int         `gorm:"primary_key" json:"id"`
	ExternalId   string      `gorm:"size:64;not null;uniqueIndex" json:"external_id"`
	Code         string      `gorm:"size:32;not null;index" json:"code"`
	Name         string      `gorm:"size:255;not null" json:"name"`
	District     string      `gorm:"size:127" json:"district"`
	Level        SchoolLevel `gorm:"type:enum('elementary','middle','high','other');default:'other'" json:"level"`
	City         string      `gorm:"size:100" json:"city"`
	State        string      `gorm:"size:32" json:"state"`
	IsActive     *bool       `gorm:"not null;default:true" json:"is_active"`
	LastSyncedAt *time.Time  `json:"last_synced_at"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s School) GetExternalId() string {
	return s.ExternalId
}

// tracked columns a re-import may change; FK columns never appear here
func schoolImportValues(s *School) map[string]interface{} {
	return map[string]interface{}{
		"code":      s.Code,
		"name":      s.Name,
		"district":  s.District,
		"level":     s.Level,
		"city":      s.City,
		"state":     s.State,
		"is_active": s.IsActive,
	}
}

func (s *School) UpsertFromImport(ctx context.Context, tx *gorm.DB, dryRun bool) (ImportAction, error) {
	now := time.Now().UTC()
	s.LastSyncedAt = &now
	return applyImport(ctx, tx, EntityTypeSchools, s.ExternalId, s, schoolImportValues, dryRun)
}

func GetSchoolByCode(ctx context.Context, code string) (*School, error) {
	db := config.GetDB()
	var school School
	if err := db.WithContext(ctx).Where("code = ?", code).First(&school).Error; err != nil {
		return nil, err
	}
	return &school, nil
}
