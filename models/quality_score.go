package models

import (
	"context"
	"errors"
	"time"

	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/admiralorbiter/VMS-sub007/utils"
	"github.com/shopspring/decimal"
)

// QualityScore is the 0-100 aggregate of one run's validation findings.
// Deterministic: recomputing from the same ValidationResult set always
// yields the same value.
type QualityScore struct {
	ID         uint            `gorm:"primary_key" json:"id"`
	SyncRunId  uint            `gorm:"index;not null" json:"sync_run_id"`
	EntityType string          `gorm:"index;size:50;not null" json:"entity_type"`
	Score      decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"score"`
	ComputedAt time.Time       `json:"computed_at"`
	StatsJSON  []byte          `gorm:"type:json" json:"stats"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func CreateQualityScore(ctx context.Context, entityType string, runId uint, score decimal.Decimal, stats []byte) (*QualityScore, error) {
	if score.LessThan(decimal.Zero) || score.GreaterThan(decimal.NewFromInt(100)) {
		return nil, errors.New("score must be within 0-100")
	}
	db := config.GetDB()
	row := QualityScore{
		SyncRunId:  runId,
		EntityType: entityType,
		Score:      score,
		ComputedAt: time.Now().UTC(),
		StatsJSON:  stats,
	}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func GetQualityScoreForRun(ctx context.Context, runId uint) (*QualityScore, error) {
	db := config.GetDB()
	var row QualityScore
	err := db.WithContext(ctx).Where("sync_run_id = ?", runId).Order("id DESC").First(&row).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &row, nil
}

func LatestQualityScore(ctx context.Context, entityType string) (*QualityScore, error) {
	db := config.GetDB()
	var row QualityScore
	err := db.WithContext(ctx).Where("entity_type = ?", entityType).Order("id DESC").First(&row).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &row, nil
}
