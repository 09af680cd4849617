package models

import (
	"context"
	"errors"
	"time"

	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/admiralorbiter/VMS-sub007/utils"
)

// SyncRun is the unit of observability for one entity type's import or
// validation pass. Created Pending, mutated while Running, finalized once.
type SyncRun struct {
	ID              uint       `gorm:"primary_key" json:"id"`
	EntityType      string     `gorm:"index;size:50;not null" json:"entity_type"`
	Status          RunStatus  `gorm:"type:enum('Pending','Running','Completed','PartiallyCompleted','Failed');default:'Pending';index;size:20;not null" json:"status"`
	TriggeredBy     string     `gorm:"size:20" json:"triggered_by"`
	DryRun          bool       `gorm:"default:false" json:"dry_run"`
	SuccessCount    int        `json:"success_count"`
	ErrorCount      int        `json:"error_count"`
	UnresolvedCount int        `json:"unresolved_count"`
	ParentRunId     *uint      `gorm:"index" json:"parent_run_id"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	DurationMs      int64      `json:"duration_ms"`
	CursorJSON      []byte     `gorm:"type:json" json:"cursor"`
	StatsJSON       []byte     `gorm:"type:json" json:"stats"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func CreateSyncRun(ctx context.Context, entityType string, triggeredBy string, dryRun bool, parentRunId *uint) (*SyncRun, error) {
	if entityType == "" {
		return nil, errors.New("entity type is required")
	}
	db := config.GetDB()
	run := SyncRun{
		EntityType:  entityType,
		Status:      RunStatusPending,
		TriggeredBy: triggeredBy,
		DryRun:      dryRun,
		ParentRunId: parentRunId,
	}
	if err := db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (run *SyncRun) MarkRunning(ctx context.Context) error {
	db := config.GetDB()
	now := time.Now().UTC()
	run.Status = RunStatusRunning
	run.StartedAt = &now
	return db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"status":     RunStatusRunning,
		"started_at": now,
	}).Error
}

// Finalize writes the terminal state exactly once; counts never change after.
func (run *SyncRun) Finalize(ctx context.Context, status RunStatus, successCount, errorCount, unresolvedCount int, stats []byte) error {
	if !status.IsTerminal() {
		return errors.New("finalize requires a terminal status")
	}
	db := config.GetDB()
	now := time.Now().UTC()
	var durationMs int64
	if run.StartedAt != nil {
		durationMs = now.Sub(*run.StartedAt).Milliseconds()
	}
	run.Status = status
	run.SuccessCount = successCount
	run.ErrorCount = errorCount
	run.UnresolvedCount = unresolvedCount
	run.CompletedAt = &now
	run.DurationMs = durationMs
	run.StatsJSON = stats
	return db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"status":           status,
		"success_count":    successCount,
		"error_count":      errorCount,
		"unresolved_count": unresolvedCount,
		"completed_at":     now,
		"duration_ms":      durationMs,
		"stats_json":       stats,
	}).Error
}

// RecordUnresolved updates the pending-link count once the resolve phase has
// run; the import counts stay frozen.
func (run *SyncRun) RecordUnresolved(ctx context.Context, unresolved int) error {
	db := config.GetDB()
	run.UnresolvedCount = unresolved
	return db.WithContext(ctx).Model(run).Update("unresolved_count", unresolved).Error
}

// SaveCursor persists the last committed page token for resumable retries.
func (run *SyncRun) SaveCursor(ctx context.Context, cursor []byte) error {
	db := config.GetDB()
	run.CursorJSON = cursor
	return db.WithContext(ctx).Model(run).Update("cursor_json", cursor).Error
}

func GetSyncRun(ctx context.Context, id int) (*SyncRun, error) {
	return utils.FetchSingleModel[SyncRun](ctx, id)
}

func ListSyncRuns(ctx context.Context, limit int) ([]*SyncRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	db := config.GetDB()
	var runs []*SyncRun
	if err := db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// LatestRunPerEntity maps each entity type to its most recent run.
func LatestRunPerEntity(ctx context.Context, entityTypes []string) (map[string]*SyncRun, error) {
	db := config.GetDB()
	out := make(map[string]*SyncRun, len(entityTypes))
	for _, et := range entityTypes {
		var run SyncRun
		err := db.WithContext(ctx).Where("entity_type = ?", et).Order("id DESC").First(&run).Error
		if err != nil {
			continue
		}
		out[et] = &run
	}
	return out, nil
}
