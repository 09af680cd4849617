package validation

import (
	"context"

	"github.com/admiralorbiter/VMS-sub007/appctx"
	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/admiralorbiter/VMS-sub007/models"
	"gorm.io/gorm"
)

const moduleName = "validation"

// Snapshot binds one validation pass: an entity type, the finalized run it
// reports against, a readonly DB handle and the source-side total captured
// during import (-1 when the source could not be counted).
type Snapshot struct {
	EntityType  string
	Run         *models.SyncRun
	DB          *gorm.DB
	SourceTotal int64
	Settings    config.SyncSettings
}

// NewSnapshot flags the handle's context readonly so the guard plugin
// rejects any write a checker might accidentally issue.
func NewSnapshot(ctx context.Context, entityType string, run *models.SyncRun, sourceTotal int64, settings config.SyncSettings) *Snapshot {
	readonlyCtx := appctx.Set(ctx, appctx.ContextKeyReadonly, true)
	return &Snapshot{
		EntityType:  entityType,
		Run:         run,
		DB:          config.GetDB().WithContext(readonlyCtx),
		SourceTotal: sourceTotal,
		Settings:    settings,
	}
}

func (s *Snapshot) Table() string {
	return models.EntityTable(s.EntityType)
}

// Checker is one validation tier. Checkers read, never write; findings are
// rows for the caller to persist against the snapshot's run.
type Checker interface {
	Tier() models.ValidationTier
	Check(ctx context.Context, snap *Snapshot) ([]models.ValidationResult, error)
}

func result(snap *Snapshot, tier models.ValidationTier, ruleName string, passed bool, severity models.Severity, details string) models.ValidationResult {
	return models.ValidationResult{
		SyncRunId:  snap.Run.ID,
		EntityType: snap.EntityType,
		Tier:       tier,
		RuleName:   ruleName,
		Passed:     passed,
		Severity:   severity,
		Details:    details,
	}
}
