package models

import (
	"context"
	"errors"
	"time"

	"github.com/admiralorbiter/VMS-sub007/config"
)

// ValidationResult is one rule outcome from a validation pass over a
// completed run. Recomputed wholesale per pass; prior rows are kept for
// trending and never mutated.
type ValidationResult struct {
	ID         uint           `gorm:"primary_key" json:"id"`
	SyncRunId  uint           `gorm:"index;not null" json:"sync_run_id"`
	EntityType string         `gorm:"index;size:50;not null" json:"entity_type"`
	Tier       ValidationTier `gorm:"type:enum('Count','Completeness','Type','Relationship','BusinessRule');size:20;not null" json:"tier"`
	RuleName   string         `gorm:"size:100;not null" json:"rule_name"`
	Passed     bool           `gorm:"not null" json:"passed"`
	Severity   Severity       `gorm:"type:enum('info','warning','error','critical');size:20;not null" json:"severity"`
	Details    string         `gorm:"type:text" json:"details"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// CreateValidationResults batch-inserts one pass's findings. The anchoring
// run must already be finalized; results must never reference a Running run.
func CreateValidationResults(ctx context.Context, results []ValidationResult) error {
	if len(results) == 0 {
		return nil
	}
	db := config.GetDB()

	var run SyncRun
	if err := db.WithContext(ctx).First(&run, results[0].SyncRunId).Error; err != nil {
		return errors.New("validation results reference an unknown run")
	}
	if !run.Status.IsTerminal() {
		return errors.New("validation results must reference a completed run")
	}

	return db.WithContext(ctx).CreateInBatches(results, 100).Error
}

func ListValidationResults(ctx context.Context, runId uint) ([]*ValidationResult, error) {
	db := config.GetDB()
	var rows []*ValidationResult
	if err := db.WithContext(ctx).Where("sync_run_id = ?", runId).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FailingRuleNames lists distinct failed rules for a run, worst first.
func FailingRuleNames(ctx context.Context, runId uint) ([]string, error) {
	db := config.GetDB()
	var names []string
	err := db.WithContext(ctx).Model(&ValidationResult{}).
		Where("sync_run_id = ? AND passed = false", runId).
		Group("rule_name").
		Order("MIN(FIELD(severity,'critical','error','warning','info')), rule_name").
		Pluck("rule_name", &names).Error
	return names, err
}
