package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/admiralorbiter/VMS-sub007/models"
	"github.com/sirupsen/logrus"
)

// Runner executes the five tiers in order and persists one pass's findings
// plus the derived quality score.
type Runner struct {
	settings config.SyncSettings
	checkers []Checker
}

func NewRunner(settings config.SyncSettings) *Runner {
	return &Runner{
		settings: settings,
		checkers: []Checker{
			&CountChecker{},
			&CompletenessChecker{},
			&TypeChecker{},
			&RelationshipChecker{},
			&BusinessRuleChecker{},
		},
	}
}

// Validate runs every tier against a finalized run. sourceTotal is the
// source-side count captured during import, -1 when unavailable.
func (r *Runner) Validate(ctx context.Context, entityType string, run *models.SyncRun, sourceTotal int64) ([]models.ValidationResult, *models.QualityScore, error) {
	logger := config.GetLogger()
	if run == nil || !run.Status.IsTerminal() {
		return nil, nil, errors.New("validation requires a finalized run")
	}
	if !models.KnownEntityType(entityType) {
		return nil, nil, fmt.Errorf("unknown entity type %s", entityType)
	}

	snap := NewSnapshot(ctx, entityType, run, sourceTotal, r.settings)
	var results []models.ValidationResult
	for _, checker := range r.checkers {
		found, err := checker.Check(ctx, snap)
		if err != nil {
			config.LogError(logger, moduleName, "Validate",
				fmt.Sprintf("%s tier failed", checker.Tier()), entityType, err)
			return nil, nil, err
		}
		results = append(results, found...)
	}

	if err := models.CreateValidationResults(ctx, results); err != nil {
		return nil, nil, err
	}

	score := Score(results)
	statsJSON, _ := json.Marshal(Breakdown(results))
	qualityScore, err := models.CreateQualityScore(ctx, entityType, run.ID, score, statsJSON)
	if err != nil {
		return results, nil, err
	}

	failed := 0
	for _, res := range results {
		if !res.Passed {
			failed++
		}
	}
	logger.WithFields(logrus.Fields{
		"module":      moduleName,
		"entity_type": entityType,
		"run_id":      run.ID,
		"results":     len(results),
		"failed":      failed,
		"score":       score.String(),
	}).Info("validation pass finished")

	return results, qualityScore, nil
}
