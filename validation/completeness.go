package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/admiralorbiter/VMS-sub007/models"
)

// CompletenessChecker measures, per required column, the fraction of rows
// actually carrying a value. Sources deliver sparse data; the thresholds
// decide when sparse becomes a finding.
type CompletenessChecker struct{}

func (c *CompletenessChecker) Tier() models.ValidationTier {
	return models.TierCompleteness
}

func (c *CompletenessChecker) Check(ctx context.Context, snap *Snapshot) ([]models.ValidationResult, error) {
	table := snap.Table()

	var total int64
	if err := snap.DB.Table(table).Count(&total).Error; err != nil {
		return nil, err
	}

	columns := models.RequiredColumns(snap.EntityType)
	results := make([]models.ValidationResult, 0, len(columns))
	if total == 0 {
		for _, col := range columns {
			results = append(results, result(snap, models.TierCompleteness,
				"completeness_"+col, true, models.SeverityInfo, "no rows to check"))
		}
		return results, nil
	}

	for _, col := range columns {
		var populated int64
		if err := snap.DB.Table(table).Where(populatedPredicate(col)).Count(&populated).Error; err != nil {
			return nil, err
		}
		fraction := float64(populated) / float64(total)
		details := fmt.Sprintf("%d of %d rows populated (%.2f%%)", populated, total, fraction*100)

		switch {
		case fraction >= snap.Settings.Thresholds.CompletenessWarn:
			results = append(results, result(snap, models.TierCompleteness,
				"completeness_"+col, true, models.SeverityInfo, details))
		case fraction >= snap.Settings.Thresholds.CompletenessError:
			results = append(results, result(snap, models.TierCompleteness,
				"completeness_"+col, false, models.SeverityWarning, details))
		default:
			results = append(results, result(snap, models.TierCompleteness,
				"completeness_"+col, false, models.SeverityError, details))
		}
	}
	return results, nil
}

// populatedPredicate treats empty strings as missing; temporal columns only
// support a null check.
func populatedPredicate(col string) string {
	if strings.HasSuffix(col, "_at") || strings.HasSuffix(col, "_date") {
		return fmt.Sprintf("%s IS NOT NULL", col)
	}
	return fmt.Sprintf("%s IS NOT NULL AND %s <> ''", col, col)
}
