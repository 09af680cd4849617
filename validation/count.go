package validation

import (
	"context"
	"fmt"

	"github.com/admiralorbiter/VMS-sub007/models"
)

// CountChecker compares the source-side total against the local row count.
// Sources legitimately hold records the import excludes (per-entity filters,
// soft-deleted rows), so each entity type carries a documented expected
// delta; a discrepancy exactly matching it passes as info.
type CountChecker struct{}

func (c *CountChecker) Tier() models.ValidationTier {
	return models.TierCount
}

func (c *CountChecker) Check(ctx context.Context, snap *Snapshot) ([]models.ValidationResult, error) {
	var local int64
	if err := snap.DB.Table(snap.Table()).Count(&local).Error; err != nil {
		return nil, err
	}

	passed, severity, details := countFinding(snap.SourceTotal, local,
		snap.Settings.CountTolerance[snap.EntityType], snap.Settings.Thresholds.CountWarnWithin)
	return []models.ValidationResult{
		result(snap, models.TierCount, "source_count_delta", passed, severity, details),
	}, nil
}

// countFinding grades one source/local comparison. A negative source total
// means the count probe failed; the tier reports info instead of guessing.
func countFinding(sourceTotal, local, expected, warnWithin int64) (bool, models.Severity, string) {
	if sourceTotal < 0 {
		return true, models.SeverityInfo, fmt.Sprintf("source count unavailable; local rows %d", local)
	}

	discrepancy := sourceTotal - local
	if discrepancy < 0 {
		discrepancy = -discrepancy
	}
	distance := discrepancy - expected
	if distance < 0 {
		distance = -distance
	}

	details := fmt.Sprintf("source %d, local %d, discrepancy %d, expected delta %d",
		sourceTotal, local, discrepancy, expected)
	if distance == 0 {
		return true, models.SeverityInfo, details
	}
	if distance <= warnWithin {
		return false, models.SeverityWarning, details
	}
	return false, models.SeverityError, details
}
